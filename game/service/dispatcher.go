package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/wricardo/battleships-server/game/client"
	"github.com/wricardo/battleships-server/game/id"
	"github.com/wricardo/battleships-server/game/message"
	"github.com/wricardo/battleships-server/game/session"
	"github.com/wricardo/battleships-server/tracing"
)

// HandlerFunc serves one request type. A nil response sends nothing.
type HandlerFunc func(ctx context.Context, c *client.Client, req message.Message) (message.Message, error)

// Dispatcher routes decoded client requests to their handlers and reports
// failures back to the sender as ErrorNotification.
type Dispatcher struct {
	games    GameRegistry
	clients  ClientDirectory
	presets  PresetStore
	validate *validator.Validate
	now      Clock
	log      *zap.SugaredLogger
	handlers map[string]HandlerFunc
}

// NewDispatcher creates a dispatcher with every request handler registered.
// presets may be nil, in which case preset based game creation is refused.
func NewDispatcher(games GameRegistry, clients ClientDirectory, presets PresetStore, log *zap.SugaredLogger) *Dispatcher {
	d := &Dispatcher{
		games:    games,
		clients:  clients,
		presets:  presets,
		validate: validator.New(),
		now:      time.Now,
		log:      log,
	}
	d.handlers = map[string]HandlerFunc{
		message.TypeLobbyRequest:             d.handleLobby,
		message.TypeGameInitRequest:          d.handleGameInit,
		message.TypeGameJoinPlayerRequest:    d.handleJoinPlayer,
		message.TypeGameJoinSpectatorRequest: d.handleJoinSpectator,
		message.TypeGameLeaveRequest:         d.handleLeave,
		message.TypeGameStartRequest:         d.handleStart,
		message.TypePauseRequest:             d.handlePause,
		message.TypeContinueRequest:          d.handleContinue,
		message.TypeAbortRequest:             d.handleAbort,
		message.TypePointsRequest:            d.handlePoints,
		message.TypeRemainingTimeRequest:     d.handleRemainingTime,
	}
	return d
}

// Join performs the handshake of a new connection and registers the client
func (d *Dispatcher) Join(ctx context.Context, req *message.ServerJoinRequest, conn client.Conn) (*client.Client, error) {
	_, span := tracing.StartSpan(ctx, "dispatch."+message.TypeServerJoinRequest)
	defer span.End()

	if err := d.validate.Struct(req); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	c, err := d.clients.Add(req.Name, req.ClientType, conn)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	span.SetAttributes(attribute.Int64("client.id", int64(c.ID)), attribute.String("client.role", string(c.Role)))

	if err := d.clients.SendTo(message.ServerJoinResponse{ClientID: c.ID}, c); err != nil {
		d.clients.Remove(c.ID)
		return nil, fmt.Errorf("send join response: %w", err)
	}

	d.log.Infow("client connected", "client", c.ID, "role", c.Role, "name", c.Name)
	return c, nil
}

// Leave forgets a disconnected client: its game membership first, then the
// client itself
func (d *Dispatcher) Leave(ctx context.Context, clientID id.ID) {
	_, span := tracing.StartSpan(ctx, "dispatch.disconnect")
	defer span.End()

	if err := d.games.RemoveClientFromGame(clientID); err != nil && !errors.Is(err, session.ErrNoGameForClient) {
		d.log.Warnw("leave game on disconnect failed", "client", clientID, "err", err)
	}
	d.clients.Remove(clientID)
	d.log.Infow("client disconnected", "client", clientID)
}

// Dispatch serves one request of clientID. ref is the envelope ID of the
// request and is echoed in error notifications.
func (d *Dispatcher) Dispatch(ctx context.Context, clientID id.ID, req message.Message, ref string) error {
	ctx, span := tracing.StartSpan(ctx, "dispatch."+req.MessageType())
	defer span.End()
	span.SetAttributes(attribute.Int64("client.id", int64(clientID)), attribute.String("message.id", ref))

	c := d.clients.Lookup(clientID)
	if c == nil {
		d.log.Errorw("request from unknown client", "client", clientID, "type", req.MessageType())
		span.SetStatus(codes.Error, ErrClientGone.Error())
		return fmt.Errorf("%w: %d", ErrClientGone, clientID)
	}

	resp, err := d.serve(ctx, c, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, ErrClientGone) {
			d.log.Errorw("client vanished during request", "client", clientID, "type", req.MessageType(), "err", err)
			return err
		}

		d.log.Debugw("request failed", "client", clientID, "type", req.MessageType(), "err", err)
		notice := message.ErrorNotification{ErrorType: ErrorType(err), ReferenceID: ref, Reason: err.Error()}
		if sendErr := d.clients.SendTo(notice, c); sendErr != nil {
			return fmt.Errorf("send error notification: %w", sendErr)
		}
		return err
	}

	if resp == nil {
		return nil
	}
	if err := d.clients.SendTo(resp, c); err != nil {
		return fmt.Errorf("send %s: %w", resp.MessageType(), err)
	}
	return nil
}

// Reject reports a frame that could not be decoded
func (d *Dispatcher) Reject(clientID id.ID, ref string, cause error) error {
	c := d.clients.Lookup(clientID)
	if c == nil {
		return fmt.Errorf("%w: %d", ErrClientGone, clientID)
	}
	return d.clients.SendTo(message.ErrorNotification{
		ErrorType:   ErrorType(cause),
		ReferenceID: ref,
		Reason:      cause.Error(),
	}, c)
}

func (d *Dispatcher) serve(ctx context.Context, c *client.Client, req message.Message) (message.Message, error) {
	h, ok := d.handlers[req.MessageType()]
	if !ok {
		if req.MessageType() == message.TypeServerJoinRequest {
			return nil, fmt.Errorf("%w: client %d already joined the server", ErrNotAllowed, c.ID)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownRequest, req.MessageType())
	}
	if err := d.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return h(ctx, c, req)
}
