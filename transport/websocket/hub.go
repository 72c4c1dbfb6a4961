package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/battleships-server/game/client"
	"github.com/wricardo/battleships-server/game/id"
	"github.com/wricardo/battleships-server/game/message"
	"github.com/wricardo/battleships-server/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	sendBufferSize = 256
)

var (
	ErrConnClosed   = errors.New("connection closed")
	ErrSlowConsumer = errors.New("send buffer full")
)

// Dispatcher is the request side of the server, implemented by service.Dispatcher
type Dispatcher interface {
	Join(ctx context.Context, req *message.ServerJoinRequest, conn client.Conn) (*client.Client, error)
	Leave(ctx context.Context, clientID id.ID)
	Dispatch(ctx context.Context, clientID id.ID, req message.Message, ref string) error
	Reject(clientID id.ID, ref string, cause error) error
}

var _ Dispatcher = (*service.Dispatcher)(nil)

// Conn is one websocket connection. It implements client.Conn.
type Conn struct {
	hub       *Hub
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

var _ client.Conn = (*Conn)(nil)

// Send queues a frame for the write pump. A peer that cannot keep up with its
// buffer is disconnected.
func (c *Conn) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		c.hub.log.Warnw("send buffer full, dropping connection", "remote", c.remote())
		c.Close()
		return ErrSlowConsumer
	}
}

// Close stops both pumps. It is safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *Conn) remote() string {
	if c.ws == nil {
		return ""
	}
	return c.ws.RemoteAddr().String()
}

// Hub accepts websocket connections and feeds their frames to the dispatcher
type Hub struct {
	dispatcher Dispatcher
	upgrader   websocket.Upgrader
	log        *zap.SugaredLogger

	mu    sync.Mutex
	conns map[*Conn]struct{}
}

// NewHub creates a hub. An empty allowedOrigins accepts every origin.
func NewHub(dispatcher Dispatcher, allowedOrigins []string, log *zap.SugaredLogger) *Hub {
	h := &Hub{
		dispatcher: dispatcher,
		log:        log,
		conns:      make(map[*Conn]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// ServeWS upgrades the request and runs the connection until it closes
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "err", err)
		return
	}

	c := &Conn{
		hub:  h,
		ws:   ws,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	h.register(c)

	go c.writePump()
	go c.readPump()
}

// Count returns the number of open connections
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close drops every open connection
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

func (h *Hub) register(c *Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	h.log.Debugw("connection opened", "remote", c.remote(), "connections", n)
}

func (h *Hub) unregister(c *Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()
	h.log.Debugw("connection closed", "remote", c.remote(), "connections", n)
}

// handshake reads the first frame, which must be a server join request
func (c *Conn) handshake(ctx context.Context) (*client.Client, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}

	msg, ref, err := message.Decode(data)
	if err == nil {
		if join, ok := msg.(*message.ServerJoinRequest); ok {
			cl, err := c.hub.dispatcher.Join(ctx, join, c)
			if err != nil {
				c.sendError(ref, err)
			}
			return cl, err
		}
		err = fmt.Errorf("%w: expected %s, got %s", service.ErrNotAllowed, message.TypeServerJoinRequest, msg.MessageType())
	}
	c.sendError(ref, err)
	return nil, err
}

// sendError reports a failure to a peer that has no client yet
func (c *Conn) sendError(ref string, cause error) {
	data, err := message.Encode(message.ErrorNotification{
		ErrorType:   service.ErrorType(cause),
		ReferenceID: ref,
		Reason:      cause.Error(),
	})
	if err != nil {
		return
	}
	_ = c.Send(data)
}

// readPump pumps frames from the websocket connection to the dispatcher
func (c *Conn) readPump() {
	ctx := context.Background()
	var cl *client.Client
	defer func() {
		if cl != nil {
			c.hub.dispatcher.Leave(ctx, cl.ID)
		}
		c.hub.unregister(c)
		c.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	cl, err := c.handshake(ctx)
	if err != nil {
		c.hub.log.Debugw("handshake failed", "remote", c.remote(), "err", err)
		return
	}

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.hub.log.Warnw("websocket read failed", "client", cl.ID, "err", err)
			}
			return
		}

		msg, ref, err := message.Decode(data)
		if err != nil {
			if err := c.hub.dispatcher.Reject(cl.ID, ref, err); err != nil {
				c.hub.log.Debugw("reject failed", "client", cl.ID, "err", err)
			}
			continue
		}
		if err := c.hub.dispatcher.Dispatch(ctx, cl.ID, msg, ref); err != nil {
			if errors.Is(err, service.ErrClientGone) {
				return
			}
			c.hub.log.Debugw("request failed", "client", cl.ID, "type", msg.MessageType(), "err", err)
		}
	}
}

// writePump pumps queued frames to the websocket connection
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.Close()
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			c.drain()
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// drain flushes frames queued before the connection was closed
func (c *Conn) drain() {
	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}
