package service

import (
	"errors"

	"github.com/wricardo/battleships-server/game/engine"
	"github.com/wricardo/battleships-server/game/message"
	"github.com/wricardo/battleships-server/game/session"
)

var (
	ErrNotAllowed      = errors.New("not allowed")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrClientGone      = errors.New("client disconnected")
	ErrUnknownRequest  = errors.New("no handler for request")
	ErrPresetNotFound  = errors.New("preset not found")
)

// Error types carried by message.ErrorNotification
const (
	ErrorTypeInvalidGameSize = "InvalidGameSize"
	ErrorTypeInvalidArgument = "InvalidArgument"
	ErrorTypeNoSuchGame      = "NoSuchGame"
	ErrorTypeNoGameForClient = "NoGameForClient"
	ErrorTypeAlreadyInGame   = "AlreadyInGame"
	ErrorTypeNotAllowed      = "NotAllowed"
	ErrorTypeInvalidAction   = "InvalidAction"
	ErrorTypeInternal        = "Internal"
)

// ErrorType maps an error to the wire error type reported to clients
func ErrorType(err error) string {
	switch {
	case errors.Is(err, engine.ErrInvalidGameSize):
		return ErrorTypeInvalidGameSize
	case errors.Is(err, engine.ErrInvalidConfiguration),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrPresetNotFound),
		errors.Is(err, ErrUnknownRequest),
		errors.Is(err, message.ErrMalformed),
		errors.Is(err, message.ErrUnknownType):
		return ErrorTypeInvalidArgument
	case errors.Is(err, session.ErrNoSuchGame):
		return ErrorTypeNoSuchGame
	case errors.Is(err, session.ErrNoGameForClient):
		return ErrorTypeNoGameForClient
	case errors.Is(err, session.ErrAlreadyInGame):
		return ErrorTypeAlreadyInGame
	case errors.Is(err, ErrNotAllowed),
		errors.Is(err, engine.ErrJoinClosed),
		errors.Is(err, engine.ErrLobbyFull),
		errors.Is(err, engine.ErrNameTaken):
		return ErrorTypeNotAllowed
	case errors.Is(err, engine.ErrIllegalTransition),
		errors.Is(err, engine.ErrNotEnoughPlayers):
		return ErrorTypeInvalidAction
	}
	return ErrorTypeInternal
}
