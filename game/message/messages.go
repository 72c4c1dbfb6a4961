// Package message defines the frames exchanged with game clients and the
// envelope they travel in.
package message

import (
	"github.com/wricardo/battleships-server/game/client"
	"github.com/wricardo/battleships-server/game/engine"
	"github.com/wricardo/battleships-server/game/id"
)

// Message is implemented by every frame payload
type Message interface {
	MessageType() string
}

// Message type names
const (
	TypeServerJoinRequest         = "ServerJoinRequest"
	TypeLobbyRequest              = "LobbyRequest"
	TypeGameInitRequest           = "GameInitRequest"
	TypeGameJoinPlayerRequest     = "GameJoinPlayerRequest"
	TypeGameJoinSpectatorRequest  = "GameJoinSpectatorRequest"
	TypeGameLeaveRequest          = "GameLeaveRequest"
	TypeGameStartRequest          = "GameStartRequest"
	TypePauseRequest              = "PauseRequest"
	TypeContinueRequest           = "ContinueRequest"
	TypeAbortRequest              = "AbortRequest"
	TypePointsRequest             = "PointsRequest"
	TypeRemainingTimeRequest      = "RemainingTimeRequest"
	TypeServerJoinResponse        = "ServerJoinResponse"
	TypeLobbyResponse             = "LobbyResponse"
	TypeGameInitResponse          = "GameInitResponse"
	TypeGameJoinPlayerResponse    = "GameJoinPlayerResponse"
	TypeGameJoinSpectatorResponse = "GameJoinSpectatorResponse"
	TypeGameLeaveResponse         = "GameLeaveResponse"
	TypeGameStartResponse         = "GameStartResponse"
	TypePauseResponse             = "PauseResponse"
	TypeContinueResponse          = "ContinueResponse"
	TypeAbortResponse             = "AbortResponse"
	TypePointsResponse            = "PointsResponse"
	TypeRemainingTimeResponse     = "RemainingTimeResponse"
	TypePauseNotification         = "PauseNotification"
	TypeContinueNotification      = "ContinueNotification"
	TypeFinishNotification        = "FinishNotification"
	TypeErrorNotification         = "ErrorNotification"
)

// Requests

type ServerJoinRequest struct {
	Name       string      `json:"name" validate:"required,max=32"`
	ClientType client.Role `json:"clientType" validate:"required,oneof=PLAYER SPECTATOR ADMIN"`
}

type LobbyRequest struct{}

type GameInitRequest struct {
	Name          string                `json:"name" validate:"required,max=64"`
	Tournament    bool                  `json:"tournament"`
	Preset        string                `json:"preset,omitempty" validate:"required_without=Configuration"`
	Configuration *engine.Configuration `json:"configuration,omitempty" validate:"required_without=Preset"`
}

type GameJoinPlayerRequest struct {
	GameID id.ID `json:"gameId" validate:"required"`
}

type GameJoinSpectatorRequest struct {
	GameID id.ID `json:"gameId" validate:"required"`
}

type GameLeaveRequest struct{}

type GameStartRequest struct {
	GameID id.ID `json:"gameId" validate:"required"`
}

type PauseRequest struct {
	GameID id.ID `json:"gameId" validate:"required"`
}

type ContinueRequest struct {
	GameID id.ID `json:"gameId" validate:"required"`
}

type AbortRequest struct {
	GameID     id.ID `json:"gameId" validate:"required"`
	KeepPoints bool  `json:"points"`
}

type PointsRequest struct{}

type RemainingTimeRequest struct{}

// Responses

type ServerJoinResponse struct {
	ClientID id.ID `json:"clientId"`
}

type LobbyResponse struct {
	Games []engine.Snapshot `json:"games"`
}

type GameInitResponse struct {
	GameID id.ID `json:"gameId"`
}

type GameJoinPlayerResponse struct {
	GameID id.ID `json:"gameId"`
}

type GameJoinSpectatorResponse struct {
	GameID id.ID `json:"gameId"`
}

type GameLeaveResponse struct{}

type GameStartResponse struct {
	GameID   id.ID `json:"gameId"`
	Launched bool  `json:"launched"`
}

type PauseResponse struct {
	GameID id.ID `json:"gameId"`
}

type ContinueResponse struct {
	GameID id.ID `json:"gameId"`
}

type AbortResponse struct {
	GameID id.ID `json:"gameId"`
}

type PointsResponse struct {
	Points map[id.ID]int `json:"points"`
}

// RemainingTimeResponse carries the milliseconds left in the current round
type RemainingTimeResponse struct {
	Time int64 `json:"time"`
}

// Notifications

type PauseNotification struct{}

type ContinueNotification struct{}

type FinishNotification struct {
	GameID id.ID         `json:"gameId"`
	State  engine.State  `json:"state"`
	Points map[id.ID]int `json:"points"`
}

// ErrorNotification reports a failed request. ReferenceID is the envelope ID
// of the request that failed, when known.
type ErrorNotification struct {
	ErrorType   string `json:"errorType"`
	ReferenceID string `json:"referenceMessageId,omitempty"`
	Reason      string `json:"reason"`
}

func (ServerJoinRequest) MessageType() string         { return TypeServerJoinRequest }
func (LobbyRequest) MessageType() string              { return TypeLobbyRequest }
func (GameInitRequest) MessageType() string           { return TypeGameInitRequest }
func (GameJoinPlayerRequest) MessageType() string     { return TypeGameJoinPlayerRequest }
func (GameJoinSpectatorRequest) MessageType() string  { return TypeGameJoinSpectatorRequest }
func (GameLeaveRequest) MessageType() string          { return TypeGameLeaveRequest }
func (GameStartRequest) MessageType() string          { return TypeGameStartRequest }
func (PauseRequest) MessageType() string              { return TypePauseRequest }
func (ContinueRequest) MessageType() string           { return TypeContinueRequest }
func (AbortRequest) MessageType() string              { return TypeAbortRequest }
func (PointsRequest) MessageType() string             { return TypePointsRequest }
func (RemainingTimeRequest) MessageType() string      { return TypeRemainingTimeRequest }
func (ServerJoinResponse) MessageType() string        { return TypeServerJoinResponse }
func (LobbyResponse) MessageType() string             { return TypeLobbyResponse }
func (GameInitResponse) MessageType() string          { return TypeGameInitResponse }
func (GameJoinPlayerResponse) MessageType() string    { return TypeGameJoinPlayerResponse }
func (GameJoinSpectatorResponse) MessageType() string { return TypeGameJoinSpectatorResponse }
func (GameLeaveResponse) MessageType() string         { return TypeGameLeaveResponse }
func (GameStartResponse) MessageType() string         { return TypeGameStartResponse }
func (PauseResponse) MessageType() string             { return TypePauseResponse }
func (ContinueResponse) MessageType() string          { return TypeContinueResponse }
func (AbortResponse) MessageType() string             { return TypeAbortResponse }
func (PointsResponse) MessageType() string            { return TypePointsResponse }
func (RemainingTimeResponse) MessageType() string     { return TypeRemainingTimeResponse }
func (PauseNotification) MessageType() string         { return TypePauseNotification }
func (ContinueNotification) MessageType() string      { return TypeContinueNotification }
func (FinishNotification) MessageType() string        { return TypeFinishNotification }
func (ErrorNotification) MessageType() string         { return TypeErrorNotification }
