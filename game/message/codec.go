package message

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
)

// Envelope wraps every frame on the wire
type Envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// inbound lists the frames a client may send
var inbound = map[string]func() Message{
	TypeServerJoinRequest:        func() Message { return &ServerJoinRequest{} },
	TypeLobbyRequest:             func() Message { return &LobbyRequest{} },
	TypeGameInitRequest:          func() Message { return &GameInitRequest{} },
	TypeGameJoinPlayerRequest:    func() Message { return &GameJoinPlayerRequest{} },
	TypeGameJoinSpectatorRequest: func() Message { return &GameJoinSpectatorRequest{} },
	TypeGameLeaveRequest:         func() Message { return &GameLeaveRequest{} },
	TypeGameStartRequest:         func() Message { return &GameStartRequest{} },
	TypePauseRequest:             func() Message { return &PauseRequest{} },
	TypeContinueRequest:          func() Message { return &ContinueRequest{} },
	TypeAbortRequest:             func() Message { return &AbortRequest{} },
	TypePointsRequest:            func() Message { return &PointsRequest{} },
	TypeRemainingTimeRequest:     func() Message { return &RemainingTimeRequest{} },
}

// Encode wraps msg in an envelope with a fresh ID. It satisfies client.Encoder.
func Encode(msg any) ([]byte, error) {
	m, ok := msg.(Message)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a message", ErrUnknownType, msg)
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", m.MessageType(), err)
	}

	return json.Marshal(Envelope{
		Type:    m.MessageType(),
		ID:      uuid.NewString(),
		Payload: payload,
	})
}

// Decode parses one inbound frame and returns the request with its envelope ID.
// A missing envelope ID is replaced by a generated one.
func Decode(data []byte) (Message, string, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.ID == "" {
		env.ID = uuid.NewString()
	}

	factory, ok := inbound[env.Type]
	if !ok {
		return nil, env.ID, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	msg := factory()
	if len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, msg); err != nil {
			return nil, env.ID, fmt.Errorf("%w: %s payload: %v", ErrMalformed, env.Type, err)
		}
	}
	return msg, env.ID, nil
}
