package engine

import (
	"errors"
	"fmt"
)

var ErrIllegalTransition = errors.New("illegal state transition")

// State is the lifecycle phase of a game
type State string

const (
	Created    State = "CREATED"
	LobbyOpen  State = "LOBBY_OPEN"
	InProgress State = "IN_PROGRESS"
	Paused     State = "PAUSED"
	Finished   State = "FINISHED"
	Aborted    State = "ABORTED"
)

// Terminal reports whether no further transition can leave s
func (s State) Terminal() bool {
	return s == Finished || s == Aborted
}

// AcceptsPlayers reports whether players may still join in s
func (s State) AcceptsPlayers() bool {
	return s == Created || s == LobbyOpen
}

// EventKind names a lifecycle transition request
type EventKind string

const (
	Open   EventKind = "open"
	Launch EventKind = "launch"
	Pause  EventKind = "pause"
	Resume EventKind = "resume"
	Finish EventKind = "finish"
	Abort  EventKind = "abort"
)

// Event is a transition request applied to an instance.
// KeepPoints only matters for Abort.
type Event struct {
	Kind       EventKind
	KeepPoints bool
}

var transitions = map[State]map[EventKind]State{
	Created: {
		Open:   LobbyOpen,
		Launch: InProgress,
		Abort:  Aborted,
	},
	LobbyOpen: {
		Launch: InProgress,
		Abort:  Aborted,
	},
	InProgress: {
		Pause:  Paused,
		Finish: Finished,
		Abort:  Aborted,
	},
	Paused: {
		Resume: InProgress,
		Abort:  Aborted,
	},
}

// Transition returns the state reached by applying kind in from
func Transition(from State, kind EventKind) (State, error) {
	if to, ok := transitions[from][kind]; ok {
		return to, nil
	}
	return from, fmt.Errorf("%w: cannot %s a %s game", ErrIllegalTransition, kind, from)
}
