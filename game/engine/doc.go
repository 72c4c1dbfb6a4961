// Package engine provides the per-game logic of the battleships server.
//
// The engine package implements:
//   - Game configuration and its validation against server bounds
//   - The lifecycle state machine (CREATED, LOBBY_OPEN, IN_PROGRESS, PAUSED,
//     FINISHED, ABORTED)
//   - Handler, the default game instance: lobby membership by role, the round
//     clock, and the score board
//
// Core Types:
//
// Instance is the contract the session registry relies on. Handler implements
// it. Lifecycle changes go through Instance.Apply with an Event; the instance
// alone decides whether a transition is legal from its current state.
//
// Usage:
//
//	if err := engine.ValidateConfiguration(cfg, engine.DefaultBounds()); err != nil {
//		return err
//	}
//
//	h := engine.NewHandler(gameID, "Fleet", cfg, false)
//	if err := h.AddClient(client.Player, c); err != nil {
//		return err
//	}
//	state, err := h.Apply(engine.Event{Kind: engine.Launch})
//
// Rounds:
//
// A launched game runs round after round. Each round lasts RoundTime, followed
// by VisualizationTime before the next one starts. Tick closes expired rounds
// and finishes the game after Rounds rounds, or as soon as no player is left.
package engine
