// Package session provides the game registry of the battleships server.
//
// The session package implements:
//   - Registration of game instances under IDs drawn from the shared allocator
//   - The client to game membership index
//   - Join and leave policy, including cleanup of stale memberships
//   - Lifecycle control (launch, pause, continue, abort) with client notifications
//   - The periodic clock that drives every running game
//   - Eviction of games that ended a while ago
//
// Core Types:
//
// Manager owns two sharded maps: games by ID, and the game each client belongs
// to. The mutex of a client shard is the critical section for every
// membership change of its clients, so two joins of different clients never
// wait on each other and two games never share a lock.
//
// Lock order is client shard, then instance. Game shard locks are only held
// to read or write the map itself, never while calling into an instance.
//
// Clock:
//
// NewManager starts a ticker. Every sweep signals one supervisor goroutine per
// game through a one-slot channel; a game that is still busy with its previous
// tick simply misses the signal. Ticks run under recover, so a failing game is
// logged and the others keep running.
//
// Usage:
//
//	ids := id.NewAllocator(0)
//	clients := client.NewRegistry(ids, message.Encode, log)
//	games := session.NewManager(ids, clients, log)
//	defer games.Close()
//
//	inst, err := games.CreateGame(cfg, "Fleet", false)
//	if err != nil {
//		return err
//	}
//	err = games.AddClientToGame(inst.ID(), c, client.Player)
package session
