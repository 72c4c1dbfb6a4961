package session

import (
	"sync"

	"github.com/wricardo/battleships-server/game/id"
)

const shardCount = 32

func shardOf(k id.ID) int {
	return int(uint64(k) % shardCount)
}

// gameShard holds a slice of the gamesById map
type gameShard struct {
	mu    sync.RWMutex
	games map[id.ID]*entry
}

// clientShard holds a slice of the gameOfClient map. Its mutex is the
// critical section for every membership change of the clients it covers.
type clientShard struct {
	mu     sync.Mutex
	gameOf map[id.ID]id.ID
}

func newShards() ([shardCount]*gameShard, [shardCount]*clientShard) {
	var games [shardCount]*gameShard
	var members [shardCount]*clientShard
	for i := range shardCount {
		games[i] = &gameShard{games: make(map[id.ID]*entry)}
		members[i] = &clientShard{gameOf: make(map[id.ID]id.ID)}
	}
	return games, members
}
