package session

import (
	"time"

	"github.com/wricardo/battleships-server/game/engine"
)

// run is the lifecycle clock. Each sweep only signals supervisors, so a slow
// game never delays the others.
func (m *Manager) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	for _, e := range m.entries() {
		select {
		case e.tick <- struct{}{}:
		default:
			// previous signal still pending
		}
	}
}

// supervise runs the ticks of one game until it is evicted or the manager
// closes
func (m *Manager) supervise(e *entry) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-e.stop:
			return
		case <-e.tick:
			m.tick(e)
		}
	}
}

func (m *Manager) tick(e *entry) {
	gameID := e.inst.ID()
	defer func() {
		if r := recover(); r != nil {
			m.log.Errorw("game tick panicked", "game", gameID, "panic", r)
		}
	}()

	before := e.inst.State()
	if before.Terminal() {
		return
	}
	if err := e.inst.Tick(m.now()); err != nil {
		m.log.Warnw("game tick failed", "game", gameID, "err", err)
		return
	}
	if after := e.inst.State(); after == engine.Finished {
		m.notifyFinish(e, after)
		m.log.Infow("game finished", "game", gameID)
	}
}
