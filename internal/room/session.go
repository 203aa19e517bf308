// internal/room/session.go
package room

import (
	"time"

	"github.com/brawlroom/server/internal/broadcast"
)

// startSessionLocked moves a freshly formed room into its countdown and
// starts the per-second tick. The caller must hold the store lock.
func (s *Store) startSessionLocked(r *Room) {
	r.state = StateCountdown
	r.ticker = s.clock.NewTicker(time.Second)
	go func() {
		defer r.ticker.Stop()
		for {
			select {
			case <-r.done:
				return
			case <-r.ticker.Chan():
				if s.tick(r) {
					return
				}
			}
		}
	}()
}

// tick advances the countdown by one second and evaluates the
// termination condition: every current player confirmed, or the window
// ran out. Returns true once the tick loop should stop, either because
// the room resolved or because it no longer exists.
func (s *Store) tick(r *Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rooms[r.Code] != r {
		return true
	}

	r.Countdown--
	s.gw.ToRoom(r.Code, broadcast.Message{
		"type":      "countdown",
		"countdown": r.Countdown,
	})

	if !r.allConfirmed() && r.Countdown > 0 {
		return false
	}

	r.state = StateResolving
	s.gw.ToRoom(r.Code, broadcast.Message{
		"type": "gameStarting",
		"code": r.Code,
	})
	s.policy.Resolve(s, r)
	r.state = StateTerminal
	s.log.WithField("room", r.Code).Info("session resolved")
	return true
}
