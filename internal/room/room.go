// internal/room/room.go
package room

import (
	"github.com/jonboulle/clockwork"
)

// State is a room's lifecycle phase. Forming is transient: a room enters
// Countdown in the same operation that creates it.
type State int

const (
	StateForming State = iota
	StateCountdown
	StateResolving
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateForming:
		return "forming"
	case StateCountdown:
		return "countdown"
	case StateResolving:
		return "resolving"
	case StateTerminal:
		return "terminal"
	}
	return "unknown"
}

// Player is one seat in a room. Wire field names match the client
// protocol; Proof is only populated under manual verification.
type Player struct {
	ConnID    string `json:"id"`
	Name      string `json:"name"`
	BP        int    `json:"bp"`
	Confirmed bool   `json:"confirmed"`
	Proof     string `json:"proof,omitempty"`
}

// DefaultBP is the rating every player starts a session with.
const DefaultBP = 1000

// Room is one active session. Player order is fixed at formation time
// and never reordered; team assignment in the simulated outcome depends
// on it. A Room is owned exclusively by its Store and mutated only under
// the Store's lock.
type Room struct {
	Code       string
	Players    []*Player
	HostConnID string
	HostCode   string
	Countdown  int

	state        State
	done         chan struct{}
	ticker       clockwork.Ticker
	resolveTimer clockwork.Timer
}

// State reports the room's current lifecycle phase.
func (r *Room) State() State {
	return r.state
}

func (r *Room) findPlayer(connID string) *Player {
	for _, p := range r.Players {
		if p.ConnID == connID {
			return p
		}
	}
	return nil
}

// allConfirmed reports whether every member of a non-empty player set
// has confirmed. Vacuously false for an empty room.
func (r *Room) allConfirmed() bool {
	if len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if !p.Confirmed {
			return false
		}
	}
	return true
}

// Snapshot returns a value copy of the player list, safe to hand to the
// broadcast layer.
func (r *Room) Snapshot() []Player {
	players := make([]Player, len(r.Players))
	for i, p := range r.Players {
		players[i] = *p
	}
	return players
}
