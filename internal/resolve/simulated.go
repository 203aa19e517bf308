// internal/resolve/simulated.go

// Package resolve holds the two interchangeable resolution policies a
// room store can be bound to: a simulated outcome that scores the match
// itself, and manual verification that leaves the outcome to humans.
package resolve

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brawlroom/server/internal/broadcast"
	"github.com/brawlroom/server/internal/room"
)

// Simulated computes a winner and rating deltas a fixed delay after the
// room resolves. Draw supplies the per-player random factor source and
// is injectable for deterministic tests.
type Simulated struct {
	Log   *logrus.Logger
	Delay time.Duration
	Draw  func() float64
}

// NewSimulated returns the production configuration: a 5 second delay
// and the shared math/rand source.
func NewSimulated(log *logrus.Logger, delay time.Duration) *Simulated {
	return &Simulated{
		Log:   log,
		Delay: delay,
		Draw:  rand.Float64,
	}
}

// Change is one player's rating adjustment in a match result.
type Change struct {
	ID    string `json:"id"`
	Delta int    `json:"delta"`
	NewBP int    `json:"newBP"`
}

// Winning and losing rating adjustments.
const (
	winDelta  = 25
	lossDelta = -15
)

// Resolve schedules the scoring pass. The delay does not block the
// state machine, and room destruction cancels the pending run.
func (p *Simulated) Resolve(s *room.Store, r *room.Room) {
	s.AfterFunc(r, p.Delay, func(r *room.Room) {
		winner, changes := simulate(r.Players, p.Draw)
		p.Log.WithFields(logrus.Fields{
			"room":   r.Code,
			"winner": winner,
		}).Info("simulated outcome")
		s.Multicast(r.Code, broadcast.Message{
			"type":    "matchResult",
			"winner":  winner,
			"players": r.Snapshot(),
			"changes": changes,
		})
	})
}

// simulate splits players into two teams by position parity (even index
// → team A), scores each team as the sum of bp × uniform(0.8, 1.6) with
// an independent draw per player, and applies the rating deltas to the
// live records. Team A wins only on strictly greater score; an exact
// tie goes to team B.
func simulate(players []*room.Player, draw func() float64) (string, []Change) {
	var scoreA, scoreB float64
	for i := 0; i < len(players); i += 2 {
		scoreA += float64(players[i].BP) * (0.8 + draw()*0.8)
	}
	for i := 1; i < len(players); i += 2 {
		scoreB += float64(players[i].BP) * (0.8 + draw()*0.8)
	}

	winner := "B"
	if scoreA > scoreB {
		winner = "A"
	}

	changes := make([]Change, 0, len(players))
	for i, p := range players {
		onWinningTeam := (winner == "A") == (i%2 == 0)
		delta := lossDelta
		if onWinningTeam {
			delta = winDelta
		}
		p.BP += delta
		changes = append(changes, Change{
			ID:    p.ConnID,
			Delta: delta,
			NewBP: p.BP,
		})
	}
	return winner, changes
}
