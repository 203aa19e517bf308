// internal/resolve/verified.go
package resolve

import (
	"github.com/sirupsen/logrus"

	"github.com/brawlroom/server/internal/room"
)

// Verified performs no automatic scoring. The host attaches the real
// session code and players attach proof artifacts out of band (through
// the store), and the room stays open until disconnects empty it.
type Verified struct {
	Log *logrus.Logger
}

// NewVerified returns the manual verification policy.
func NewVerified(log *logrus.Logger) *Verified {
	return &Verified{Log: log}
}

// Resolve only marks the moment; nothing is scored and no further
// automated transition occurs.
func (p *Verified) Resolve(s *room.Store, r *room.Room) {
	p.Log.WithField("room", r.Code).Info("countdown finished, awaiting manual verification")
}
