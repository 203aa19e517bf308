// internal/resolve/verified_test.go
package resolve

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/brawlroom/server/internal/room"
)

func TestVerifiedKeepsRoomOpenAfterResolution(t *testing.T) {
	gw := newRecGateway()
	fc := clockwork.NewFakeClock()
	s := room.NewStore(testLogger(), gw, fc, NewVerified(testLogger()), 60)

	r := s.CreateManual("c1", "ann")
	s.Confirm(r.Code, "c1")

	fc.BlockUntil(1)
	fc.Advance(time.Second)
	require.Eventually(t, terminal(s, r.Code), time.Second, time.Millisecond)

	// No scoring, no result, and the room survives until emptied.
	require.Empty(t, gw.roomMsgs(r.Code, "matchResult"))
	require.Equal(t, 1, s.Len())

	// Host code and proofs are still accepted after termination.
	s.SetHostCode(r.Code, "REAL42")
	s.AttachProof(r.Code, "c1", "proof.png")
	require.Len(t, gw.roomMsgs(r.Code, "hostCodeSet"), 1)

	s.RemoveConn("c1")
	require.Equal(t, 0, s.Len())
}
