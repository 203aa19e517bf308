// internal/handlers/server_test.go
package handlers

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/brawlroom/server/internal/broadcast"
	"github.com/brawlroom/server/internal/config"
	"github.com/brawlroom/server/internal/room"
)

func testConfig(mode config.Mode, dir string) config.Config {
	return config.Config{
		Addr:          ":0",
		Mode:          mode,
		UploadDir:     dir,
		MatchSize:     6,
		CountdownSecs: 60,
		ResultDelay:   5 * time.Second,
	}
}

func newTestServer(t *testing.T, mode config.Mode) *Server {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return newServer(testConfig(mode, t.TempDir()), log, clockwork.NewFakeClock())
}

func drain(ch <-chan broadcast.Message) []broadcast.Message {
	var out []broadcast.Message
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func msgTypes(msgs []broadcast.Message) []string {
	types := make([]string, len(msgs))
	for i, m := range msgs {
		types[i], _ = m["type"].(string)
	}
	return types
}

func TestJoinQueueAcknowledgesOnce(t *testing.T) {
	s := newTestServer(t, config.ModeSimulated)
	ch := s.hub.Register("c1")

	s.Dispatch("c1", broadcast.Message{"type": "joinQueue", "name": "ann"})
	s.Dispatch("c1", broadcast.Message{"type": "joinQueue", "name": "ann"})

	require.Equal(t, []string{"queued"}, msgTypes(drain(ch)))
	require.Equal(t, 1, s.queue.Len())
}

func TestSixQueuedConnectionsGetMatched(t *testing.T) {
	s := newTestServer(t, config.ModeSimulated)
	chans := make([]<-chan broadcast.Message, 6)
	for i := range chans {
		chans[i] = s.hub.Register(fmt.Sprintf("c%d", i))
	}

	for i := 0; i < 6; i++ {
		s.Dispatch(fmt.Sprintf("c%d", i), broadcast.Message{"type": "joinQueue", "name": fmt.Sprintf("p%d", i)})
	}

	require.Equal(t, 0, s.queue.Len())
	require.Equal(t, 1, s.rooms.Len())
	for _, ch := range chans {
		require.Equal(t, []string{"queued", "matched", "roomCreated"}, msgTypes(drain(ch)))
	}
}

func TestLeaveQueue(t *testing.T) {
	s := newTestServer(t, config.ModeSimulated)
	ch := s.hub.Register("c1")

	s.Dispatch("c1", broadcast.Message{"type": "joinQueue", "name": "ann"})
	s.Dispatch("c1", broadcast.Message{"type": "leaveQueue"})

	require.Equal(t, []string{"queued", "leftQueue"}, msgTypes(drain(ch)))
	require.Equal(t, 0, s.queue.Len())
}

func TestMissingNameDefaultsToPlayer(t *testing.T) {
	s := newTestServer(t, config.ModeSimulated)
	ch := s.hub.Register("c1")

	s.Dispatch("c1", broadcast.Message{"type": "createRoomManual"})

	msgs := drain(ch)
	require.Equal(t, []string{"roomCreated"}, msgTypes(msgs))
	players := msgs[0]["players"].([]room.Player)
	require.Len(t, players, 1)
	require.Equal(t, "Player", players[0].Name)
}

func TestCreateAndConfirmManualRoom(t *testing.T) {
	s := newTestServer(t, config.ModeSimulated)
	ch := s.hub.Register("c1")

	s.Dispatch("c1", broadcast.Message{"type": "createRoomManual", "name": "ann"})
	msgs := drain(ch)
	require.Len(t, msgs, 1)
	code, _ := msgs[0]["code"].(string)
	require.NotEmpty(t, code)

	s.Dispatch("c1", broadcast.Message{"type": "confirmJoined", "code": code})
	update := drain(ch)
	require.Equal(t, []string{"playersUpdate"}, msgTypes(update))
}

func TestJoinRoomManualUnknownCode(t *testing.T) {
	s := newTestServer(t, config.ModeSimulated)
	ch := s.hub.Register("c1")

	s.Dispatch("c1", broadcast.Message{"type": "joinRoomManual", "code": "00000", "name": "ann"})

	msgs := drain(ch)
	require.Equal(t, []string{"joinError"}, msgTypes(msgs))
	require.Equal(t, "room does not exist", msgs[0]["message"])
	require.Equal(t, 0, s.rooms.Len())
}

func TestJoinRoomManualByCode(t *testing.T) {
	s := newTestServer(t, config.ModeSimulated)
	host := s.hub.Register("c1")
	guest := s.hub.Register("c2")

	s.Dispatch("c1", broadcast.Message{"type": "createRoomManual", "name": "ann"})
	code, _ := drain(host)[0]["code"].(string)

	s.Dispatch("c2", broadcast.Message{"type": "joinRoomManual", "code": code, "name": "bob"})

	require.Equal(t, []string{"playersUpdate"}, msgTypes(drain(guest)))
	require.Equal(t, []string{"playersUpdate"}, msgTypes(drain(host)))
}

func TestVerificationSignalsGatedByMode(t *testing.T) {
	s := newTestServer(t, config.ModeSimulated)
	ch := s.hub.Register("c1")

	s.Dispatch("c1", broadcast.Message{"type": "createRoomManual", "name": "ann"})
	code, _ := drain(ch)[0]["code"].(string)

	s.Dispatch("c1", broadcast.Message{"type": "setHostCode", "code": code, "hostCode": "XYZ"})
	s.Dispatch("c1", broadcast.Message{"type": "attachProof", "code": code, "filename": "shot.png"})

	require.Empty(t, drain(ch), "verification signals must be ignored in simulated mode")
}

func TestVerificationSignalsInVerifiedMode(t *testing.T) {
	s := newTestServer(t, config.ModeVerified)
	ch := s.hub.Register("c1")

	s.Dispatch("c1", broadcast.Message{"type": "createRoomManual", "name": "ann"})
	code, _ := drain(ch)[0]["code"].(string)

	s.Dispatch("c1", broadcast.Message{"type": "setHostCode", "code": code, "hostCode": "XYZ"})
	s.Dispatch("c1", broadcast.Message{"type": "attachProof", "code": code, "filename": "shot.png"})

	require.Equal(t, []string{"hostCodeSet", "playersUpdate"}, msgTypes(drain(ch)))
}

func TestDisconnectCleansQueueAndRooms(t *testing.T) {
	s := newTestServer(t, config.ModeSimulated)
	s.hub.Register("c1")
	s.hub.Register("c2")

	s.Dispatch("c1", broadcast.Message{"type": "joinQueue", "name": "ann"})
	s.Dispatch("c2", broadcast.Message{"type": "createRoomManual", "name": "bob"})
	require.Equal(t, 1, s.queue.Len())
	require.Equal(t, 1, s.rooms.Len())

	s.Disconnect("c1")
	s.Disconnect("c2")

	require.Equal(t, 0, s.queue.Len())
	require.Equal(t, 0, s.rooms.Len())
}

func TestUnrecognizedSignalIgnored(t *testing.T) {
	s := newTestServer(t, config.ModeSimulated)
	ch := s.hub.Register("c1")

	s.Dispatch("c1", broadcast.Message{"type": "fireLasers"})
	s.Dispatch("c1", broadcast.Message{"name": "no type at all"})

	require.Empty(t, drain(ch))
}
