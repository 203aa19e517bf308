// internal/handlers/server.go
package handlers

import (
	"net/http"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/brawlroom/server/internal/broadcast"
	"github.com/brawlroom/server/internal/config"
	"github.com/brawlroom/server/internal/middleware"
	"github.com/brawlroom/server/internal/queue"
	"github.com/brawlroom/server/internal/resolve"
	"github.com/brawlroom/server/internal/room"
)

// Server wires the matchmaking queue, room store, and broadcast hub
// behind the websocket and upload endpoints. The resolution policy is
// chosen once, at construction.
type Server struct {
	log   *logrus.Logger
	cfg   config.Config
	hub   *broadcast.Hub
	queue *queue.Queue
	rooms *room.Store
}

// NewServer builds a production server on the real clock.
func NewServer(cfg config.Config, log *logrus.Logger) *Server {
	return newServer(cfg, log, clockwork.NewRealClock())
}

func newServer(cfg config.Config, log *logrus.Logger, clock clockwork.Clock) *Server {
	s := &Server{
		log: log,
		cfg: cfg,
		hub: broadcast.NewHub(log),
	}

	var policy room.Policy
	if cfg.Mode == config.ModeVerified {
		policy = resolve.NewVerified(log)
	} else {
		policy = resolve.NewSimulated(log, cfg.ResultDelay)
	}
	s.rooms = room.NewStore(log, s.hub, clock, policy, cfg.CountdownSecs)
	s.queue = queue.New(log, clock, cfg.MatchSize,
		func(t queue.Ticket) {
			s.hub.ToConn(t.ConnID, broadcast.Message{"type": "queued"})
		},
		func(batch []queue.Ticket) {
			s.rooms.CreateFromBatch(batch)
		})
	return s
}

// Routes returns the service's HTTP handler. The upload boundary only
// exists under manual verification.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.WSHandler())
	if s.cfg.Mode == config.ModeVerified {
		if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
			s.log.WithError(err).Fatal("cannot create upload directory")
		}
		mux.HandleFunc("/uploadProof", s.UploadHandler())
		mux.Handle("/uploads/", http.StripPrefix("/uploads/",
			http.FileServer(http.Dir(s.cfg.UploadDir))))
	}
	return cors.AllowAll().Handler(middleware.Log(s.log)(mux))
}

// Dispatch routes one inbound signal from a connection to the engine.
// Malformed or unrecognized signals are logged and ignored; nothing a
// client sends is fatal.
func (s *Server) Dispatch(connID string, pkt broadcast.Message) {
	str := func(key string) string {
		v, _ := pkt[key].(string)
		return v
	}
	action := str("type")

	switch action {
	case "joinQueue":
		s.hub.SetName(connID, str("name"))
		s.queue.Enqueue(connID, s.hub.Name(connID))

	case "leaveQueue":
		s.queue.Dequeue(connID)
		s.hub.ToConn(connID, broadcast.Message{"type": "leftQueue"})

	case "createRoomManual":
		s.hub.SetName(connID, str("name"))
		s.rooms.CreateManual(connID, s.hub.Name(connID))

	case "joinRoomManual":
		s.hub.SetName(connID, str("name"))
		if err := s.rooms.JoinManual(str("code"), connID, s.hub.Name(connID)); err != nil {
			s.hub.ToConn(connID, broadcast.Message{
				"type":    "joinError",
				"message": "room does not exist",
			})
		}

	case "confirmJoined":
		s.rooms.Confirm(str("code"), connID)

	case "setHostCode":
		if s.cfg.Mode == config.ModeVerified {
			s.rooms.SetHostCode(str("code"), str("hostCode"))
		}

	case "attachProof":
		if s.cfg.Mode == config.ModeVerified {
			s.rooms.AttachProof(str("code"), connID, str("filename"))
		}

	default:
		s.log.WithFields(logrus.Fields{
			"conn":   connID,
			"action": action,
		}).Warn("unrecognized signal")
	}
}

// Disconnect funnels a dropped connection through the queue and every
// live room, then forgets the connection.
func (s *Server) Disconnect(connID string) {
	s.queue.Dequeue(connID)
	s.rooms.RemoveConn(connID)
	s.hub.Unregister(connID)
}
