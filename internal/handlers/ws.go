// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/brawlroom/server/internal/broadcast"
)

// WSHandler accepts a websocket connection, assigns it a transport
// identity, and runs the read/write pumps until it drops. Every exit
// path funnels through Disconnect.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			s.log.WithError(err).Warn("websocket accept failed")
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		connID := uuid.NewString()
		out := s.hub.Register(connID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		s.log.WithFields(logrus.Fields{
			"conn":   connID,
			"remote": r.RemoteAddr,
		}).Info("connection opened")

		go s.writePump(ctx, c, connID, out)
		s.readPump(ctx, c, connID)

		cancel()
		s.Disconnect(connID)
		s.log.WithField("conn", connID).Info("connection closed")
	}
}

// readPump decodes inbound signals and hands them to Dispatch. Returns
// when the connection closes or the context is cancelled.
func (s *Server) readPump(ctx context.Context, c *websocket.Conn, connID string) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				s.log.WithFields(logrus.Fields{
					"conn":  connID,
					"error": err,
				}).Warn("read error")
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var pkt broadcast.Message
		if err := json.Unmarshal(data, &pkt); err != nil {
			s.log.WithField("conn", connID).Warn("invalid json, ignoring")
			continue
		}
		s.Dispatch(connID, pkt)
	}
}

// writePump drains the connection's outbound channel and keeps the
// connection alive with periodic pings.
func (s *Server) writePump(ctx context.Context, c *websocket.Conn, connID string, out <-chan broadcast.Message) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-out:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.log.WithField("conn", connID).WithError(err).Warn("marshal failed")
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
