// internal/room/store.go
package room

import (
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/brawlroom/server/internal/broadcast"
	"github.com/brawlroom/server/internal/queue"
)

// ErrRoomNotFound is returned when a manual join names a code that does
// not resolve to a live room.
var ErrRoomNotFound = errors.New("room not found")

// Policy decides how a room's outcome is determined once its countdown
// or confirmation window ends. Resolve is invoked exactly once per room,
// with the store lock held.
type Policy interface {
	Resolve(s *Store, r *Room)
}

// Store owns every live Room and is the sole mutator of the code→Room
// mapping. All room mutation funnels through its methods under one lock,
// including timer callbacks.
type Store struct {
	mu        sync.Mutex
	log       *logrus.Logger
	gw        broadcast.Gateway
	clock     clockwork.Clock
	policy    Policy
	countdown int
	rooms     map[string]*Room
	codeFn    func() string
}

// NewStore builds a store bound to one resolution policy. countdown is
// the confirmation window in seconds for every room it creates.
func NewStore(log *logrus.Logger, gw broadcast.Gateway, clock clockwork.Clock, policy Policy, countdown int) *Store {
	return &Store{
		log:       log,
		gw:        gw,
		clock:     clock,
		policy:    policy,
		countdown: countdown,
		rooms:     make(map[string]*Room),
		codeFn:    genCode,
	}
}

// genCode produces a 5-digit room code.
func genCode() string {
	return strconv.Itoa(10000 + rand.Intn(90000))
}

// nextCodeLocked generates a code that does not collide with a live
// room. Codes are short, so collisions happen; regenerating under the
// lock keeps them from silently overwriting an existing session.
func (s *Store) nextCodeLocked() string {
	for {
		code := s.codeFn()
		if _, taken := s.rooms[code]; !taken {
			return code
		}
	}
}

// CreateFromBatch allocates a room from a formed queue batch. The first
// ticket's connection becomes host. Each member is told it was matched,
// the group is told the room exists, and the countdown starts.
func (s *Store) CreateFromBatch(tickets []queue.Ticket) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.newRoomLocked(tickets[0].ConnID)
	for _, t := range tickets {
		r.Players = append(r.Players, &Player{
			ConnID: t.ConnID,
			Name:   t.Name,
			BP:     DefaultBP,
		})
	}

	players := r.Snapshot()
	for _, t := range tickets {
		s.gw.Join(r.Code, t.ConnID)
		s.gw.ToConn(t.ConnID, broadcast.Message{
			"type":    "matched",
			"code":    r.Code,
			"players": players,
		})
	}
	s.gw.ToRoom(r.Code, broadcast.Message{
		"type":    "roomCreated",
		"code":    r.Code,
		"players": players,
	})

	s.log.WithFields(logrus.Fields{
		"room":    r.Code,
		"players": len(r.Players),
	}).Info("room formed from queue")
	s.startSessionLocked(r)
	return r
}

// CreateManual allocates a single-player room with the creator as host
// and starts its countdown immediately.
func (s *Store) CreateManual(connID, name string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.newRoomLocked(connID)
	r.Players = append(r.Players, &Player{
		ConnID: connID,
		Name:   name,
		BP:     DefaultBP,
	})

	s.gw.Join(r.Code, connID)
	s.gw.ToConn(connID, broadcast.Message{
		"type":    "roomCreated",
		"code":    r.Code,
		"players": r.Snapshot(),
	})

	s.log.WithFields(logrus.Fields{
		"room": r.Code,
		"host": connID,
	}).Info("room created manually")
	s.startSessionLocked(r)
	return r
}

// JoinManual appends a player to an existing room. There is no capacity
// cap on this path.
func (s *Store) JoinManual(code, connID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	r.Players = append(r.Players, &Player{
		ConnID: connID,
		Name:   name,
		BP:     DefaultBP,
	})
	s.gw.Join(code, connID)
	s.broadcastPlayersLocked(r)
	return nil
}

// Confirm marks the player as ready. Idempotent; confirmations after the
// countdown has stopped are accepted but change nothing further, since
// termination is only evaluated on ticks.
func (s *Store) Confirm(code, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return
	}
	p := r.findPlayer(connID)
	if p == nil {
		return
	}
	p.Confirmed = true
	s.broadcastPlayersLocked(r)
}

// SetHostCode attaches the externally-sourced session code to the room
// and announces it to every member. The code is opaque to the engine.
func (s *Store) SetHostCode(code, hostCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return
	}
	r.HostCode = hostCode
	s.gw.ToRoom(code, broadcast.Message{
		"type":     "hostCodeSet",
		"hostCode": hostCode,
	})
}

// AttachProof records an uploaded artifact reference on the player's own
// record. The artifact itself is never inspected.
func (s *Store) AttachProof(code, connID, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return
	}
	p := r.findPlayer(connID)
	if p == nil {
		return
	}
	p.Proof = filename
	s.broadcastPlayersLocked(r)
}

// RemovePlayer removes the player from the named room. Removing the last
// player destroys the room and cancels its timers, in any lifecycle
// state.
func (s *Store) RemovePlayer(code, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return
	}
	s.removePlayerLocked(r, connID)
}

// RemoveConn funnels a disconnect through every live room. A connection
// belongs to at most one room in practice, but the store scans them all
// rather than assuming that.
func (s *Store) RemoveConn(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rooms {
		s.removePlayerLocked(r, connID)
	}
}

// State reports the lifecycle phase of the named room.
func (s *Store) State(code string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return 0, false
	}
	return r.state, true
}

// Len reports the number of live rooms.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// AfterFunc schedules fn to run on the room after d, unless the room is
// destroyed first. fn runs under the store lock; the pending timer is
// retained on the room so destruction can cancel it.
func (s *Store) AfterFunc(r *Room, d time.Duration, fn func(*Room)) {
	r.resolveTimer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.rooms[r.Code] != r {
			return
		}
		fn(r)
	})
}

// Multicast lets a policy emit to a room's group through the store's
// gateway.
func (s *Store) Multicast(code string, msg broadcast.Message) {
	s.gw.ToRoom(code, msg)
}

func (s *Store) newRoomLocked(hostConnID string) *Room {
	r := &Room{
		Code:       s.nextCodeLocked(),
		HostConnID: hostConnID,
		Countdown:  s.countdown,
		state:      StateForming,
		done:       make(chan struct{}),
	}
	s.rooms[r.Code] = r
	return r
}

func (s *Store) removePlayerLocked(r *Room, connID string) {
	for i, p := range r.Players {
		if p.ConnID != connID {
			continue
		}
		r.Players = append(r.Players[:i], r.Players[i+1:]...)
		s.gw.Leave(r.Code, connID)
		if len(r.Players) == 0 {
			s.destroyLocked(r)
			return
		}
		s.broadcastPlayersLocked(r)
		return
	}
}

// destroyLocked deletes the room and stops anything still scheduled for
// it. Pending callbacks must never mutate a deleted room.
func (s *Store) destroyLocked(r *Room) {
	close(r.done)
	if r.resolveTimer != nil {
		r.resolveTimer.Stop()
		r.resolveTimer = nil
	}
	delete(s.rooms, r.Code)
	s.gw.Drop(r.Code)
	s.log.WithField("room", r.Code).Info("room destroyed")
}

func (s *Store) broadcastPlayersLocked(r *Room) {
	s.gw.ToRoom(r.Code, broadcast.Message{
		"type":    "playersUpdate",
		"players": r.Snapshot(),
	})
}
