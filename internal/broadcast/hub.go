// internal/broadcast/hub.go
package broadcast

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultName is substituted when a connection never supplied a display name.
const DefaultName = "Player"

// outBufferSize bounds the per-connection outbound queue. A slow reader
// drops messages rather than blocking the engine.
const outBufferSize = 16

// Hub is the in-memory connection registry and Gateway implementation.
// It maps live connection ids to their outbound channels and display
// names, and tracks group (room) membership for multicast.
type Hub struct {
	mu     sync.Mutex
	log    *logrus.Logger
	conns  map[string]chan Message
	names  map[string]string
	groups map[string]map[string]struct{}
}

// NewHub returns an empty hub.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		log:    log,
		conns:  make(map[string]chan Message),
		names:  make(map[string]string),
		groups: make(map[string]map[string]struct{}),
	}
}

// Register adds a connection and returns the channel its write pump
// should drain. Registering an id twice replaces the previous channel.
func (h *Hub) Register(id string) <-chan Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.conns[id]; ok {
		close(old)
	}
	ch := make(chan Message, outBufferSize)
	h.conns[id] = ch
	return ch
}

// Unregister removes a connection from the registry and from every group
// it belonged to, closing its outbound channel.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.conns[id]
	if !ok {
		return
	}
	delete(h.conns, id)
	delete(h.names, id)
	for code, members := range h.groups {
		delete(members, id)
		if len(members) == 0 {
			delete(h.groups, code)
		}
	}
	close(ch)
}

// SetName records the display name for a connection. Blank names are
// ignored so the default applies.
func (h *Hub) SetName(id, name string) {
	if name == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.names[id] = name
}

// Name returns the display name for a connection, or DefaultName if the
// connection never supplied one.
func (h *Hub) Name(id string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if name, ok := h.names[id]; ok && name != "" {
		return name
	}
	return DefaultName
}

// ToConn sends msg to a single connection, if registered.
func (h *Hub) ToConn(id string, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendLocked(id, msg)
}

// ToRoom multicasts msg to every member of the named group.
func (h *Hub) ToRoom(code string, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.groups[code] {
		h.sendLocked(id, msg)
	}
}

// Join adds a connection to a group, creating the group if needed.
func (h *Hub) Join(code, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[code]
	if !ok {
		members = make(map[string]struct{})
		h.groups[code] = members
	}
	members[id] = struct{}{}
}

// Leave removes a connection from a group.
func (h *Hub) Leave(code, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.groups[code]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(h.groups, code)
		}
	}
}

// Drop removes a group entirely. Members stay registered.
func (h *Hub) Drop(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups, code)
}

// sendLocked pushes msg onto the connection's channel without blocking.
// A full channel means the reader stalled; the message is dropped.
func (h *Hub) sendLocked(id string, msg Message) {
	ch, ok := h.conns[id]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		msgType, _ := msg["type"].(string)
		h.log.WithFields(logrus.Fields{
			"conn": id,
			"msg":  msgType,
		}).Warn("outbound channel full, dropping message")
	}
}
