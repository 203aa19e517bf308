// internal/broadcast/broadcast.go
package broadcast

// Message is the generic wire payload exchanged with clients. Outbound
// messages always carry a "type" field identifying the signal.
type Message map[string]interface{}

// Gateway is the fan-out contract the engine writes through: a send to a
// single connection, a multicast to a named group (room code), and group
// membership management. The engine never talks to sockets directly.
type Gateway interface {
	ToConn(id string, msg Message)
	ToRoom(code string, msg Message)
	Join(code, id string)
	Leave(code, id string)
	Drop(code string)
}
