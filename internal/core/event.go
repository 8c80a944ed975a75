package core

import "github.com/wavechat/wavechat-server/internal/store"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventPresence carries the full online set after a presence change.
	EventPresence EventKind = iota
	// EventMessage delivers a stored chat message to a recipient connection.
	EventMessage
)

// Presence is one entry of the online set.
type Presence struct {
	UserID   string
	Username string
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Online  []Presence
	Message *store.Message
}
