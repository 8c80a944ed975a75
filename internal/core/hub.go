package core

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/wavechat/wavechat-server/internal/store"
)

// Hub owns the connection registry and fans out presence updates and
// message deliveries.
//
// All registry mutation happens under one mutex, so identity fields are
// written exactly once and every snapshot is a point-in-time copy. Channel
// sends happen outside the lock; slow consumers are dropped rather than
// allowed to stall the rest of the registry.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client // keyed by connection id
	log     *zerolog.Logger
}

// ClientInfo is a point-in-time copy of one registry entry.
type ClientInfo struct {
	ID       string
	UserID   string
	Username string
}

// NewHub creates an empty hub.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		clients: make(map[string]*Client),
		log:     logger,
	}
}

// Register admits a connection in the unidentified state and announces the
// updated online set. Returns false if an entry for the same connection id
// already exists.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	if _, exists := h.clients[c.ID]; exists {
		h.mu.Unlock()
		return false
	}
	h.clients[c.ID] = c
	targets, online := h.presenceLocked()
	h.mu.Unlock()

	h.log.Debug().Str("conn_id", c.ID).Int("connections", len(targets)).Msg("connection admitted")
	broadcast(targets, online)
	return true
}

// ResolveIdentity attaches an identity claim to a registered connection
// exactly once and announces the updated online set. Later calls for the
// same connection are no-ops. Returns whether the claim was attached.
func (h *Hub) ResolveIdentity(c *Client, claim IdentityClaim) bool {
	h.mu.Lock()
	entry, exists := h.clients[c.ID]
	if !exists || entry != c || entry.UserID != "" || claim.UserID == "" {
		h.mu.Unlock()
		return false
	}
	entry.UserID = claim.UserID
	entry.Username = claim.Username
	targets, online := h.presenceLocked()
	h.mu.Unlock()

	h.log.Debug().Str("conn_id", c.ID).Str("user_id", claim.UserID).Msg("identity resolved")
	broadcast(targets, online)
	return true
}

// Unregister removes a connection and announces the updated online set.
// Safe to call more than once for the same connection.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	entry, exists := h.clients[c.ID]
	if !exists || entry != c {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	targets, online := h.presenceLocked()
	h.mu.Unlock()

	h.log.Debug().Str("conn_id", c.ID).Int("connections", len(targets)).Msg("connection removed")
	broadcast(targets, online)
}

// Deliver pushes a stored message to every live connection identified as the
// recipient. A recipient with no live connection is a no-op; the message is
// already durable and surfaces through history.
func (h *Hub) Deliver(msg *store.Message) int {
	h.mu.Lock()
	var targets []chan *Event
	for _, c := range h.clients {
		if c.UserID == msg.Recipient {
			targets = append(targets, c.Events)
		}
	}
	h.mu.Unlock()

	event := &Event{Kind: EventMessage, Message: msg}
	for _, ch := range targets {
		send(ch, event)
	}
	return len(targets)
}

// Announce recomputes the online set and pushes it to every live connection.
// Registration, identity resolution and removal announce on their own; this
// is for callers that need an unprompted refresh.
func (h *Hub) Announce() {
	h.mu.Lock()
	targets, online := h.presenceLocked()
	h.mu.Unlock()

	broadcast(targets, online)
}

// Snapshot returns a point-in-time copy of every registry entry.
func (h *Hub) Snapshot() []ClientInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := make([]ClientInfo, 0, len(h.clients))
	for _, c := range h.clients {
		entries = append(entries, ClientInfo{ID: c.ID, UserID: c.UserID, Username: c.Username})
	}
	return entries
}

// presenceLocked projects the registry to the online set and collects every
// live event channel. Unidentified connections receive announcements but are
// excluded from the set itself. Callers must hold h.mu.
func (h *Hub) presenceLocked() ([]chan *Event, []Presence) {
	targets := make([]chan *Event, 0, len(h.clients))
	online := make([]Presence, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c.Events)
		if c.UserID != "" {
			online = append(online, Presence{UserID: c.UserID, Username: c.Username})
		}
	}
	return targets, online
}

func broadcast(targets []chan *Event, online []Presence) {
	// One shared event; the payload is identical for every connection.
	event := &Event{Kind: EventPresence, Online: online}
	for _, ch := range targets {
		send(ch, event)
	}
}

func send(ch chan *Event, event *Event) {
	select {
	case ch <- event:
	default:
		// Drop if slow consumer.
	}
}
