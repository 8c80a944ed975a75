package core

// IdentityClaim is the (userId, username) pair resolved from a verified credential.
type IdentityClaim struct {
	UserID   string
	Username string
}

// Client is one live socket connection as seen by the core.
//
// Identity fields are empty until a credential from the handshake is verified,
// and immutable after the hub attaches the first claim. A client with no
// identity stays connected but never receives routed messages and is excluded
// from the online set.
type Client struct {
	ID       string
	UserID   string
	Username string
	Events   chan *Event
}

// NewClient constructs an unidentified client with an initialized event channel.
func NewClient(id string) *Client {
	return &Client{
		ID:     id,
		Events: make(chan *Event, 16),
	}
}

// Identified reports whether an identity claim has been attached.
func (c *Client) Identified() bool {
	return c.UserID != ""
}
