package proto

// Inbound is a chat frame from the client.
type Inbound struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// OnlineEntry is one identified connection in a presence announcement.
type OnlineEntry struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Presence announces the full online set to a client.
type Presence struct {
	Online []OnlineEntry `json:"online"`
}

// Delivery carries one stored message, including its assigned id.
type Delivery struct {
	ID        string `json:"_id"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// ErrorFrame wraps an Error for the wire.
type ErrorFrame struct {
	Error *Error `json:"error"`
}
