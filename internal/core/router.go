package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wavechat/wavechat-server/internal/store"
)

// Router validates inbound chat frames, persists them, and fans the stored
// record out to the recipient's live connections.
//
// Route is called from each connection's read loop, so messages from one
// connection are persisted and delivered in the order received. No ordering
// holds across connections.
type Router struct {
	hub      *Hub
	messages store.MessageStore
	log      *zerolog.Logger
}

// NewRouter creates a router backed by the given hub and message store.
func NewRouter(hub *Hub, messages store.MessageStore, logger *zerolog.Logger) *Router {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Router{
		hub:      hub,
		messages: messages,
		log:      logger,
	}
}

// Route handles one inbound frame from client. On success the stored message
// is returned; on rejection a CoreError describes why and nothing was
// persisted or delivered (except store failures, where the message is lost
// for this attempt and not retried here).
func (r *Router) Route(ctx context.Context, client *Client, recipient, text string) (*store.Message, *CoreError) {
	if !client.Identified() {
		return nil, coreError(ErrCodeUnauthenticated, "identity required to send messages")
	}
	if recipient == "" || text == "" {
		return nil, coreError(ErrCodeBadRequest, "recipient and text are required")
	}

	msg, err := r.messages.InsertMessage(ctx, client.UserID, recipient, text)
	if err != nil {
		r.log.Error().Err(err).
			Str("sender", client.UserID).
			Str("recipient", recipient).
			Msg("message not stored")
		return nil, coreError(ErrCodeStoreUnavailable, "message was not stored")
	}

	delivered := r.hub.Deliver(msg)
	r.log.Debug().
		Str("message_id", msg.ID).
		Str("sender", msg.Sender).
		Str("recipient", msg.Recipient).
		Int("delivered", delivered).
		Msg("message routed")

	return msg, nil
}
