package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/wavechat/wavechat-server/internal/store"
)

// MessageHandlers provides HTTP handlers for message history.
type MessageHandlers struct {
	store store.MessageStore
	log   *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.MessageStore, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		store: st,
		log:   logger,
	}
}

// MessageResponse represents a stored message in API responses. Field names
// match the delivery frames pushed over the socket.
type MessageResponse struct {
	ID        string    `json:"_id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Conversation returns every message between the authenticated user and the
// user named in the path, in either direction, in insertion order.
// GET /api/messages/:userId
func (h *MessageHandlers) Conversation(c *gin.Context) {
	otherUserID := c.Param("userId")
	if otherUserID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "userId is required"})
		return
	}

	ourUserID := c.GetString(ContextKeyUserID)
	if ourUserID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	messages, err := h.store.ListConversation(c.Request.Context(), ourUserID, otherUserID)
	if err != nil {
		h.log.Error().Err(err).
			Str("user_a", ourUserID).
			Str("user_b", otherUserID).
			Msg("failed to list conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		response = append(response, MessageResponse{
			ID:        m.ID,
			Sender:    m.Sender,
			Recipient: m.Recipient,
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, response)
}
