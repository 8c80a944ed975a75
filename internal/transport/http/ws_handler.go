package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wavechat/wavechat-server/internal/auth"
	"github.com/wavechat/wavechat-server/internal/core"
	"github.com/wavechat/wavechat-server/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to the presence and
// delivery core.
type WSHandler struct {
	hub          *core.Hub
	router       *core.Router
	auth         *auth.Service
	pingInterval time.Duration
	pongTimeout  time.Duration
	log          *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, router *core.Router, authService *auth.Service, pingInterval, pongTimeout time.Duration, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		hub:          hub,
		router:       router,
		auth:         authService,
		pingInterval: pingInterval,
		pongTimeout:  pongTimeout,
		log:          logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewClient(uuid.NewString())
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	// Identity comes from the credential attached to the handshake, verified
	// once. A missing or invalid token leaves the connection anonymous; it
	// stays connected but is excluded from routing and the online set.
	if token := tokenFromRequest(r); token != "" {
		claims, err := h.auth.ValidateToken(token)
		if err != nil {
			h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("handshake token rejected")
		} else {
			h.hub.ResolveIdentity(client, core.IdentityClaim{
				UserID:   claims.UserID,
				Username: claims.Username,
			})
		}
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The liveness monitor probes over the websocket ping round-trip; the
	// read loop below is what pumps the pong back to it. A missed window
	// force-closes the transport and evicts the entry.
	monitor := core.NewMonitor(h.pingInterval, h.pongTimeout, conn, func() {
		h.log.Info().Str("conn_id", client.ID).Str("user_id", client.UserID).Msg("dead peer evicted")
		h.hub.Unregister(client)
		_ = conn.CloseNow()
		cancel()
	})
	go monitor.Run(ctx)
	defer monitor.Stop()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			// Malformed frame: reject it, keep the connection.
			h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("malformed inbound frame")
			rejection := &core.CoreError{Code: core.ErrCodeBadRequest, Message: "malformed payload"}
			if writeErr := wsjson.Write(ctx, conn, errorFrame(rejection)); writeErr != nil {
				return writeErr
			}
			continue
		}

		if _, rejection := h.router.Route(ctx, client, inbound.Recipient, inbound.Text); rejection != nil {
			if writeErr := wsjson.Write(ctx, conn, errorFrame(rejection)); writeErr != nil {
				return writeErr
			}
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			frame := outboundFromEvent(event)
			if frame == nil {
				continue
			}
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
