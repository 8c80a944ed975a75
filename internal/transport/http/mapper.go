package http

import (
	"github.com/wavechat/wavechat-server/internal/core"
	"github.com/wavechat/wavechat-server/internal/proto"
)

// outboundFromEvent converts a core event into its wire frame.
func outboundFromEvent(event *core.Event) any {
	switch event.Kind {
	case core.EventPresence:
		online := make([]proto.OnlineEntry, 0, len(event.Online))
		for _, p := range event.Online {
			online = append(online, proto.OnlineEntry{
				UserID:   p.UserID,
				Username: p.Username,
			})
		}
		return proto.Presence{Online: online}
	case core.EventMessage:
		return proto.Delivery{
			ID:        event.Message.ID,
			Text:      event.Message.Text,
			Sender:    event.Message.Sender,
			Recipient: event.Message.Recipient,
		}
	default:
		return nil
	}
}

// errorFrame wraps a core rejection for the wire.
func errorFrame(rejection *core.CoreError) proto.ErrorFrame {
	return proto.ErrorFrame{Error: &proto.Error{Code: rejection.Code, Msg: rejection.Message}}
}
