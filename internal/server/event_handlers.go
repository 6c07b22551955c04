package server

import (
	"context"
	"strconv"
	"sync"

	"heartbridge/internal/middleware"
	"heartbridge/internal/models"
	"heartbridge/internal/notifications"
	"heartbridge/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// MsgEventsUnavailable is sent when the server runs without Redis.
const MsgEventsUnavailable = "即時通知暫時無法使用"

// Event stream frame types.
const (
	FrameSubscribed = "subscribed"
	FrameEvent      = "event"
	FrameError      = "error"
)

// EventFrame is one JSON message on the event stream.
type EventFrame struct {
	Type     string               `json:"type"`
	Channel  string               `json:"channel,omitempty"`
	Channels []string             `json:"channels,omitempty"`
	Event    *notifications.Event `json:"event,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// RequireWebSocket rejects plain HTTP requests to websocket routes.
func RequireWebSocket(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired,
			models.NewValidationError("websocket upgrade required"))
	}
	return c.Next()
}

// eventChannels picks the channels for a stream: the article's channel with
// ?article=<id>, the member's own channel with ?mine=true, otherwise the
// broadcast channel.
func eventChannels(uid, articleID string, mine bool) []string {
	var channels []string
	if articleID != "" {
		channels = append(channels, notifications.ArticleChannel(articleID))
	}
	if mine && uid != "" {
		channels = append(channels, notifications.UserChannel(uid))
	}
	if len(channels) == 0 {
		channels = append(channels, notifications.BroadcastChannel())
	}
	return channels
}

// EventStream relays domain events from Redis to a signed-in websocket
// client. The first frame is either "subscribed", listing the channels, or
// "error". Client messages are read and discarded until the socket closes.
func (s *Server) EventStream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		observability.ActiveWebSockets.Inc()
		defer observability.ActiveWebSockets.Dec()

		uid, _ := conn.Locals("userID").(string)
		mine, _ := strconv.ParseBool(conn.Query("mine"))
		channels := eventChannels(uid, conn.Query("article"), mine)

		if s.runtime.Redis == nil {
			_ = conn.WriteJSON(EventFrame{Type: FrameError, Error: MsgEventsUnavailable})
			_ = conn.Close()
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// The subscriber goroutine and this one both write. Writes stop
		// before the connection is released, and no event goes out ahead of
		// the subscribed frame.
		var mu sync.Mutex
		open := true
		write := func(f EventFrame) bool {
			if !open {
				return false
			}
			if err := conn.WriteJSON(f); err != nil {
				open = false
				cancel()
				return false
			}
			return true
		}
		defer func() {
			mu.Lock()
			open = false
			mu.Unlock()
		}()

		onEvent := func(channel string, e notifications.Event) {
			mu.Lock()
			defer mu.Unlock()
			write(EventFrame{Type: FrameEvent, Channel: channel, Event: &e})
		}
		mu.Lock()
		err := notifications.NewNotifier(s.runtime.Redis).Subscribe(ctx, onEvent, channels...)
		if err != nil {
			middleware.Logger.Error("event stream subscribe failed", "user_id", uid, "error", err)
			write(EventFrame{Type: FrameError, Error: MsgEventsUnavailable})
			mu.Unlock()
			return
		}
		ok := write(EventFrame{Type: FrameSubscribed, Channels: channels})
		mu.Unlock()
		if !ok {
			return
		}
		middleware.Logger.Info("event stream opened", "user_id", uid, "channels", channels)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		middleware.Logger.Info("event stream closed", "user_id", uid)
	})
}
