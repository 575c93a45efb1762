package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/nearbite/internal/adapters/nats"
	"github.com/samirrijal/nearbite/internal/core/usecases"
	"github.com/samirrijal/nearbite/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to a session feed.
type wsMessage struct {
	Action    string `json:"action"`     // "subscribe" | "unsubscribe"
	SessionID string `json:"session_id"` // session whose result batches to relay
}

// WebSocketHandler returns a handler that relays the result batches of
// search sessions to a connected map surface. Each batch holds only places
// the session had not sent before.
// Clients send JSON: {"action":"subscribe","session_id":"..."}; a
// ?session=<id> query parameter subscribes on connect.
func WebSocketHandler(nc *nats.Conn, explore *usecases.ExploreService) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		logger := slog.Default().With("remote_addr", remoteAddr)
		logger.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // session ID -> subscription

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		if nc == nil {
			_ = writeJSON(map[string]string{"error": "live results unavailable"})
			return
		}

		subscribe := func(sessionID string) {
			if _, exists := subs[sessionID]; exists {
				_ = writeJSON(map[string]string{"status": "already subscribed", "session_id": sessionID})
				return
			}
			if _, err := explore.Get(sessionID); err != nil {
				_ = writeJSON(map[string]string{"error": err.Error()})
				return
			}
			s, err := nc.Subscribe(natsadapter.ResultsSubject(sessionID), func(msg *nats.Msg) {
				_ = writeJSON(json.RawMessage(msg.Data))
			})
			if err != nil {
				_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
				return
			}
			subs[sessionID] = s
			_ = writeJSON(map[string]string{"status": "subscribed", "session_id": sessionID})
		}

		if id := c.Query("session"); id != "" {
			subscribe(id)
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Read client messages for subscribe/unsubscribe
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if m.SessionID == "" {
				_ = writeJSON(map[string]string{"error": "session_id is required"})
				continue
			}

			switch m.Action {
			case "subscribe":
				subscribe(m.SessionID)

			case "unsubscribe":
				if s, exists := subs[m.SessionID]; exists {
					_ = s.Unsubscribe()
					delete(subs, m.SessionID)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "session_id": m.SessionID})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + m.SessionID})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		logger.Info("ws client disconnected")
	}
}
