package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// WSEvent is one platform event off the websocket feed.
type WSEvent struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
	Seq   int64          `json:"seq"`
}

type wsAuthChallenge struct {
	Seq    int64          `json:"seq"`
	Action string         `json:"action"`
	Data   map[string]any `json:"data"`
}

const wsReconnectWait = 3 * time.Second

// Listen consumes the event feed until ctx is done, invoking handle for
// every event. Connection drops reconnect with a fixed pause; handler
// panics are not recovered (handlers own their failure modes).
func (c *Client) Listen(ctx context.Context, logger *slog.Logger, handle func(WSEvent)) error {
	if logger == nil {
		logger = slog.Default()
	}
	if handle == nil {
		return fmt.Errorf("platform listen: nil handler")
	}

	endpoint := websocketURL(c.baseURL)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.listenOnce(ctx, endpoint, handle); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("ws_disconnected", "error", err.Error())
		}
		if err := sleepWithContext(ctx, wsReconnectWait); err != nil {
			return err
		}
		logger.Info("ws_reconnecting", "endpoint", endpoint)
	}
}

func (c *Client) listenOnce(ctx context.Context, endpoint string, handle func(WSEvent)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("ws dial %s: %w", endpoint, err)
	}
	defer conn.Close()

	challenge := wsAuthChallenge{
		Seq:    1,
		Action: "authentication_challenge",
		Data:   map[string]any{"token": c.token},
	}
	if err := conn.WriteJSON(challenge); err != nil {
		return fmt.Errorf("ws auth: %w", err)
	}

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var ev WSEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Event == "" {
			// Auth replies and pings arrive on the same stream; skip them.
			continue
		}
		handle(ev)
	}
}

func websocketURL(baseURL string) string {
	endpoint := baseURL + apiPrefix + "/websocket"
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	default:
		return endpoint
	}
}
