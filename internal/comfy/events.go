package comfy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

type eventStream struct {
	conn *websocket.Conn
}

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type executingData struct {
	Node     *string `json:"node"`
	PromptID string  `json:"prompt_id"`
}

type executionErrorData struct {
	PromptID         string `json:"prompt_id"`
	NodeID           string `json:"node_id"`
	NodeType         string `json:"node_type"`
	ExceptionMessage string `json:"exception_message"`
}

// dial opens the progress WebSocket for clientID.
func (c *implClient) dial(ctx context.Context, clientID string) (*eventStream, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws?clientId=" + url.QueryEscape(clientID)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("connect websocket: %w", err)
	}
	return &eventStream{conn: conn}, nil
}

func (s *eventStream) Close() error {
	return s.conn.Close()
}

// wait blocks until ComfyUI reports that promptID finished executing.
// Binary frames carry preview images and are skipped.
func (s *eventStream) wait(ctx context.Context, promptID string) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close()
		case <-done:
		}
	}()

	for {
		kind, payload, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("wait for prompt %s: %w", promptID, ctx.Err())
			}
			return fmt.Errorf("read websocket: %w", err)
		}
		if kind != websocket.TextMessage {
			continue
		}

		var msg wsMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "executing":
			var data executingData
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				continue
			}
			if data.PromptID == promptID && data.Node == nil {
				return nil
			}
		case "execution_success":
			var data executingData
			if err := json.Unmarshal(msg.Data, &data); err == nil && data.PromptID == promptID {
				return nil
			}
		case "execution_error":
			var data executionErrorData
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				return fmt.Errorf("%w: undecodable error event", ErrExecution)
			}
			if data.PromptID == promptID {
				return fmt.Errorf("%w: node %s (%s): %s", ErrExecution, data.NodeID, data.NodeType, data.ExceptionMessage)
			}
		}
	}
}
