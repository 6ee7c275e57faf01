package comfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

type queueRequest struct {
	Prompt   map[string]any `json:"prompt"`
	ClientID string         `json:"client_id"`
}

type queueResponse struct {
	PromptID   string         `json:"prompt_id"`
	NodeErrors map[string]any `json:"node_errors"`
}

type imageRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

type historyEntry struct {
	Outputs map[string]struct {
		Images []imageRef `json:"images"`
	} `json:"outputs"`
}

// Generate renders one image into destPath, retrying failed attempts.
func (c *implClient) Generate(ctx context.Context, req ImageRequest, destPath string) error {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<(attempt-1))
			c.logger.Warn(ctx, "Image %d attempt %d failed (%v), retrying in %s", req.Index, attempt, lastErr, wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.generateOnce(ctx, req, destPath)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("render image %d: %w", req.Index, lastErr)
}

func (c *implClient) generateOnce(ctx context.Context, req ImageRequest, destPath string) error {
	graph, err := Render(c.template, req, c.sampling)
	if err != nil {
		return err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// ComfyUI keeps one socket per client id and a newer connection replaces
	// the older one, so every render listens under its own id.
	clientID := uuid.NewString()

	// Subscribe before queueing so the completion event cannot be missed.
	events, err := c.dial(ctx, clientID)
	if err != nil {
		return err
	}
	defer events.Close()

	promptID, err := c.queue(ctx, graph, clientID)
	if err != nil {
		return err
	}
	c.logger.Debug(ctx, "Queued image %d as prompt %s", req.Index, promptID)

	if err := events.wait(ctx, promptID); err != nil {
		return err
	}

	ref, err := c.outputImage(ctx, promptID)
	if err != nil {
		return err
	}
	return c.download(ctx, ref, destPath)
}

func (c *implClient) queue(ctx context.Context, graph map[string]any, clientID string) (string, error) {
	body, err := json.Marshal(queueRequest{Prompt: graph, ClientID: clientID})
	if err != nil {
		return "", fmt.Errorf("encode prompt: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, "/prompt", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("queue prompt: %w", err)
	}

	var resp queueResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode queue response: %w", err)
	}
	if len(resp.NodeErrors) > 0 {
		return "", fmt.Errorf("%w: node errors: %v", ErrExecution, resp.NodeErrors)
	}
	if resp.PromptID == "" {
		return "", fmt.Errorf("queue prompt: no prompt_id in response")
	}
	return resp.PromptID, nil
}

// outputImage returns the first image of the finished prompt, taking output
// nodes in id order.
func (c *implClient) outputImage(ctx context.Context, promptID string) (imageRef, error) {
	data, err := c.do(ctx, http.MethodGet, "/history/"+url.PathEscape(promptID), nil)
	if err != nil {
		return imageRef{}, fmt.Errorf("fetch history: %w", err)
	}

	var history map[string]historyEntry
	if err := json.Unmarshal(data, &history); err != nil {
		return imageRef{}, fmt.Errorf("decode history: %w", err)
	}
	entry, ok := history[promptID]
	if !ok {
		return imageRef{}, fmt.Errorf("prompt %s missing from history", promptID)
	}

	nodes := make([]string, 0, len(entry.Outputs))
	for id := range entry.Outputs {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)
	for _, id := range nodes {
		if images := entry.Outputs[id].Images; len(images) > 0 {
			return images[0], nil
		}
	}
	return imageRef{}, fmt.Errorf("%w: prompt %s produced no images", ErrExecution, promptID)
}

func (c *implClient) download(ctx context.Context, ref imageRef, destPath string) error {
	q := url.Values{}
	q.Set("filename", ref.Filename)
	q.Set("subfolder", ref.Subfolder)
	q.Set("type", ref.Type)

	data, err := c.do(ctx, http.MethodGet, "/view?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("download image: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	tmp := destPath + ".part"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	if err := os.Rename(tmp, destPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("move image: %w", err)
	}
	return nil
}

// Ping checks that the server answers /system_stats.
func (c *implClient) Ping(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodGet, "/system_stats", nil); err != nil {
		return fmt.Errorf("comfy unavailable at %s: %w", c.baseURL, err)
	}
	return nil
}

func (c *implClient) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	return data, nil
}
