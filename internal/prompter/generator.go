package prompter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/segmenter"
)

const systemPromptTemplate = `You are generating stable-diffusion prompts for video segments.
Rules:
- Incorporate the provided GLOBAL_STYLE into each prompt: "%s"
- Never include text/typography in the image. Avoid words, logos, watermarks.
- Negative prompt must discourage blur, artifacts, and unwanted text: "%s"
- Caption must be 6-12 words, human-hook style, not copied transcript.
Return strict JSON with the shape:
{"results": [{"segment_index": <int>, "prompt": "<positive prompt>", "negative_prompt": "<negative or global default>", "caption": "<short hook>"}, ...]}`

// Generate asks the model for prompts, retrying with exponential backoff.
func (g *implGenerator) Generate(ctx context.Context, segments []segmenter.Segment) ([]Result, error) {
	if len(segments) == 0 {
		return []Result{}, nil
	}

	system := fmt.Sprintf(systemPromptTemplate, g.globalStyle, g.negativeStyle)
	user := userPrompt(segments)

	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		if attempt > 0 {
			wait := g.backoff * time.Duration(1<<(attempt-1))
			g.logger.Warn(ctx, "Prompt generation attempt %d failed (%v), retrying in %s", attempt, lastErr, wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		raw, err := g.client.complete(ctx, system, user)
		if err == nil {
			var doc Document
			doc, err = decodeDocument(raw)
			if err == nil {
				g.metrics.RecordLLMRequest(g.provider, true)
				return g.normalize(ctx, segments, doc.Results), nil
			}
		}
		g.metrics.RecordLLMRequest(g.provider, false)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, fmt.Errorf("generate prompts after %d attempts: %w", g.retries+1, lastErr)
}

func userPrompt(segments []segmenter.Segment) string {
	var b strings.Builder
	b.WriteString("Segments:\n")
	for i, s := range segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d: %s", s.Index, s.Text)
	}
	return b.String()
}

// decodeDocument parses the model answer. Models sometimes wrap JSON in a
// markdown fence even in JSON mode.
func decodeDocument(raw string) (Document, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Document{}, ErrEmptyResponse
	}

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Document{}, fmt.Errorf("decode model response: %w", err)
	}
	if len(doc.Results) == 0 {
		return Document{}, ErrEmptyResponse
	}
	return doc, nil
}

// normalize returns one result per segment in segment order. Results are
// matched by segment_index; missing negative prompts fall back to the
// configured negative style and missing segments get a placeholder.
func (g *implGenerator) normalize(ctx context.Context, segments []segmenter.Segment, results []Result) []Result {
	byIndex := make(map[int]Result, len(results))
	for _, r := range results {
		if _, dup := byIndex[r.SegmentIndex]; !dup {
			byIndex[r.SegmentIndex] = r
		}
	}

	out := make([]Result, 0, len(segments))
	for _, s := range segments {
		r, ok := byIndex[s.Index]
		if !ok || strings.TrimSpace(r.Prompt) == "" {
			g.logger.Warn(ctx, "No prompt returned for segment %d, using placeholder", s.Index)
			out = append(out, placeholderResult(s.Index, g.negativeStyle))
			continue
		}
		r.Prompt = strings.TrimSpace(r.Prompt)
		r.Caption = strings.TrimSpace(r.Caption)
		if strings.TrimSpace(r.NegativePrompt) == "" {
			r.NegativePrompt = g.negativeStyle
		}
		out = append(out, r)
	}
	return out
}
