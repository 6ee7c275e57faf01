// Package prompter asks a language model for one image prompt, negative
// prompt and caption per segment.
package prompter

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/segmenter"
)

// ErrEmptyResponse is returned when the model answers without any usable content.
var ErrEmptyResponse = errors.New("empty response from language model")

// Result is the generated material for one segment.
type Result struct {
	SegmentIndex   int    `json:"segment_index"`
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	Caption        string `json:"caption"`
}

// Document is the prompts.json layout and the JSON shape the model must return.
type Document struct {
	Results []Result `json:"results"`
}

// Generator produces exactly one Result per segment, in segment order.
type Generator interface {
	Generate(ctx context.Context, segments []segmenter.Segment) ([]Result, error)
	Name() string
}

// completer sends one system+user exchange and returns the raw model text.
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
}
