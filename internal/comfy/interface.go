// Package comfy renders still images through a ComfyUI server.
package comfy

import (
	"context"
	"errors"
)

// ErrExecution is returned when ComfyUI reports an error while running a prompt.
var ErrExecution = errors.New("comfy execution failed")

// ImageRequest describes one image to render.
type ImageRequest struct {
	Prompt   string
	Negative string
	Seed     int64
	Width    int
	Height   int
	Index    int
}

// Client renders images and checks backend availability.
type Client interface {
	Generate(ctx context.Context, req ImageRequest, destPath string) error
	Ping(ctx context.Context) error
	// Fingerprint identifies everything that shapes the image for req:
	// the request, the sampler settings and the workflow template.
	Fingerprint(req ImageRequest) (string, error)
}
