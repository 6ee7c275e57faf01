package comfy

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/config"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/logger"
)

type implClient struct {
	baseURL  string
	template []byte
	sampling Sampling
	timeout  time.Duration
	retries  int
	backoff  time.Duration
	http     *http.Client
	logger   logger.Logger
}

// New creates a Client for the server in cfg. The workflow template is read
// from cfg.Workflow, or the embedded default when empty.
func New(cfg config.ComfyConfig, log logger.Logger) (Client, error) {
	template := defaultWorkflow
	if cfg.Workflow != "" {
		data, err := os.ReadFile(cfg.Workflow)
		if err != nil {
			return nil, fmt.Errorf("read workflow: %w", err)
		}
		template = data
	}
	if _, err := Render(template, ImageRequest{}, Sampling{}); err != nil {
		return nil, fmt.Errorf("workflow %s: %w", cfg.Workflow, err)
	}

	return &implClient{
		baseURL:  cfg.ComfyURL(),
		template: template,
		sampling: Sampling{
			Steps:     cfg.Steps,
			CFG:       cfg.CFG,
			Sampler:   cfg.Sampler,
			Scheduler: cfg.Scheduler,
		},
		timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		retries: cfg.Retries,
		backoff: time.Second,
		http:    &http.Client{Timeout: 2 * time.Minute},
		logger:  log,
	}, nil
}
