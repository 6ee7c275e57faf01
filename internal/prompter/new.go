package prompter

import (
	"context"
	"net/http"
	"time"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/config"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/logger"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/metrics"
)

const defaultBackoff = time.Second

type implGenerator struct {
	provider      string
	client        completer
	retries       int
	backoff       time.Duration
	globalStyle   string
	negativeStyle string
	logger        logger.Logger
	metrics       *metrics.Metrics
}

// New picks the generator for cfg.Provider. Without API keys, or with
// provider "none", it returns the offline placeholder generator.
func New(cfg config.LLMConfig, log logger.Logger, m *metrics.Metrics) Generator {
	if cfg.Provider == config.ProviderNone || len(cfg.APIKeys) == 0 {
		log.Warn(context.Background(), "No language model configured, using placeholder prompts")
		return NewPlaceholder(cfg.NegativeStyle)
	}

	var client completer
	switch cfg.Provider {
	case config.ProviderOpenAI:
		client = &openAIClient{
			baseURL: cfg.BaseURL,
			apiKey:  cfg.APIKeys[0],
			model:   cfg.Model,
			http:    &http.Client{Timeout: 5 * time.Minute},
		}
	default:
		client = &geminiClient{
			apiKeys: cfg.APIKeys,
			model:   cfg.Model,
			baseURL: cfg.BaseURL,
			logger:  log,
		}
	}

	return &implGenerator{
		provider:      cfg.Provider,
		client:        client,
		retries:       cfg.Retries,
		backoff:       defaultBackoff,
		globalStyle:   cfg.GlobalStyle,
		negativeStyle: cfg.NegativeStyle,
		logger:        log,
		metrics:       m,
	}
}

func (g *implGenerator) Name() string {
	return g.provider
}
