package processor

import (
	"github.com/nguyentantai21042004/podcast-video-factory/internal/assembler"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/comfy"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/config"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/logger"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/metrics"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/prompter"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/store"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/transcribe"
)

// Dependencies are the collaborators of a run. Transcriber, Images and Store
// may be nil: runs then need a transcript, render placeholder images and
// never reuse images respectively.
type Dependencies struct {
	Transcriber transcribe.Transcriber
	Generator   prompter.Generator
	Images      comfy.Client
	Assembler   assembler.Assembler
	Store       *store.Store
	Metrics     *metrics.Metrics
}

type implProcessor struct {
	cfg    *config.Config
	deps   Dependencies
	logger logger.Logger
}

// New creates a new Processor instance
func New(cfg *config.Config, deps Dependencies, log logger.Logger) Processor {
	return &implProcessor{
		cfg:    cfg,
		deps:   deps,
		logger: log,
	}
}
