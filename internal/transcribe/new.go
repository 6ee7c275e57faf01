package transcribe

import (
	"github.com/nguyentantai21042004/podcast-video-factory/internal/config"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/logger"
	"github.com/nguyentantai21042004/podcast-video-factory/pkg/executor"
)

type implTranscriber struct {
	whisper  config.WhisperConfig
	ffmpeg   string
	executor executor.Executor
	logger   logger.Logger
}

// New creates a Transcriber driving ffmpeg and the whisper.cpp CLI.
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) Transcriber {
	return &implTranscriber{
		whisper:  cfg.Whisper,
		ffmpeg:   cfg.FFmpeg.Binary,
		executor: exec,
		logger:   log,
	}
}
