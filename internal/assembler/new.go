package assembler

import (
	"github.com/nguyentantai21042004/podcast-video-factory/internal/config"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/logger"
	"github.com/nguyentantai21042004/podcast-video-factory/pkg/executor"
)

type implAssembler struct {
	ffmpeg   config.FFmpegConfig
	width    int
	height   int
	executor executor.Executor
	logger   logger.Logger
}

// New creates an Assembler producing width x height video.
func New(cfg config.FFmpegConfig, width, height int, exec executor.Executor, log logger.Logger) Assembler {
	return &implAssembler{
		ffmpeg:   cfg,
		width:    width,
		height:   height,
		executor: exec,
		logger:   log,
	}
}
