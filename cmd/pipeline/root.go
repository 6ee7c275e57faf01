package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/assembler"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/comfy"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/config"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/logger"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/metrics"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/processor"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/prompter"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/store"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/transcribe"
	"github.com/nguyentantai21042004/podcast-video-factory/pkg/executor"
)

const defaultConfigPath = "config.yaml"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pvf",
		Short:         "Podcast Video Factory",
		Long:          "Turns a podcast episode into a captioned slideshow video: transcript, prompts, images, captions, ffmpeg.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", defaultConfigPath, "Path to the YAML config file")

	root.AddCommand(newRunCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newSegmentCmd())
	return root
}

// loadConfig reads --config. Only the default path may be missing, in which
// case built-in defaults are used.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.LoadOrDefault(path, !cmd.Flags().Changed("config"))
}

func newLogger(cfg *config.Config) logger.Logger {
	return logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}

// services holds everything a run needs and owns the resources to release.
type services struct {
	processor processor.Processor
	store     *store.Store
}

func (s *services) Close() {
	if s.store != nil {
		s.store.Close()
	}
}

func buildServices(ctx context.Context, cfg *config.Config, log logger.Logger) (*services, error) {
	m := metrics.New()
	exec := executor.New(m)

	images, err := comfy.New(cfg.Comfy, log)
	if err != nil {
		return nil, fmt.Errorf("comfy: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Paths.StateDB), 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	st, err := store.Open(cfg.Paths.StateDB)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	deps := processor.Dependencies{
		Generator: prompter.New(cfg.LLM, log, m),
		Images:    images,
		Assembler: assembler.New(cfg.FFmpeg, cfg.Comfy.Width, cfg.Comfy.Height, exec, log),
		Store:     st,
		Metrics:   m,
	}
	if cfg.Whisper.BinaryPath != "" {
		deps.Transcriber = transcribe.New(cfg, exec, log)
	} else {
		log.Debug(ctx, "Whisper not configured, runs need a transcript file")
	}

	return &services{processor: processor.New(cfg, deps, log), store: st}, nil
}

func logBanner(ctx context.Context, log logger.Logger, cfg *config.Config, title string) {
	log.Info(ctx, "========================================")
	log.Info(ctx, "%s", title)
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s", runtime.GOOS, runtime.GOARCH)
	log.Info(ctx, "LLM: %s (%s)", cfg.LLM.Provider, cfg.LLM.Model)
	log.Info(ctx, "ComfyUI: %s", cfg.Comfy.ComfyURL())
	log.Info(ctx, "Video: %dx%d @ %d fps, %s %s", cfg.Comfy.Width, cfg.Comfy.Height, cfg.FFmpeg.FPS, cfg.FFmpeg.Encoder, cfg.FFmpeg.VideoBitrate)
	log.Info(ctx, "Segments: %ds, Max Concurrent Images: %d", cfg.Segmentation.Seconds, cfg.Performance.MaxConcurrent)
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Input,
		cfg.Paths.Output,
		cfg.Paths.Archived,
		cfg.Paths.Temp,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
