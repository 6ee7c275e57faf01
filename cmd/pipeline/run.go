package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/config"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/processor"
)

// runOptions are the command line overrides of a single run. Zero values
// leave the configuration untouched.
type runOptions struct {
	audio      string
	transcript string
	out        string
	segSec     int
	width      int
	height     int
	fps        int
	bitrate    string
	style      string
	force      bool
}

func (o runOptions) apply(cfg *config.Config) error {
	if o.segSec < 0 || o.width < 0 || o.height < 0 || o.fps < 0 {
		return errors.New("numeric overrides must be positive")
	}
	if o.out != "" {
		cfg.Paths.Output = o.out
	}
	if o.segSec != 0 {
		cfg.Segmentation.Seconds = o.segSec
	}
	if o.width != 0 {
		cfg.Comfy.Width = o.width
	}
	if o.height != 0 {
		cfg.Comfy.Height = o.height
	}
	if o.fps != 0 {
		cfg.FFmpeg.FPS = o.fps
	}
	if o.bitrate != "" {
		cfg.FFmpeg.VideoBitrate = o.bitrate
	}
	if o.style != "" {
		cfg.LLM.GlobalStyle = o.style
	}
	return cfg.Validate()
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	c := &cobra.Command{
		Use:   "run",
		Short: "Render one episode into a video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := opts.apply(cfg); err != nil {
				return fmt.Errorf("flags: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := newLogger(cfg)
			logBanner(ctx, log, cfg, "Podcast Video Factory")

			if err := ensureDirectories(cfg); err != nil {
				return err
			}
			svc, err := buildServices(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.processor.Run(ctx, processor.Job{
				AudioPath:      opts.audio,
				TranscriptPath: opts.transcript,
				Force:          opts.force,
			})
			if err != nil {
				if errors.Is(err, context.Canceled) {
					log.Warn(ctx, "Run cancelled")
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.VideoPath)
			return nil
		},
	}

	c.Flags().StringVar(&opts.audio, "audio", "", "Path to audio file")
	c.Flags().StringVar(&opts.transcript, "transcript", "", "Path to transcript file (.srt, .vtt, .json, .txt)")
	c.Flags().StringVar(&opts.transcript, "srt", "", "Alias of --transcript")
	c.Flags().StringVar(&opts.out, "out", "", "Output directory root")
	c.Flags().IntVar(&opts.segSec, "seg-sec", 0, "Segment length in seconds")
	c.Flags().IntVar(&opts.width, "width", 0, "Video and image width")
	c.Flags().IntVar(&opts.height, "height", 0, "Video and image height")
	c.Flags().IntVar(&opts.fps, "fps", 0, "Video frame rate")
	c.Flags().StringVar(&opts.bitrate, "bitrate", "", "Video bitrate, e.g. 10M")
	c.Flags().StringVar(&opts.style, "style", "", "Global image style appended to every prompt")
	c.Flags().BoolVar(&opts.force, "force", false, "Regenerate prompts and images even when cached")
	c.MarkFlagRequired("audio")
	c.Flags().MarkHidden("srt")
	c.MarkFlagsMutuallyExclusive("transcript", "srt")

	return c
}
