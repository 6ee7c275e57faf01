package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Render every audio file dropped into the input folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			log := newLogger(cfg)
			logBanner(ctx, log, cfg, "Podcast Video Factory (watch mode)")

			if err := ensureDirectories(cfg); err != nil {
				return err
			}
			svc, err := buildServices(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer svc.Close()

			// Create watcher with processor as handler and concurrency control
			w, err := watcher.New(cfg.Paths.Input, svc.processor.Process, log, watcher.Options{
				MaxConcurrent: cfg.Performance.MaxConcurrent,
				SettleDelay:   watcher.DefaultSettleDelay,
			})
			if err != nil {
				return err
			}
			defer w.Stop()

			// Setup graceful shutdown
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			errChan := make(chan error, 1)
			go func() {
				errChan <- w.Start(ctx)
			}()

			log.Info(ctx, "========================================")
			log.Info(ctx, "Pipeline is ready!")
			log.Info(ctx, "Monitoring: %s", cfg.Paths.Input)
			log.Info(ctx, "Output: %s", cfg.Paths.Output)
			log.Info(ctx, "Press Ctrl+C to stop")
			log.Info(ctx, "========================================")

			// Wait for shutdown signal or error
			select {
			case <-sigChan:
				log.Info(ctx, "Shutdown signal received")
			case err := <-errChan:
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Error(ctx, "Watcher error: %v", err)
					return err
				}
				return nil
			}

			// Graceful shutdown
			log.Info(ctx, "Shutting down gracefully...")
			cancel()
			<-errChan

			log.Info(ctx, "Pipeline stopped")
			return nil
		},
	}
}
