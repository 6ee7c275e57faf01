package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/segmenter"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/transcript"
)

func newSegmentCmd() *cobra.Command {
	var (
		transcriptPath string
		segSec         int
		maxChars       int
		out            string
	)

	c := &cobra.Command{
		Use:   "segment",
		Short: "Split a transcript into segments and print them as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seg-sec") {
				segSec = cfg.Segmentation.Seconds
			}
			if !cmd.Flags().Changed("max-chars") {
				maxChars = cfg.Segmentation.MaxChars
			}

			lines, err := transcript.Load(transcriptPath)
			if err != nil {
				return err
			}
			segments, err := segmenter.Split(lines, segSec, maxChars)
			if err != nil {
				return err
			}

			if out != "" {
				if err := segmenter.WriteJSON(out, segments); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d segments to %s\n", len(segments), out)
				return nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(segments)
		},
	}

	c.Flags().StringVar(&transcriptPath, "transcript", "", "Path to transcript file (.srt, .vtt, .json, .txt)")
	c.Flags().IntVar(&segSec, "seg-sec", 0, "Segment length in seconds (default from config)")
	c.Flags().IntVar(&maxChars, "max-chars", 0, "Maximum characters of text per segment (default from config)")
	c.Flags().StringVar(&out, "out", "", "Write segments.json here instead of stdout")
	c.MarkFlagRequired("transcript")

	return c
}
