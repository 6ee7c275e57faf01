package processor

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/transcript"
)

// Process runs the pipeline for an audio file dropped into the input folder.
// A transcript with the same stem next to it is used when present. Inputs are
// archived only after a successful run so a failed episode can be retried.
func (p *implProcessor) Process(ctx context.Context, audioPath string) error {
	sidecar := FindSidecar(audioPath)
	if sidecar != "" {
		p.logger.Info(ctx, "Using transcript %s", sidecar)
	}

	if _, err := p.Run(ctx, Job{AudioPath: audioPath, TranscriptPath: sidecar}); err != nil {
		return err
	}

	if err := p.moveToArchived(ctx, audioPath); err != nil {
		p.logger.Warn(ctx, "Failed to move audio to archived folder: %v", err)
	}
	if sidecar != "" {
		if err := p.moveToArchived(ctx, sidecar); err != nil {
			p.logger.Warn(ctx, "Failed to move transcript to archived folder: %v", err)
		}
	}
	return nil
}

// FindSidecar returns the transcript next to audioPath with the same stem.
// Extensions match case-insensitively; when several exist the first in
// transcript.SupportedExtensions order wins.
func FindSidecar(audioPath string) string {
	dir := filepath.Dir(audioPath)
	base := filepath.Base(audioPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	best, rank := "", len(transcript.SupportedExtensions)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == base || !transcript.IsSupported(name) {
			continue
		}
		ext := filepath.Ext(name)
		if strings.TrimSuffix(name, ext) != stem {
			continue
		}
		if r := slices.Index(transcript.SupportedExtensions, strings.ToLower(ext)); r < rank {
			best, rank = filepath.Join(dir, name), r
		}
	}
	return best
}
