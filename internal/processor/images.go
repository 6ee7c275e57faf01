package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/comfy"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/metrics"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/prompter"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/segmenter"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/store"
)

// ImageName is the file name of the still shown for the segment at position.
func ImageName(position int) string {
	return fmt.Sprintf("seg_%03d.png", position)
}

// renderImages produces one still per segment and returns their paths
// relative to runDir. At most performance.max_concurrent renders run at once.
// An image that fails to render is replaced by a placeholder.
func (p *implProcessor) renderImages(ctx context.Context, slug, runDir string, segments []segmenter.Segment, results []prompter.Result, force bool) ([]string, error) {
	if len(results) != len(segments) {
		return nil, fmt.Errorf("have %d prompt results for %d segments", len(results), len(segments))
	}

	backend := p.deps.Images
	if backend != nil {
		if err := backend.Ping(ctx); err != nil {
			p.logger.Warn(ctx, "Image backend unavailable, using placeholders: %v", err)
			backend = nil
		}
	}

	paths := make([]string, len(segments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Performance.MaxConcurrent)

	for i, seg := range segments {
		rel := filepath.Join(ImagesDir, ImageName(i))
		paths[i] = rel
		r := results[i]

		g.Go(func() error {
			return p.renderImage(gctx, backend, slug, filepath.Join(runDir, rel), i, seg, r, force)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (p *implProcessor) renderImage(ctx context.Context, backend comfy.Client, slug, dest string, position int, seg segmenter.Segment, r prompter.Result, force bool) error {
	req := comfy.ImageRequest{
		Prompt:   r.Prompt,
		Negative: r.NegativePrompt,
		Seed:     p.cfg.Comfy.Seed + int64(seg.Index),
		Width:    p.cfg.Comfy.Width,
		Height:   p.cfg.Comfy.Height,
		Index:    seg.Index,
	}
	hash := p.fingerprint(ctx, req)

	if p.canReuse(ctx, slug, position, hash, dest, force) {
		p.deps.Metrics.RecordImage(metrics.ImageReused)
		p.logger.Debug(ctx, "Reusing image for segment %d", seg.Index)
		return nil
	}

	if backend != nil {
		err := backend.Generate(ctx, req, dest)
		if err == nil {
			p.deps.Metrics.RecordImage(metrics.ImageRendered)
			p.logger.Info(ctx, "Generated image for segment %d", seg.Index)
			p.recordImage(ctx, slug, position, hash, dest)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn(ctx, "Image for segment %d failed, using placeholder: %v", seg.Index, err)
	}

	if err := comfy.WritePlaceholder(dest, req.Width, req.Height, seg.Index); err != nil {
		return fmt.Errorf("segment %d: %w", seg.Index, err)
	}
	p.deps.Metrics.RecordImage(metrics.ImagePlaceholder)
	p.forgetImage(ctx, slug, position)
	return nil
}

// fingerprint returns the render fingerprint of req, or "" when it cannot be
// computed, which disables reuse for that image.
func (p *implProcessor) fingerprint(ctx context.Context, req comfy.ImageRequest) string {
	if p.deps.Images == nil {
		return ""
	}
	hash, err := p.deps.Images.Fingerprint(req)
	if err != nil {
		p.logger.Warn(ctx, "Failed to fingerprint image %d: %v", req.Index, err)
		return ""
	}
	return hash
}

// canReuse reports whether dest already holds the image for these exact render inputs.
func (p *implProcessor) canReuse(ctx context.Context, slug string, position int, hash, dest string, force bool) bool {
	if force || hash == "" || !p.cfg.Behaviour.AllowReuse || p.deps.Store == nil {
		return false
	}
	img, err := p.deps.Store.Image(ctx, slug, position)
	if err != nil {
		p.logger.Warn(ctx, "Failed to look up image %d: %v", position, err)
		return false
	}
	if img == nil || img.PromptHash != hash {
		return false
	}
	_, err = os.Stat(dest)
	return err == nil
}

func (p *implProcessor) recordImage(ctx context.Context, slug string, position int, hash, dest string) {
	if p.deps.Store == nil || hash == "" {
		return
	}
	if err := p.deps.Store.PutImage(ctx, store.Image{Slug: slug, Position: position, PromptHash: hash, Path: dest}); err != nil {
		p.logger.Warn(ctx, "Failed to record image %d: %v", position, err)
	}
}

// forgetImage drops the ledger entry so a placeholder is never reused.
func (p *implProcessor) forgetImage(ctx context.Context, slug string, position int) {
	if p.deps.Store == nil {
		return
	}
	if err := p.deps.Store.DeleteImage(ctx, slug, position); err != nil {
		p.logger.Warn(ctx, "Failed to forget image %d: %v", position, err)
	}
}
