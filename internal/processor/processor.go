package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/assembler"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/captions"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/logger"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/prompter"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/segmenter"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/store"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/storyboard"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/transcript"
)

// Run artifact names inside <output>/<slug>/.
const (
	SegmentsFile   = "segments.json"
	PromptsFile    = "prompts.json"
	ImagesDir      = "images"
	CaptionsFile   = "captions.ass"
	StoryboardFile = "storyboard.docx"
	VideoFile      = "final.mp4"
	MetricsFile    = "metrics.prom"
)

var (
	ErrEmptyTranscript = errors.New("transcript has no lines")
	ErrNoTranscriber   = errors.New("no transcript given and transcription is not available")
)

// Slug names the run directory after the audio file stem.
func Slug(audioPath string) string {
	base := filepath.Base(audioPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Run orchestrates the entire episode pipeline
func (p *implProcessor) Run(ctx context.Context, job Job) (_ Result, err error) {
	startTime := time.Now()
	slug := Slug(job.AudioPath)
	runDir := filepath.Join(p.cfg.Paths.Output, slug)
	ctx = logger.WithRun(ctx, slug)

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Starting episode: %s", job.AudioPath)
	p.logger.Info(ctx, "========================================")

	if _, err := os.Stat(job.AudioPath); err != nil {
		return Result{}, fmt.Errorf("audio: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(runDir, ImagesDir), 0755); err != nil {
		return Result{}, fmt.Errorf("create run dir: %w", err)
	}

	if p.deps.Store != nil {
		p.logPreviousRun(ctx, slug)
		runID, serr := p.deps.Store.StartRun(ctx, slug, job.AudioPath)
		if serr != nil {
			p.logger.Warn(ctx, "Failed to record run start: %v", serr)
		} else {
			defer func() {
				if ferr := p.deps.Store.FinishRun(context.WithoutCancel(ctx), runID, err); ferr != nil {
					p.logger.Warn(ctx, "Failed to record run result: %v", ferr)
				}
			}()
		}
	}
	defer func() {
		p.deps.Metrics.RecordRun(err == nil)
		if werr := p.deps.Metrics.WriteTextfile(filepath.Join(runDir, MetricsFile)); werr != nil {
			p.logger.Warn(ctx, "Failed to write metrics: %v", werr)
		}
	}()

	// Step 1: Transcript
	lines, err := timed(p, ctx, "transcript", func() ([]transcript.Line, error) {
		return p.loadTranscript(ctx, job, slug)
	})
	if err != nil {
		return Result{}, fmt.Errorf("transcript: %w", err)
	}
	if len(lines) == 0 {
		return Result{}, ErrEmptyTranscript
	}

	// Step 2: Segment
	segments, err := timed(p, ctx, "segment", func() ([]segmenter.Segment, error) {
		segments, err := segmenter.Split(lines, p.cfg.Segmentation.Seconds, p.cfg.Segmentation.MaxChars)
		if err != nil {
			return nil, err
		}
		return segments, segmenter.WriteJSON(filepath.Join(runDir, SegmentsFile), segments)
	})
	if err != nil {
		return Result{}, fmt.Errorf("segment: %w", err)
	}
	if len(segments) == 0 {
		return Result{}, ErrEmptyTranscript
	}
	p.deps.Metrics.AddSegments(len(segments))
	p.logger.Info(ctx, "Segmented %d lines into %d segments of %ds", len(lines), len(segments), p.cfg.Segmentation.Seconds)

	// Step 3: Prompts
	results, err := timed(p, ctx, "prompts", func() ([]prompter.Result, error) {
		return p.prompts(ctx, runDir, segments, job.Force)
	})
	if err != nil {
		return Result{}, fmt.Errorf("prompts: %w", err)
	}

	// Step 4: Images
	images, err := timed(p, ctx, "images", func() ([]string, error) {
		return p.renderImages(ctx, slug, runDir, segments, results, job.Force)
	})
	if err != nil {
		return Result{}, fmt.Errorf("images: %w", err)
	}

	// Step 5: Captions
	_, err = timed(p, ctx, "captions", func() (struct{}, error) {
		style := captions.StyleFromConfig(p.cfg.Captions, p.cfg.Comfy.Width, p.cfg.Comfy.Height)
		return struct{}{}, captions.Write(filepath.Join(runDir, CaptionsFile), segments, results, style)
	})
	if err != nil {
		return Result{}, fmt.Errorf("captions: %w", err)
	}

	// Step 6: Storyboard (optional, never fatal)
	if p.cfg.Storyboard.Enabled {
		if serr := storyboard.Write(filepath.Join(runDir, StoryboardFile), slug, segments, results); serr != nil {
			p.logger.Warn(ctx, "Failed to write storyboard: %v", serr)
		}
	}

	// Step 7: Assemble
	videoPath, err := timed(p, ctx, "assemble", func() (string, error) {
		return p.deps.Assembler.Assemble(ctx, assembler.Job{
			RunDir:       runDir,
			AudioPath:    job.AudioPath,
			Segments:     segments,
			Images:       images,
			CaptionsFile: CaptionsFile,
			OutputFile:   VideoFile,
		})
	})
	if err != nil {
		return Result{}, fmt.Errorf("assemble: %w", err)
	}

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Episode completed successfully!")
	p.logger.Info(ctx, "Output video: %s", videoPath)
	p.logger.Info(ctx, "Processing time: %s", time.Since(startTime).Round(time.Millisecond))
	p.logger.Info(ctx, "========================================")

	return Result{Slug: slug, RunDir: runDir, VideoPath: videoPath, Segments: len(segments)}, nil
}

// logPreviousRun reports an earlier failed or interrupted run of the same
// episode, whose cached prompts and images this run picks up.
func (p *implProcessor) logPreviousRun(ctx context.Context, slug string) {
	prev, err := p.deps.Store.LatestRun(ctx, slug)
	if err != nil {
		p.logger.Warn(ctx, "Failed to look up previous run: %v", err)
		return
	}
	if prev == nil {
		return
	}
	switch prev.Status {
	case store.StatusFailed:
		p.logger.Warn(ctx, "Previous run started at %s failed: %s", prev.StartedAt.Format(time.RFC3339), prev.Error)
	case store.StatusRunning:
		p.logger.Warn(ctx, "Previous run started at %s did not finish", prev.StartedAt.Format(time.RFC3339))
	default:
		p.logger.Debug(ctx, "Previous run started at %s succeeded", prev.StartedAt.Format(time.RFC3339))
	}
}

// timed runs one pipeline stage and records its duration.
func timed[T any](p *implProcessor, ctx context.Context, stage string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	p.deps.Metrics.ObserveStage(stage, time.Since(start))
	if err == nil {
		p.logger.Debug(ctx, "Stage %s took %s", stage, time.Since(start).Round(time.Millisecond))
	}
	return v, err
}

func (p *implProcessor) loadTranscript(ctx context.Context, job Job, slug string) ([]transcript.Line, error) {
	if job.TranscriptPath != "" {
		p.logger.Info(ctx, "Parsing transcript: %s", job.TranscriptPath)
		return transcript.Load(job.TranscriptPath)
	}
	if p.deps.Transcriber == nil {
		return nil, ErrNoTranscriber
	}
	workDir := filepath.Join(p.cfg.Paths.Temp, slug)
	defer p.cleanupTempDir(ctx, workDir)
	return p.deps.Transcriber.Transcribe(ctx, job.AudioPath, workDir)
}

// prompts reuses prompts.json when allowed and it matches the segments,
// otherwise asks the generator and stores the answer.
func (p *implProcessor) prompts(ctx context.Context, runDir string, segments []segmenter.Segment, force bool) ([]prompter.Result, error) {
	path := filepath.Join(runDir, PromptsFile)

	indexes := make([]int, len(segments))
	for i, s := range segments {
		indexes[i] = s.Index
	}

	if p.cfg.Behaviour.AllowReuse && !force {
		if results, err := prompter.ReadDocument(path); err == nil {
			if prompter.Covers(results, indexes) {
				p.logger.Info(ctx, "Reusing prompts from %s", path)
				return results, nil
			}
			p.logger.Info(ctx, "Existing %s does not match the segments, regenerating", PromptsFile)
		}
	}

	p.logger.Info(ctx, "Generating prompts with %s for %d segments", p.deps.Generator.Name(), len(segments))
	results, err := p.deps.Generator.Generate(ctx, segments)
	if err != nil {
		return nil, err
	}
	if err := prompter.WriteDocument(path, results); err != nil {
		return nil, err
	}
	return results, nil
}
