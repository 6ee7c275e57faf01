package processor

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/assembler"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/comfy"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/config"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/logger"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/metrics"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/prompter"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/segmenter"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/store"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/transcript"
)

const episodeSRT = `1
00:00:00,000 --> 00:00:10,000
Rivers carve canyons over millions of years.

2
00:00:10,000 --> 00:00:20,000
Deltas spread where they meet the sea.

3
00:00:20,000 --> 00:00:26,000
Thanks for listening.
`

const testWorkflow = `{"3":{"class_type":"KSampler","inputs":{"seed":"$SEED","steps":"$STEPS","sampler_name":"$SAMPLER_NAME","positive":"$POSITIVE_PROMPT"}}}`

type fakeImages struct {
	mu       sync.Mutex
	calls    []comfy.ImageRequest
	fail     map[int]bool
	pingErr  error
	sampling comfy.Sampling
}

func (f *fakeImages) Fingerprint(req comfy.ImageRequest) (string, error) {
	return comfy.Fingerprint([]byte(testWorkflow), req, f.sampling)
}

func (f *fakeImages) Generate(_ context.Context, req comfy.ImageRequest, dest string) error {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.fail[req.Index] {
		return errors.New("CUDA out of memory")
	}
	return os.WriteFile(dest, []byte("rendered"), 0644)
}

func (f *fakeImages) Ping(context.Context) error { return f.pingErr }

func (f *fakeImages) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeAssembler struct {
	jobs []assembler.Job
	err  error
}

func (f *fakeAssembler) Assemble(_ context.Context, job assembler.Job) (string, error) {
	f.jobs = append(f.jobs, job)
	if f.err != nil {
		return "", f.err
	}
	out := filepath.Join(job.RunDir, job.OutputFile)
	return out, os.WriteFile(out, []byte("mp4"), 0644)
}

type countingGenerator struct {
	prompter.Generator
	calls int
}

func (c *countingGenerator) Generate(ctx context.Context, segments []segmenter.Segment) ([]prompter.Result, error) {
	c.calls++
	return c.Generator.Generate(ctx, segments)
}

type fakeTranscriber struct {
	lines []transcript.Line
	calls int
}

func (f *fakeTranscriber) Transcribe(context.Context, string, string) ([]transcript.Line, error) {
	f.calls++
	return f.lines, nil
}

type fixture struct {
	cfg       *config.Config
	dir       string
	audio     string
	srt       string
	images    *fakeImages
	assembler *fakeAssembler
	generator *countingGenerator
	store     *store.Store
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Paths.Input = filepath.Join(dir, "input")
	cfg.Paths.Output = filepath.Join(dir, "output")
	cfg.Paths.Archived = filepath.Join(dir, "archived")
	cfg.Paths.Temp = filepath.Join(dir, "temp")
	cfg.Comfy.Width, cfg.Comfy.Height = 64, 36
	cfg.Storyboard.Enabled = true
	require.NoError(t, os.MkdirAll(cfg.Paths.Input, 0755))

	audio := filepath.Join(cfg.Paths.Input, "episode-7.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("ID3"), 0644))
	srt := filepath.Join(dir, "episode-7.srt")
	require.NoError(t, os.WriteFile(srt, []byte(episodeSRT), 0644))

	st, err := store.Open(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return &fixture{
		cfg:       cfg,
		dir:       dir,
		audio:     audio,
		srt:       srt,
		images:    &fakeImages{sampling: comfy.Sampling{Steps: 30, CFG: 6.5, Sampler: "euler", Scheduler: "normal"}},
		assembler: &fakeAssembler{},
		generator: &countingGenerator{Generator: prompter.NewPlaceholder("blurry")},
		store:     st,
		metrics:   metrics.New(),
	}
}

func (f *fixture) processor(transcriber *fakeTranscriber) Processor {
	deps := Dependencies{
		Generator: f.generator,
		Images:    f.images,
		Assembler: f.assembler,
		Store:     f.store,
		Metrics:   f.metrics,
	}
	if transcriber != nil {
		deps.Transcriber = transcriber
	}
	return New(f.cfg, deps, logger.Nop())
}

func TestRun(t *testing.T) {
	f := newFixture(t)

	res, err := f.processor(nil).Run(context.Background(), Job{AudioPath: f.audio, TranscriptPath: f.srt})
	require.NoError(t, err)

	runDir := filepath.Join(f.cfg.Paths.Output, "episode-7")
	assert.Equal(t, Result{Slug: "episode-7", RunDir: runDir, VideoPath: filepath.Join(runDir, VideoFile), Segments: 2}, res)

	for _, name := range []string{SegmentsFile, PromptsFile, CaptionsFile, StoryboardFile, VideoFile, MetricsFile, "images/seg_000.png", "images/seg_001.png"} {
		assert.FileExists(t, filepath.Join(runDir, name))
	}

	segments, err := segmenter.ReadJSON(filepath.Join(runDir, SegmentsFile))
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, int64(26000), segments[1].EndMS)

	require.Len(t, f.assembler.jobs, 1)
	job := f.assembler.jobs[0]
	assert.Equal(t, []string{filepath.Join("images", "seg_000.png"), filepath.Join("images", "seg_001.png")}, job.Images)
	assert.Equal(t, CaptionsFile, job.CaptionsFile)
	assert.Equal(t, f.audio, job.AudioPath)

	assert.Equal(t, 2, f.images.count())
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.ImagesTotal.WithLabelValues(metrics.ImageRendered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RunsTotal.WithLabelValues("success")))

	run, err := f.store.LatestRun(context.Background(), "episode-7")
	require.NoError(t, err)
	assert.Equal(t, store.StatusDone, run.Status)
}

func TestRunSeedsFollowSegmentIndex(t *testing.T) {
	f := newFixture(t)
	f.cfg.Comfy.Seed = 1000

	_, err := f.processor(nil).Run(context.Background(), Job{AudioPath: f.audio, TranscriptPath: f.srt})
	require.NoError(t, err)

	seeds := map[int]int64{}
	for _, c := range f.images.calls {
		seeds[c.Index] = c.Seed
	}
	assert.Equal(t, map[int]int64{0: 1000, 1: 1001}, seeds)
}

func TestRunReusesPromptsAndImages(t *testing.T) {
	f := newFixture(t)
	p := f.processor(nil)
	job := Job{AudioPath: f.audio, TranscriptPath: f.srt}

	_, err := p.Run(context.Background(), job)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, 1, f.generator.calls)
	assert.Equal(t, 2, f.images.count())
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.ImagesTotal.WithLabelValues(metrics.ImageReused)))

	job.Force = true
	_, err = p.Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 2, f.generator.calls)
	assert.Equal(t, 4, f.images.count())
}

func TestRunRerendersAfterSamplerChange(t *testing.T) {
	f := newFixture(t)
	job := Job{AudioPath: f.audio, TranscriptPath: f.srt}

	_, err := f.processor(nil).Run(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, 2, f.images.count())

	f.images.sampling.Steps = 40
	_, err = f.processor(nil).Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 4, f.images.count())
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.ImagesTotal.WithLabelValues(metrics.ImageReused)))
}

func TestRunRegeneratesPromptsForNewWindow(t *testing.T) {
	f := newFixture(t)
	job := Job{AudioPath: f.audio, TranscriptPath: f.srt}

	_, err := f.processor(nil).Run(context.Background(), job)
	require.NoError(t, err)

	f.cfg.Segmentation.Seconds = 5
	res, err := f.processor(nil).Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Segments)
	assert.Equal(t, 2, f.generator.calls)
}

func TestRunImageFailureUsesPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.images.fail = map[int]bool{1: true}

	res, err := f.processor(nil).Run(context.Background(), Job{AudioPath: f.audio, TranscriptPath: f.srt})
	require.NoError(t, err)

	placeholder, err := os.Open(filepath.Join(res.RunDir, "images", "seg_001.png"))
	require.NoError(t, err)
	defer placeholder.Close()
	cfg, err := png.DecodeConfig(placeholder)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ImagesTotal.WithLabelValues(metrics.ImagePlaceholder)))

	img, err := f.store.Image(context.Background(), "episode-7", 1)
	require.NoError(t, err)
	assert.Nil(t, img, "placeholders must not be reused")
}

func TestRunBackendDown(t *testing.T) {
	f := newFixture(t)
	f.images.pingErr = errors.New("connection refused")

	_, err := f.processor(nil).Run(context.Background(), Job{AudioPath: f.audio, TranscriptPath: f.srt})
	require.NoError(t, err)
	assert.Equal(t, 0, f.images.count())
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.ImagesTotal.WithLabelValues(metrics.ImagePlaceholder)))
}

func TestRunTranscribesWithoutTranscript(t *testing.T) {
	f := newFixture(t)
	tr := &fakeTranscriber{lines: []transcript.Line{{StartMS: 0, EndMS: 4000, Text: "hello"}}}

	res, err := f.processor(tr).Run(context.Background(), Job{AudioPath: f.audio})
	require.NoError(t, err)
	assert.Equal(t, 1, tr.calls)
	assert.Equal(t, 1, res.Segments)
	assert.NoDirExists(t, filepath.Join(f.cfg.Paths.Temp, "episode-7"))
}

func TestRunErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.processor(nil).Run(context.Background(), Job{AudioPath: f.audio})
	assert.True(t, errors.Is(err, ErrNoTranscriber))

	_, err = f.processor(&fakeTranscriber{}).Run(context.Background(), Job{AudioPath: f.audio})
	assert.True(t, errors.Is(err, ErrEmptyTranscript))

	_, err = f.processor(nil).Run(context.Background(), Job{AudioPath: filepath.Join(f.dir, "missing.mp3"), TranscriptPath: f.srt})
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(f.dir, "notes.docx")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0644))
	_, err = f.processor(nil).Run(context.Background(), Job{AudioPath: f.audio, TranscriptPath: bad})
	assert.True(t, errors.Is(err, transcript.ErrUnsupportedFormat))

	f.assembler.err = errors.New("ffmpeg missing")
	_, err = f.processor(nil).Run(context.Background(), Job{AudioPath: f.audio, TranscriptPath: f.srt})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assemble: ffmpeg missing")

	run, err := f.store.LatestRun(context.Background(), "episode-7")
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, run.Status)
	assert.Contains(t, run.Error, "ffmpeg missing")
}

func TestRunReportsPreviousFailure(t *testing.T) {
	f := newFixture(t)
	job := Job{AudioPath: f.audio, TranscriptPath: f.srt}

	f.assembler.err = errors.New("ffmpeg missing")
	_, err := f.processor(nil).Run(context.Background(), job)
	require.Error(t, err)

	var buf bytes.Buffer
	f.assembler.err = nil
	p := New(f.cfg, Dependencies{
		Generator: f.generator,
		Images:    f.images,
		Assembler: f.assembler,
		Store:     f.store,
		Metrics:   f.metrics,
	}, logger.NewWithWriter(logger.Config{Level: "info"}, &buf))
	_, err = p.Run(context.Background(), job)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "failed: assemble: ffmpeg missing")
}

func TestProcessArchivesInputs(t *testing.T) {
	f := newFixture(t)
	sidecar := filepath.Join(f.cfg.Paths.Input, "episode-7.srt")
	require.NoError(t, os.Rename(f.srt, sidecar))

	require.NoError(t, f.processor(nil).Process(context.Background(), f.audio))

	assert.NoFileExists(t, f.audio)
	assert.NoFileExists(t, sidecar)
	assert.FileExists(t, filepath.Join(f.cfg.Paths.Archived, "episode-7.mp3"))
	assert.FileExists(t, filepath.Join(f.cfg.Paths.Archived, "episode-7.srt"))
}

func TestProcessKeepsInputsOnFailure(t *testing.T) {
	f := newFixture(t)
	f.assembler.err = errors.New("disk full")
	sidecar := filepath.Join(f.cfg.Paths.Input, "episode-7.srt")
	require.NoError(t, os.Rename(f.srt, sidecar))

	require.Error(t, f.processor(nil).Process(context.Background(), f.audio))
	assert.FileExists(t, f.audio)
	assert.FileExists(t, sidecar)
}

func TestFindSidecar(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "show.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("ID3"), 0644))
	touch := func(name string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	assert.Equal(t, "", FindSidecar(audio))

	touch("show.docx")
	touch("show-notes.srt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "show.vtt"), 0755))
	assert.Equal(t, "", FindSidecar(audio))

	touch("show.txt")
	assert.Equal(t, filepath.Join(dir, "show.txt"), FindSidecar(audio))

	touch("show.Srt")
	assert.Equal(t, filepath.Join(dir, "show.Srt"), FindSidecar(audio))

	assert.Equal(t, "", FindSidecar(filepath.Join(dir, "missing", "show.mp3")))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "episode 12", Slug("/pods/episode 12.m4a"))
	assert.Equal(t, "archive.tar", Slug("archive.tar.gz"))
}
