package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/transcript"
)

// Transcribe extracts audio, runs whisper.cpp with SRT output and parses the result.
// Intermediate files are written to workDir and removed afterwards.
func (t *implTranscriber) Transcribe(ctx context.Context, audioPath, workDir string) ([]transcript.Line, error) {
	if t.whisper.BinaryPath == "" || t.whisper.ModelPath == "" {
		return nil, ErrNotConfigured
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	startTime := time.Now()

	wavPath, err := t.extractAudio(ctx, audioPath, workDir)
	if err != nil {
		return nil, err
	}
	defer t.cleanupTempFile(ctx, wavPath)

	srtPath, err := t.runWhisper(ctx, wavPath)
	if err != nil {
		return nil, err
	}
	defer t.cleanupTempFile(ctx, srtPath)

	lines, err := transcript.ParseSubtitle(srtPath)
	if err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	t.logger.Info(ctx, "Transcription completed: %d lines in %s", len(lines), time.Since(startTime).Round(time.Millisecond))
	return lines, nil
}

// runWhisper invokes whisper.cpp and returns the path of the SRT it wrote.
func (t *implTranscriber) runWhisper(ctx context.Context, wavPath string) (string, error) {
	// whisper.cpp appends .srt to the output prefix
	outputPrefix := strings.TrimSuffix(wavPath, filepath.Ext(wavPath))

	t.logger.Info(ctx, "Starting transcription with %d threads: %s", t.whisper.Threads, wavPath)

	args := []string{
		"-m", t.whisper.ModelPath,
		"-f", wavPath,
		"-osrt",
		"-l", t.whisper.Language,
		"-t", strconv.Itoa(t.whisper.Threads),
		"--output-file", outputPrefix,
	}
	if t.whisper.Prompt != "" {
		args = append(args, "--prompt", t.whisper.Prompt)
	}

	if _, err := t.executor.Execute(ctx, t.whisper.BinaryPath, args...); err != nil {
		return "", fmt.Errorf("whisper transcribe: %w", err)
	}

	return outputPrefix + ".srt", nil
}

// cleanupTempFile removes a temporary file, logs warning if fails
func (t *implTranscriber) cleanupTempFile(ctx context.Context, filePath string) {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		t.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", filePath, err)
	}
}
