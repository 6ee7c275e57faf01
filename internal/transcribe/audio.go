package transcribe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// extractAudio converts the input to 16kHz mono WAV, the format whisper.cpp expects.
func (t *implTranscriber) extractAudio(ctx context.Context, audioPath, workDir string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	wavPath := filepath.Join(workDir, stem+"_16k.wav")

	t.logger.Info(ctx, "Extracting 16kHz mono audio: %s", audioPath)

	// -vn drops cover art streams some podcast files carry.
	args := []string{
		"-i", audioPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-threads", "0",
		"-y",
		wavPath,
	}

	if _, err := t.executor.Execute(ctx, t.ffmpeg, args...); err != nil {
		return "", fmt.Errorf("ffmpeg extract audio: %w", err)
	}

	t.logger.Debug(ctx, "Audio extracted: %s", wavPath)
	return wavPath, nil
}
