package transcribe

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/transcript"
)

// ErrNotConfigured is returned when no whisper binary or model is configured.
var ErrNotConfigured = errors.New("whisper is not configured")

// Transcriber turns an audio file into timed transcript lines.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, workDir string) ([]transcript.Line, error)
}
