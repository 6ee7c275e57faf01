package processor

import "context"

// Job is one request to turn a podcast episode into a video.
type Job struct {
	AudioPath      string
	TranscriptPath string // optional; the audio is transcribed when empty
	Force          bool   // ignore reusable prompts and images
}

// Result describes a finished run.
type Result struct {
	Slug      string
	RunDir    string
	VideoPath string
	Segments  int
}

// Processor defines the interface for episode processing operations
type Processor interface {
	Run(ctx context.Context, job Job) (Result, error)
	// Process is the watch-mode handler: it finds a sidecar transcript,
	// runs the pipeline and archives the inputs.
	Process(ctx context.Context, audioPath string) error
}
