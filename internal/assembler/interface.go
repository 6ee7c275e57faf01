// Package assembler muxes segment stills, the episode audio and the caption
// track into the final MP4 with ffmpeg.
package assembler

import (
	"context"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/segmenter"
)

// Job describes one video to assemble. Paths inside RunDir are given
// relative to it; AudioPath may be anywhere.
type Job struct {
	RunDir       string
	AudioPath    string
	Segments     []segmenter.Segment
	Images       []string // one per segment, relative to RunDir
	CaptionsFile string   // relative to RunDir
	OutputFile   string   // relative to RunDir
}

type Assembler interface {
	Assemble(ctx context.Context, job Job) (string, error)
}
