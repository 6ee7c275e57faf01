package prompter

import (
	"context"
	"fmt"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/segmenter"
)

type placeholderGenerator struct {
	negativeStyle string
}

// NewPlaceholder returns a Generator that needs no model and produces
// deterministic prompts. It keeps the pipeline usable offline.
func NewPlaceholder(negativeStyle string) Generator {
	return &placeholderGenerator{negativeStyle: negativeStyle}
}

func (p *placeholderGenerator) Generate(_ context.Context, segments []segmenter.Segment) ([]Result, error) {
	out := make([]Result, 0, len(segments))
	for _, s := range segments {
		out = append(out, placeholderResult(s.Index, p.negativeStyle))
	}
	return out, nil
}

func (p *placeholderGenerator) Name() string {
	return "none"
}

func placeholderResult(index int, negative string) Result {
	return Result{
		SegmentIndex:   index,
		Prompt:         fmt.Sprintf("dummy prompt for segment %d", index),
		NegativePrompt: negative,
		Caption:        fmt.Sprintf("Segment %d", index),
	}
}
