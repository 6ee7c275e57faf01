// Package storyboard writes a DOCX review sheet listing, per segment, the
// transcript text next to the generated caption and image prompts.
package storyboard

import (
	"fmt"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/prompter"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/segmenter"
)

const (
	fontName = "Times New Roman"
	fontSize = 13
)

// Write saves the storyboard for one run to outputPath.
func Write(outputPath, title string, segments []segmenter.Segment, results []prompter.Result) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	addStyledRun(doc.AddParagraph(""), title, true, 16)
	addStyledRun(doc.AddParagraph(""), fmt.Sprintf("%d segments", len(segments)), false, fontSize)

	byIndex := make(map[int]prompter.Result, len(results))
	for _, r := range results {
		byIndex[r.SegmentIndex] = r
	}

	for _, seg := range segments {
		doc.AddParagraph("")
		heading := fmt.Sprintf("Segment %d · %s-%s", seg.Index, clock(seg.StartMS), clock(seg.EndMS))
		addStyledRun(doc.AddParagraph(""), heading, true, 14)

		r, ok := byIndex[seg.Index]
		if ok {
			addLabeled(doc.AddParagraph(""), "Caption", r.Caption)
			addLabeled(doc.AddParagraph(""), "Prompt", r.Prompt)
			addLabeled(doc.AddParagraph(""), "Negative", r.NegativePrompt)
		}
		addLabeled(doc.AddParagraph(""), "Transcript", seg.Text)
	}

	if err := doc.SaveTo(outputPath); err != nil {
		return fmt.Errorf("save storyboard: %w", err)
	}
	return nil
}

// clock renders milliseconds as mm:ss, or h:mm:ss past the hour.
func clock(ms int64) string {
	s := ms / 1000
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, s/60%60, s%60)
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

func addLabeled(p *docx.Paragraph, label, text string) {
	p.AddText(label+": ").Font(fontName).Size(fontSize).Color("000000").Bold(true)
	text = strings.TrimSpace(text)
	if text == "" {
		text = "-"
	}
	p.AddText(text).Font(fontName).Size(fontSize).Color("000000")
}
