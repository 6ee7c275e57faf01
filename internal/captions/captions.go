// Package captions writes the styled ASS subtitle track burned into the video.
package captions

import (
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/config"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/prompter"
	"github.com/nguyentantai21042004/podcast-video-factory/internal/segmenter"
)

// Caption case modes.
const (
	CaseTitle    = "title"
	CaseSentence = "sentence"
	CaseNone     = "none"
)

type Style struct {
	Font     string
	FontSize int
	Margin   int
	Stroke   int
	BgAlpha  float64 // background box opacity, 0 disables the box
	Case     string
	MaxChars int
	Width    int
	Height   int
}

// StyleFromConfig builds a Style for a video of width x height.
func StyleFromConfig(c config.CaptionsConfig, width, height int) Style {
	return Style{
		Font:     c.Font,
		FontSize: c.FontSize,
		Margin:   c.Margin,
		Stroke:   c.Stroke,
		BgAlpha:  c.BgAlpha,
		Case:     c.Case,
		MaxChars: c.MaxChars,
		Width:    width,
		Height:   height,
	}
}

// Build renders the ASS script: one Dialogue event per segment, spanning the
// segment's time range. Captions are looked up by segment index and fall back
// to the result at the same position.
func Build(segments []segmenter.Segment, results []prompter.Result, style Style) string {
	var b strings.Builder
	b.WriteString(header(style))

	byIndex := make(map[int]string, len(results))
	for _, r := range results {
		if _, ok := byIndex[r.SegmentIndex]; !ok {
			byIndex[r.SegmentIndex] = r.Caption
		}
	}

	for i, seg := range segments {
		caption, ok := byIndex[seg.Index]
		if !ok && i < len(results) {
			caption = results[i].Caption
		}
		caption = FormatCaption(caption, style.MaxChars, style.Case)

		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			FormatTime(seg.StartMS), FormatTime(seg.EndMS), caption)
	}
	return b.String()
}

// Write builds the script and stores it at path.
func Write(path string, segments []segmenter.Segment, results []prompter.Result, style Style) error {
	if err := os.WriteFile(path, []byte(Build(segments, results, style)), 0644); err != nil {
		return fmt.Errorf("write captions: %w", err)
	}
	return nil
}

func header(s Style) string {
	borderStyle := 1
	boxColour := "&H00000000"
	if s.BgAlpha > 0 {
		// ASS alpha is transparency: 00 opaque, FF invisible.
		alpha := int(math.Round((1 - s.BgAlpha) * 255))
		borderStyle = 3
		boxColour = fmt.Sprintf("&H%02X000000", alpha)
	}

	return fmt.Sprintf(`[Script Info]
ScriptType: v4.00+
Collisions: Normal
PlayResX: %d
PlayResY: %d
WrapStyle: 0
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,%s,%d,&H00FFFFFF,&H00FFFFFF,%s,%s,-1,0,0,0,100,100,0,0,%d,%d,0,2,%d,%d,%d,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`, s.Width, s.Height, s.Font, s.FontSize, boxColour, boxColour, borderStyle, s.Stroke, s.Margin, s.Margin, s.Margin)
}

// FormatTime renders milliseconds as ASS H:MM:SS.cc.
func FormatTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	cs := ms / 10
	h := cs / 360000
	m := cs / 6000 % 60
	s := cs / 100 % 60
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs%100)
}

// FormatCaption trims, cuts to maxChars characters, applies the case mode and
// escapes ASS override syntax.
func FormatCaption(text string, maxChars int, mode string) string {
	text = strings.Join(strings.Fields(text), " ")
	if maxChars > 0 {
		if runes := []rune(text); len(runes) > maxChars {
			text = strings.TrimSpace(string(runes[:maxChars]))
		}
	}

	switch mode {
	case CaseTitle:
		text = cases.Title(language.Und).String(text)
	case CaseSentence:
		text = sentenceCase(text)
	}

	return escape(text)
}

func sentenceCase(s string) string {
	s = cases.Lower(language.Und).String(s)
	for i, r := range s {
		if unicode.IsLetter(r) {
			first := string(r)
			return s[:i] + cases.Upper(language.Und).String(first) + s[i+len(first):]
		}
	}
	return s
}

// escape drops characters that start ASS override tags or escapes.
func escape(s string) string {
	return strings.NewReplacer("{", "", "}", "", `\`, "").Replace(s)
}
