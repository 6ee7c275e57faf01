// Package segmenter buckets timed transcript lines into fixed-length windows.
// Each window becomes one still image and one caption in the final video.
package segmenter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/podcast-video-factory/internal/transcript"
)

// MinSegmentMS is the shortest window the segmenter emits after the first one.
// A shorter trailing window is folded into the previous segment.
const MinSegmentMS = 3000

var (
	ErrUnsortedInput   = errors.New("transcript lines are not ordered by start time")
	ErrInvalidWindow   = errors.New("segment length must be positive")
	ErrInvalidMaxChars = errors.New("max chars must be positive")
)

// Segment is one fixed-length window of the recording with the text spoken in it.
// Index is the nominal bucket number (StartMS / window) and skips a value
// wherever a short tail was merged away.
type Segment struct {
	Index   int    `json:"index"`
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

// DurationMS returns the length of the segment.
func (s Segment) DurationMS() int64 {
	return s.EndMS - s.StartMS
}

// Split partitions lines into windows of segmentSeconds. The lines must be
// ordered by start time; the end of the last line is taken as the total
// duration. A line contributes its full text to every window it overlaps.
// Window text is cut to maxChars characters.
func Split(lines []transcript.Line, segmentSeconds, maxChars int) ([]Segment, error) {
	if segmentSeconds <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, segmentSeconds)
	}
	if maxChars <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxChars, maxChars)
	}
	if err := checkOrder(lines); err != nil {
		return nil, err
	}

	segments := []Segment{}
	if len(lines) == 0 {
		return segments, nil
	}

	total := lines[len(lines)-1].EndMS
	window := int64(segmentSeconds) * 1000

	for i := int64(0); i < total; i += window {
		start := i
		end := min(i+window, total)

		if end-start < MinSegmentMS && i > 0 {
			segments[len(segments)-1].EndMS = end
			continue
		}

		segments = append(segments, Segment{
			Index:   int(i / window),
			StartMS: start,
			EndMS:   end,
			Text:    truncate(collectText(lines, start, end), maxChars),
		})
	}

	return segments, nil
}

// collectText joins, in line order, the text of every line overlapping [start, end).
func collectText(lines []transcript.Line, start, end int64) string {
	var parts []string
	for _, line := range lines {
		if line.StartMS >= end || line.EndMS <= start {
			continue
		}
		if min(end, line.EndMS) > max(start, line.StartMS) {
			parts = append(parts, line.Text)
		}
	}
	return strings.Join(parts, " ")
}

// truncate cuts s to at most n characters. The cut is not word-aware.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func checkOrder(lines []transcript.Line) error {
	for i := 1; i < len(lines); i++ {
		if lines[i].StartMS < lines[i-1].StartMS {
			return fmt.Errorf("%w: line %d starts at %dms after line %d at %dms",
				ErrUnsortedInput, i, lines[i].StartMS, i-1, lines[i-1].StartMS)
		}
	}
	return nil
}
