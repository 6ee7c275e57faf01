package transcript

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// A block header looks like "[SPEAKER_01] - 00:01:02.345", optionally followed
// by the first line of speech. Only a clock-shaped time makes a header, so a
// line such as "[Music] - 5 seconds of applause" stays body text.
var reLabelHeader = regexp.MustCompile(`^\[([^\]]+)\]\s*-\s*(\d{1,2}:\d{2}:\d{2}[.,]\d+)(?:\s+(.*))?$`)

// syntheticLineMS is the duration given to every body line of a labeled block.
// The format only timestamps the block, so per-line timing is an approximation
// and does not reflect real speech timing.
const syntheticLineMS = 3000

// ParseLabeledText reads speaker-labeled text: repeated "[LABEL] - HH:MM:SS.mmm"
// headers, each followed by lines of speech. Line k of a block spans
// [start+3000k, start+3000(k+1)). Text before the first header is ignored.
func ParseLabeledText(path string) ([]Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	lines, err := parseLabeledText(string(data))
	if err != nil {
		return nil, withPath(path, err)
	}
	return lines, nil
}

func parseLabeledText(content string) ([]Line, error) {
	var (
		lines   []Line
		inBlock bool
		start   int64
		k       int64
	)

	for i, raw := range splitRows(content) {
		row := strings.TrimSpace(raw)

		if m := reLabelHeader.FindStringSubmatch(row); m != nil {
			ms, err := parseLabeledTime(m[2])
			if err != nil {
				return nil, atLine(i+1, err)
			}
			inBlock, start, k = true, ms, 0
			row = strings.TrimSpace(m[3])
		}

		if !inBlock || row == "" {
			continue
		}

		lines = append(lines, Line{
			StartMS: start + k*syntheticLineMS,
			EndMS:   start + (k+1)*syntheticLineMS,
			Text:    row,
		})
		k++
	}

	return lines, nil
}
