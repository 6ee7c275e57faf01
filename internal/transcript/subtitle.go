package transcript

import (
	"fmt"
	"os"
	"strings"
)

// ParseSubtitle reads an SRT or WebVTT file. Each cue block becomes one Line;
// multi-line cue text is collapsed to single spaces.
func ParseSubtitle(path string) ([]Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	lines, err := parseSubtitle(string(data))
	if err != nil {
		return nil, withPath(path, err)
	}
	return lines, nil
}

func parseSubtitle(content string) ([]Line, error) {
	rows := splitRows(content)

	var (
		lines      []Line
		block      []string
		blockStart int
	)
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		line, ok, err := parseCue(block, blockStart)
		block = block[:0]
		if err != nil {
			return err
		}
		if ok {
			lines = append(lines, line)
		}
		return nil
	}

	for i, row := range rows {
		row = strings.TrimSpace(row)
		if row == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if len(block) == 0 {
			blockStart = i + 1
		}
		block = append(block, row)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return lines, nil
}

// parseCue turns one blank-line separated block into a Line. ok is false for
// WebVTT metadata blocks, which carry no speech.
func parseCue(block []string, lineNo int) (Line, bool, error) {
	if isVTTMetadata(block[0]) {
		return Line{}, false, nil
	}

	// The time range is the first row, or the second after a sequence number / cue id.
	arrow := -1
	for i := 0; i < len(block) && i < 2; i++ {
		if strings.Contains(block[i], "-->") {
			arrow = i
			break
		}
	}
	if arrow < 0 {
		return Line{}, false, atLine(lineNo, fmt.Errorf("%w: cue has no time range", ErrMalformedTimestamp))
	}

	timeRow := lineNo + arrow
	parts := strings.SplitN(block[arrow], "-->", 2)
	endFields := strings.Fields(parts[1])
	if len(endFields) == 0 {
		return Line{}, false, atLine(timeRow, fmt.Errorf("%w: missing end time", ErrMalformedTimestamp))
	}

	start, err := parseSubtitleTime(parts[0])
	if err != nil {
		return Line{}, false, atLine(timeRow, err)
	}
	end, err := parseSubtitleTime(endFields[0])
	if err != nil {
		return Line{}, false, atLine(timeRow, err)
	}
	if end <= start {
		return Line{}, false, atLine(timeRow, fmt.Errorf("%w: end not after start", ErrMalformedTimestamp))
	}

	text := strings.TrimSpace(strings.Join(block[arrow+1:], " "))
	return Line{StartMS: start, EndMS: end, Text: text}, true, nil
}

func isVTTMetadata(first string) bool {
	for _, prefix := range []string{"WEBVTT", "NOTE", "STYLE", "REGION"} {
		if strings.HasPrefix(first, prefix) {
			return true
		}
	}
	return false
}

func splitRows(content string) []string {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.Split(content, "\n")
}
