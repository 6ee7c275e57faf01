package transcript

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// SupportedExtensions lists the transcript file extensions Load understands.
var SupportedExtensions = []string{".srt", ".vtt", ".json", ".txt"}

// Load parses a transcript, picking the parser from the file extension, and
// returns its lines ordered by start time. Labeled blocks can overlap the
// synthetic timing of the previous block, so the result is stable-sorted once here.
func Load(path string) ([]Line, error) {
	parse, err := parserFor(path)
	if err != nil {
		return nil, err
	}

	lines, err := parse(path)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].StartMS < lines[j].StartMS
	})
	return lines, nil
}

// IsSupported reports whether Load can parse a file with this path's extension.
func IsSupported(path string) bool {
	_, err := parserFor(path)
	return err == nil
}

func parserFor(path string) (func(string) ([]Line, error), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseTimedJSON, nil
	case ".txt":
		return ParseLabeledText, nil
	case ".srt", ".vtt":
		return ParseSubtitle, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
