package segmenter

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteJSON stores segments as the JSON array consumed by the prompt and
// caption stages: [{"index", "start_ms", "end_ms", "text"}, ...].
func WriteJSON(path string, segments []Segment) error {
	if segments == nil {
		segments = []Segment{}
	}
	data, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write segments: %w", err)
	}
	return nil
}

// ReadJSON loads segments written by WriteJSON.
func ReadJSON(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read segments: %w", err)
	}
	var segments []Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}
	return segments, nil
}
