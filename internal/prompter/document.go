package prompter

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteDocument stores results as prompts.json.
func WriteDocument(path string, results []Result) error {
	if results == nil {
		results = []Result{}
	}
	data, err := json.MarshalIndent(Document{Results: results}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prompts: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write prompts: %w", err)
	}
	return nil
}

// ReadDocument loads a prompts.json written by WriteDocument.
func ReadDocument(path string) ([]Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode prompts: %w", err)
	}
	return doc.Results, nil
}

// Covers reports whether results hold exactly one entry per segment index.
// A stale prompts.json from a run with a different window size does not.
func Covers(results []Result, indexes []int) bool {
	if len(results) != len(indexes) {
		return false
	}
	for i, idx := range indexes {
		if results[i].SegmentIndex != idx {
			return false
		}
	}
	return true
}
