package assembler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeConcatList writes an ffmpeg concat demuxer script showing each image
// for its segment's duration. Entries are relative to the list's directory.
// The last file is listed twice: the demuxer ignores the final duration otherwise.
func writeConcatList(listPath string, job Job) error {
	if len(job.Images) != len(job.Segments) {
		return fmt.Errorf("have %d images for %d segments", len(job.Images), len(job.Segments))
	}
	if len(job.Images) == 0 {
		return fmt.Errorf("no images to assemble")
	}

	listDir := filepath.Dir(listPath)
	var b strings.Builder
	var last string
	for i, img := range job.Images {
		rel, err := filepath.Rel(listDir, filepath.Join(job.RunDir, img))
		if err != nil {
			return fmt.Errorf("resolve image %s: %w", img, err)
		}
		last = quote(filepath.ToSlash(rel))
		seconds := float64(job.Segments[i].DurationMS()) / 1000
		fmt.Fprintf(&b, "file %s\nduration %.3f\n", last, seconds)
	}
	fmt.Fprintf(&b, "file %s\n", last)

	if err := os.WriteFile(listPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}

// quote wraps a path in single quotes using the concat demuxer escaping rules.
func quote(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}
