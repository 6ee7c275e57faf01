package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// timedRecord uses pointers so a missing field can be told apart from a zero value.
type timedRecord struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Text  *string  `json:"text"`
}

// ParseTimedJSON reads a JSON array of {start, end, text} records with times in
// seconds. An object with a "segments" array (whisper verbose_json, whisperX) is
// accepted as well.
func ParseTimedJSON(path string) ([]Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	lines, err := parseTimedJSON(data)
	if err != nil {
		return nil, withPath(path, err)
	}
	return lines, nil
}

func parseTimedJSON(data []byte) ([]Line, error) {
	records, err := decodeRecords(data)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(records))
	for i, r := range records {
		where := fmt.Sprintf("record %d", i)
		if r.Start == nil || r.End == nil || r.Text == nil {
			return nil, &ParseError{Where: where, Err: fmt.Errorf("%w: start, end and text are required", ErrMalformedRecord)}
		}

		// Truncation toward zero, matching how the ASR tools round.
		start := int64(*r.Start * 1000)
		end := int64(*r.End * 1000)
		if start < 0 || end <= start {
			return nil, &ParseError{Where: where, Err: fmt.Errorf("%w: start=%v end=%v", ErrMalformedTimestamp, *r.Start, *r.End)}
		}

		lines = append(lines, Line{
			StartMS: start,
			EndMS:   end,
			Text:    strings.TrimSpace(*r.Text),
		})
	}
	return lines, nil
}

func decodeRecords(data []byte) ([]timedRecord, error) {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '{' {
		var payload struct {
			Segments []timedRecord `json:"segments"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, &ParseError{Err: fmt.Errorf("%w: %v", ErrMalformedRecord, err)}
		}
		if payload.Segments == nil {
			return nil, &ParseError{Err: fmt.Errorf("%w: object has no segments array", ErrMalformedRecord)}
		}
		return payload.Segments, nil
	}

	var records []timedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("%w: %v", ErrMalformedRecord, err)}
	}
	return records, nil
}
