package transcript

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// HH:MM:SS,mmm for SRT; WebVTT uses '.' and may drop the hours.
	reSubtitleTime = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{2})[,.](\d{3})$`)
	reLabeledTime  = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})\.(\d{3})$`)
)

// parseSubtitleTime converts a subtitle cue timestamp to milliseconds.
func parseSubtitleTime(s string) (int64, error) {
	m := reSubtitleTime.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
	}
	return clockMillis(s, m[1], m[2], m[3], m[4])
}

// parseLabeledTime converts the HH:MM:SS.mmm header time of a labeled block to milliseconds.
func parseLabeledTime(s string) (int64, error) {
	m := reLabeledTime.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
	}
	return clockMillis(s, m[1], m[2], m[3], m[4])
}

func clockMillis(raw, hh, mm, ss, mmm string) (int64, error) {
	var parts [4]int64
	for i, field := range []string{hh, mm, ss, mmm} {
		if field == "" {
			continue
		}
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
		}
		parts[i] = v
	}
	h, m, s, ms := parts[0], parts[1], parts[2], parts[3]
	if m >= 60 || s >= 60 {
		return 0, fmt.Errorf("%w: %q out of range", ErrMalformedTimestamp, raw)
	}
	return ((h*60+m)*60+s)*1000 + ms, nil
}
