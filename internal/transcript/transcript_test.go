package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseSubtitle(t *testing.T) {
	path := writeFile(t, "episode.srt",
		"1\n00:00:00,000 --> 00:00:05,000\nHello\n\n2\n00:00:05,000 --> 00:00:10,000\nWorld\n")

	lines, err := ParseSubtitle(path)
	require.NoError(t, err)
	assert.Equal(t, []Line{
		{StartMS: 0, EndMS: 5000, Text: "Hello"},
		{StartMS: 5000, EndMS: 10000, Text: "World"},
	}, lines)
}

func TestParseSubtitle_OneLinePerBlock(t *testing.T) {
	content := "1\r\n00:00:01,250 --> 00:00:03,000\r\nfirst row\r\n  second row  \r\n\r\n" +
		"2\n01:02:03,004 --> 01:02:05,000\nthird\nfourth\nfifth\n\n\n" +
		"3\n01:02:05,000 --> 01:02:06,000\n\n"
	lines, err := parseSubtitle(content)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, Line{StartMS: 1250, EndMS: 3000, Text: "first row second row"}, lines[0])
	assert.Equal(t, int64(3723004), lines[1].StartMS)
	assert.Equal(t, "third fourth fifth", lines[1].Text)
	assert.Equal(t, "", lines[2].Text)
	for _, l := range lines {
		assert.NotContains(t, l.Text, "\n")
	}
}

func TestParseSubtitle_WebVTT(t *testing.T) {
	content := "WEBVTT\n\nNOTE produced by whisper\n\n00:01.000 --> 00:04.500 align:start position:10%\nHi\n\n" +
		"cue-2\n00:00:05.000 --> 00:00:06.000\nBye\n"
	lines, err := parseSubtitle(content)
	require.NoError(t, err)
	assert.Equal(t, []Line{
		{StartMS: 1000, EndMS: 4500, Text: "Hi"},
		{StartMS: 5000, EndMS: 6000, Text: "Bye"},
	}, lines)
}

func TestParseSubtitle_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		where   string
	}{
		{"bad clock", "1\n00:00:xx,000 --> 00:00:05,000\nHello\n", "line 2"},
		{"no time range", "1\n00:00:00,000 --> 00:00:01,000\nok\n\n2\nHello\n", "line 5"},
		{"minutes out of range", "1\n00:61:00,000 --> 01:02:00,000\nHello\n", "line 2"},
		{"end before start", "1\n00:00:05,000 --> 00:00:01,000\nHello\n", "line 2"},
		{"zero length", "1\n00:00:00,000 --> 00:00:01,000\nok\n\n2\n00:00:03,000 --> 00:00:03,000\nHello\n", "line 6"},
		{"missing end", "1\n00:00:05,000 -->\nHello\n", "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSubtitle(tt.content)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedTimestamp), "got %v", err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.where, pe.Where)
		})
	}
}

func TestParseSubtitle_ErrorCarriesPath(t *testing.T) {
	path := writeFile(t, "broken.srt", "1\nnot a time\nHello\n")

	_, err := ParseSubtitle(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestParseSubtitle_MissingFile(t *testing.T) {
	_, err := ParseSubtitle(filepath.Join(t.TempDir(), "nope.srt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseTimedJSON(t *testing.T) {
	path := writeFile(t, "transcript.json",
		`[{"start": 0.5, "end": 2.25, "text": "  hi  "}, {"start": 2.25, "end": 4, "text": "there"}]`)

	lines, err := ParseTimedJSON(path)
	require.NoError(t, err)
	assert.Equal(t, []Line{
		{StartMS: 500, EndMS: 2250, Text: "hi"},
		{StartMS: 2250, EndMS: 4000, Text: "there"},
	}, lines)
}

func TestParseTimedJSON_SegmentsObject(t *testing.T) {
	lines, err := parseTimedJSON([]byte(`{"language": "en", "segments": [{"start": 1.9999, "end": 3, "text": "x"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []Line{{StartMS: 1999, EndMS: 3000, Text: "x"}}, lines)
}

func TestParseTimedJSON_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"missing text", `[{"start": 0, "end": 1}]`, ErrMalformedRecord},
		{"missing start", `[{"end": 1, "text": "a"}]`, ErrMalformedRecord},
		{"null end", `[{"start": 0, "end": null, "text": "a"}]`, ErrMalformedRecord},
		{"wrong type", `[{"start": "zero", "end": 1, "text": "a"}]`, ErrMalformedRecord},
		{"not json", `start,end,text`, ErrMalformedRecord},
		{"object without segments", `{"text": "all of it"}`, ErrMalformedRecord},
		{"end before start", `[{"start": 2, "end": 1, "text": "a"}]`, ErrMalformedTimestamp},
		{"zero length", `[{"start": 2, "end": 2, "text": "a"}]`, ErrMalformedTimestamp},
		{"zero length after truncation", `[{"start": 2.0001, "end": 2.0009, "text": "a"}]`, ErrMalformedTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseTimedJSON([]byte(tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestParseLabeledText(t *testing.T) {
	content := strings.Join([]string{
		"Episode 12 notes",
		"[SPEAKER_01] - 00:00:01.500",
		"Hello there",
		"",
		"   General Kenobi  ",
		"[SPEAKER_02] - 00:01:00.000 You are a bold one",
		"",
	}, "\n")
	path := writeFile(t, "episode.txt", content)

	lines, err := ParseLabeledText(path)
	require.NoError(t, err)
	assert.Equal(t, []Line{
		{StartMS: 1500, EndMS: 4500, Text: "Hello there"},
		{StartMS: 4500, EndMS: 7500, Text: "General Kenobi"},
		{StartMS: 60000, EndMS: 63000, Text: "You are a bold one"},
	}, lines)
}

func TestParseLabeledText_SyntheticDuration(t *testing.T) {
	lines, err := parseLabeledText("[HOST] - 01:00:00.000\na\nb\nc\nd\n")
	require.NoError(t, err)
	require.Len(t, lines, 4)

	start := int64(3600000)
	for k, l := range lines {
		assert.Equal(t, start+int64(k)*3000, l.StartMS)
		assert.Equal(t, int64(3000), l.EndMS-l.StartMS)
	}
}

func TestParseLabeledText_MalformedHeader(t *testing.T) {
	_, err := parseLabeledText("[HOST] - 00:00:00.000\nhi\n[GUEST] - 00:00:01,500\nhello\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedTimestamp))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "line 3", pe.Where)
}

func TestParseLabeledText_BracketedBodyLines(t *testing.T) {
	lines, err := parseLabeledText(strings.Join([]string{
		"[HOST] - 00:00:10.000",
		"Welcome back.",
		"[Music] - 5 seconds of applause",
		"[laughs] - anyway",
		"[GUEST] - 00:00:20.000 Thanks.",
	}, "\n"))
	require.NoError(t, err)
	assert.Equal(t, []Line{
		{StartMS: 10000, EndMS: 13000, Text: "Welcome back."},
		{StartMS: 13000, EndMS: 16000, Text: "[Music] - 5 seconds of applause"},
		{StartMS: 16000, EndMS: 19000, Text: "[laughs] - anyway"},
		{StartMS: 20000, EndMS: 23000, Text: "Thanks."},
	}, lines)
}

func TestLoad_DispatchByExtension(t *testing.T) {
	srt := writeFile(t, "a.SRT", "1\n00:00:00,000 --> 00:00:01,000\nsrt\n")
	vtt := writeFile(t, "b.vtt", "WEBVTT\n\n00:00.000 --> 00:01.000\nvtt\n")
	js := writeFile(t, "c.json", `[{"start": 0, "end": 1, "text": "json"}]`)
	txt := writeFile(t, "d.txt", "[A] - 00:00:00.000\ntxt\n")

	for path, want := range map[string]string{srt: "srt", vtt: "vtt", js: "json", txt: "txt"} {
		lines, err := Load(path)
		require.NoError(t, err, path)
		require.Len(t, lines, 1)
		assert.Equal(t, want, lines[0].Text)
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, "notes.docx", "whatever")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.False(t, IsSupported(path))
	assert.True(t, IsSupported("x.vtt"))
}

func TestLoad_SortsOverlappingLabeledBlocks(t *testing.T) {
	path := writeFile(t, "overlap.txt", "[A] - 00:00:00.000\none\ntwo\nthree\n[B] - 00:00:05.000\nfour\n")

	lines, err := Load(path)
	require.NoError(t, err)

	var starts []int64
	for _, l := range lines {
		starts = append(starts, l.StartMS)
	}
	assert.Equal(t, []int64{0, 3000, 5000, 6000}, starts)
	assert.Equal(t, "four", lines[2].Text)
}
