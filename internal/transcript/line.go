// Package transcript normalizes the transcript formats the pipeline accepts
// (SRT/WebVTT subtitles, timed JSON, speaker-labeled text) into one ordered
// sequence of timed lines.
package transcript

// Line is one unit of transcribed speech. Times are milliseconds from the
// start of the recording.
type Line struct {
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
	Text    string `json:"text"`
}
