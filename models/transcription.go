package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Transcript is the fully materialized output of a speech recognition run.
type Transcript struct {
	Segments []TranscriptSegment `json:"segments"`
}

// TranscriptSegment represents a single segment of a transcription.
// Start and End are offsets in seconds from the beginning of the media.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Text returns the segment texts joined by a single space.
func (t Transcript) Text() string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		parts = append(parts, strings.TrimSpace(seg.Text))
	}
	return strings.Join(parts, " ")
}

// Timestamped renders one line per segment, prefixed with the segment start as [M:SS].
func (t Transcript) Timestamped() string {
	var b strings.Builder
	for _, seg := range t.Segments {
		fmt.Fprintf(&b, "[%s] %s\n", FormatOffset(seg.Start), strings.TrimSpace(seg.Text))
	}
	return b.String()
}

// Preview returns the first n characters of Text followed by an ellipsis.
func (t Transcript) Preview(n int) string {
	text := t.Text()
	if utf8.RuneCountInString(text) > n {
		text = string([]rune(text)[:n])
	}
	return text + "..."
}

// FormatOffset renders seconds as M:SS. Minutes are not wrapped into hours.
func FormatOffset(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
