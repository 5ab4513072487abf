package highlights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"videothingy/reel-pipeline/models"
)

// ErrEmptyReply is returned when the model answers with no text.
var ErrEmptyReply = errors.New("language model returned an empty reply")

// Count is the number of windows the model is asked for.
const Count = 5

// Completer sends a single-turn prompt to a language model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Selector asks a language model for the best highlight windows of a transcript.
type Selector struct {
	llm Completer
}

func New(llm Completer) *Selector {
	return &Selector{llm: llm}
}

// Select returns whatever windows the model proposes; the count is not enforced.
func (s *Selector) Select(ctx context.Context, tr models.Transcript) ([]models.Highlight, error) {
	reply, err := s.llm.Complete(ctx, BuildPrompt(tr.Timestamped()))
	if err != nil {
		return nil, fmt.Errorf("highlight selection: %w", err)
	}
	return Parse(reply)
}

// BuildPrompt embeds a timestamped transcript into the fixed highlight prompt.
func BuildPrompt(timestamped string) string {
	return fmt.Sprintf(promptTemplate, Count, timestamped, Count)
}

const promptTemplate = `You are analyzing a sports video transcript to find the %d most exciting and engaging moments for short-form content (reels/shorts).

Transcript with timestamps:
%s

Find the %d BEST moments that would make great 15-30 second reels. Look for:
- Exciting plays or action
- Key moments or highlights
- Memorable quotes or reactions
- Viral-worthy content

For each moment, provide:
1. Start time in seconds
2. End time in seconds (15-30 seconds after start)
3. Brief description

Return your response as a JSON array ONLY (no other text) in this exact format:
[
  {"start": 45, "end": 70, "description": "Amazing touchdown play"},
  {"start": 120, "end": 145, "description": "Coach reaction to penalty"},
  ...
]`

// Parse decodes a model reply into highlight windows. A reply wrapped in a
// ```json fence (or a bare ``` fence) is unwrapped first.
func Parse(reply string) ([]models.Highlight, error) {
	text := StripFence(reply)
	if text == "" {
		return nil, ErrEmptyReply
	}

	var out []models.Highlight
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("decode highlights: %w", err)
	}
	return out, nil
}

// StripFence returns the contents of the first fenced block in s, preferring a
// json-tagged fence. Without a fence s is returned trimmed.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	if _, after, ok := strings.Cut(s, "```json"); ok {
		inner, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(inner)
	}
	if _, after, ok := strings.Cut(s, "```"); ok {
		inner, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(inner)
	}
	return s
}
