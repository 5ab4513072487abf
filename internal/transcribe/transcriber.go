package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"videothingy/reel-pipeline/models"
)

// AudioExtractor produces the 16 kHz mono wav whisper.cpp expects.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, inputFile, outputWav string) error
}

// CommandRunner runs the whisper.cpp binary.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	b, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return b, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}
	return b, nil
}

// Options select the speech model. Size is a whisper model size such as "base";
// models are loaded as 8-bit quantized ggml files and run on the CPU only.
type Options struct {
	Bin      string
	Size     string
	ModelDir string
	Threads  int
}

// Transcriber runs whisper.cpp over local media files.
type Transcriber struct {
	opts   Options
	audio  AudioExtractor
	runner CommandRunner
}

func New(opts Options, audio AudioExtractor) *Transcriber {
	if opts.Bin == "" {
		opts.Bin = "whisper-cli"
	}
	if opts.Size == "" {
		opts.Size = "base"
	}
	if opts.Threads <= 0 {
		opts.Threads = 4
	}
	return &Transcriber{opts: opts, audio: audio, runner: execRunner{}}
}

// WithRunner swaps the command runner, mainly for tests.
func (t *Transcriber) WithRunner(r CommandRunner) *Transcriber {
	t.runner = r
	return t
}

// ModelPath is the ggml model file for the configured size.
func (t *Transcriber) ModelPath() string {
	return filepath.Join(t.opts.ModelDir, fmt.Sprintf("ggml-%s-q8_0.bin", t.opts.Size))
}

// Transcribe recognizes speech in mediaPath. Intermediate files go to workDir.
func (t *Transcriber) Transcribe(ctx context.Context, mediaPath, workDir string) (models.Transcript, error) {
	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	wav := filepath.Join(workDir, base+".wav")
	if err := t.audio.ExtractAudio(ctx, mediaPath, wav); err != nil {
		return models.Transcript{}, fmt.Errorf("transcribe %s: %w", filepath.Base(mediaPath), err)
	}
	defer os.Remove(wav)

	outPrefix := filepath.Join(workDir, base+".whisper")
	args := []string{
		"-m", t.ModelPath(),
		"-f", wav,
		"-t", strconv.Itoa(t.opts.Threads),
		// whisper-cli assumes English unless told otherwise.
		"-l", "auto",
		"-ng",
		"-oj",
		"-of", outPrefix,
		"-np",
	}
	if _, err := t.runner.Run(ctx, t.opts.Bin, args...); err != nil {
		return models.Transcript{}, fmt.Errorf("transcribe %s: %w", filepath.Base(mediaPath), err)
	}
	defer os.Remove(outPrefix + ".json")

	b, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return models.Transcript{}, fmt.Errorf("read whisper output: %w", err)
	}
	return ParseOutput(b)
}

// whisperOutput is the -oj document written by whisper.cpp. Offsets are milliseconds.
type whisperOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// ParseOutput converts whisper.cpp JSON into a transcript.
func ParseOutput(b []byte) (models.Transcript, error) {
	var out whisperOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return models.Transcript{}, fmt.Errorf("decode whisper output: %w", err)
	}

	tr := models.Transcript{Segments: make([]models.TranscriptSegment, 0, len(out.Transcription))}
	for _, s := range out.Transcription {
		tr.Segments = append(tr.Segments, models.TranscriptSegment{
			Start: float64(s.Offsets.From) / 1000,
			End:   float64(s.Offsets.To) / 1000,
			Text:  strings.TrimSpace(s.Text),
		})
	}
	return tr, nil
}
