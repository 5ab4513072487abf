package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"time"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Clip codecs. Reels are always re-encoded so cuts are frame accurate.
const (
	VideoCodec = "libx264"
	AudioCodec = "aac"
)

// FFProbeOutput defines the structure for ffprobe JSON output relevant to duration.
type FFProbeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Runner invokes the ffmpeg binary with arguments compiled by ffmpeg-go.
type Runner struct {
	bin string
}

// NewRunner returns a Runner for the given ffmpeg binary, defaulting to "ffmpeg" on PATH.
func NewRunner(bin string) *Runner {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Runner{bin: bin}
}

// ExtractClip re-encodes [start, start+duration) seconds of inputFile into outputFile,
// overwriting outputFile if it exists.
func (r *Runner) ExtractClip(ctx context.Context, inputFile, outputFile string, start, duration float64) error {
	return r.run(ctx, ClipArgs(inputFile, outputFile, start, duration))
}

// ExtractAudio writes a 16 kHz mono wav track of inputFile to outputWav.
func (r *Runner) ExtractAudio(ctx context.Context, inputFile, outputWav string) error {
	args := ffmpeg.Input(inputFile).
		Output(outputWav, ffmpeg.KwArgs{
			"vn": "",
			"ac": 1,
			"ar": 16000,
			"f":  "wav",
		}).
		OverWriteOutput().
		GetArgs()
	return errors.Wrap(r.run(ctx, args), "extract audio")
}

// ClipArgs builds: -i input -ss start -t duration -c:v libx264 -c:a aac output -y
func ClipArgs(inputFile, outputFile string, start, duration float64) []string {
	return ffmpeg.Input(inputFile).
		Output(outputFile, ffmpeg.KwArgs{
			"ss":  formatSeconds(start),
			"t":   formatSeconds(duration),
			"c:v": VideoCodec,
			"c:a": AudioCodec,
		}).
		OverWriteOutput().
		GetArgs()
}

func (r *Runner) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, r.bin, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "ffmpeg failed\nStderr: %s", stderr.String())
	}
	return nil
}

// ProbeDuration uses ffprobe to get the duration of a media file.
func ProbeDuration(filePath string) (time.Duration, error) {
	out, err := ffmpeg.Probe(filePath)
	if err != nil {
		return 0, errors.Wrap(err, "ffprobe failed")
	}

	var probe FFProbeOutput
	if err := json.Unmarshal([]byte(out), &probe); err != nil {
		return 0, errors.Wrapf(err, "unmarshal ffprobe output %q", out)
	}
	if probe.Format.Duration == "" {
		return 0, errors.Errorf("no duration in ffprobe output %q", out)
	}

	sec, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse duration %q", probe.Format.Duration)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', -1, 64)
}
