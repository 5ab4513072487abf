package clipper

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"videothingy/reel-pipeline/models"
)

// Stages a window can be dropped at.
const (
	StageValidate = "validate"
	StageCut      = "cut"
	StageUpload   = "upload"
)

// Encoder cuts one window out of a source file.
type Encoder interface {
	ExtractClip(ctx context.Context, inputFile, outputFile string, start, duration float64) error
}

// Outcome is the result of processing one highlight window.
// Err is nil when the window produced a reel.
type Outcome struct {
	Reel  models.Reel
	Stage string
	Err   error
}

// OK reports whether the window succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Cutter turns highlight windows into reel files in a scratch directory.
type Cutter struct {
	enc      Encoder
	log      *logrus.Logger
	validate *validator.Validate
}

func New(enc Encoder, log *logrus.Logger) *Cutter {
	return &Cutter{enc: enc, log: log, validate: validator.New()}
}

// Cut extracts every window sequentially. A failing window never stops the others;
// the returned slice has one outcome per highlight, in order.
func (c *Cutter) Cut(ctx context.Context, videoID, src, dir string, highlights []models.Highlight) []Outcome {
	outcomes := make([]Outcome, 0, len(highlights))
	for i, h := range highlights {
		outcomes = append(outcomes, c.cutOne(ctx, videoID, src, dir, i+1, len(highlights), h))
	}
	return outcomes
}

func (c *Cutter) cutOne(ctx context.Context, videoID, src, dir string, n, total int, h models.Highlight) (out Outcome) {
	filename := models.ReelFilename(videoID, n)
	out.Reel = models.Reel{
		Index:       n,
		Filename:    filename,
		LocalPath:   filepath.Join(dir, filename),
		Description: h.Description,
		Start:       h.Start,
		End:         h.End,
	}
	entry := c.log.WithFields(logrus.Fields{
		"video_id": videoID,
		"reel":     fmt.Sprintf("%d/%d", n, total),
		"start":    h.Start,
		"end":      h.End,
	})

	defer func() {
		if r := recover(); r != nil {
			out.Stage = StageCut
			out.Err = fmt.Errorf("panic while cutting reel %d: %v", n, r)
			entry.WithField("error", out.Err.Error()).Warn("Failed to cut reel")
		}
	}()

	if err := ctx.Err(); err != nil {
		out.Stage = StageCut
		out.Err = err
		return out
	}

	if err := c.validate.Struct(h); err != nil {
		out.Stage = StageValidate
		out.Err = fmt.Errorf("invalid window %v-%v: %w", h.Start, h.End, err)
		entry.WithField("error", out.Err.Error()).Warn("Skipping highlight window")
		return out
	}

	entry.Infof("Cutting %vs to %vs: %s", h.Start, h.End, h.Description)
	if err := c.enc.ExtractClip(ctx, src, out.Reel.LocalPath, h.Start, h.Duration()); err != nil {
		out.Stage = StageCut
		out.Err = err
		entry.WithField("error", err.Error()).Warn("ffmpeg error, skipping reel")
		return out
	}

	entry.Info("Cut reel")
	return out
}

// Succeeded filters outcomes down to the reels that were produced.
func Succeeded(outcomes []Outcome) []models.Reel {
	var reels []models.Reel
	for _, o := range outcomes {
		if o.OK() {
			reels = append(reels, o.Reel)
		}
	}
	return reels
}

// Failed filters outcomes down to the dropped windows.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}
