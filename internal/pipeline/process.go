package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"videothingy/reel-pipeline/internal/clipper"
	"videothingy/reel-pipeline/models"
)

// Process turns a video already stored under originals/ into uploaded reels.
func (p *Pipeline) Process(ctx context.Context, videoID string) (ProcessResult, error) {
	if err := checkVideoID(videoID); err != nil {
		return ProcessResult{}, err
	}
	runID := p.d.Recorder.Start(videoID, "process")

	var res ProcessResult
	err := p.withWorkDir(ctx, videoID, func(dir string) error {
		var err error
		res, err = p.process(ctx, videoID, dir, "")
		return err
	})

	p.d.Recorder.Finish(runID, len(res.Reels), err)
	if err != nil {
		p.d.Logger.WithFields(logrus.Fields{"video_id": videoID, "error": err.Error()}).Error("Processing failed")
		return ProcessResult{}, err
	}
	return res, nil
}

// process runs download → transcribe → highlight → cut → upload inside dir.
// When local is non-empty it is used instead of downloading the original again.
func (p *Pipeline) process(ctx context.Context, videoID, dir, local string) (ProcessResult, error) {
	entry := p.d.Logger.WithField("video_id", videoID)
	entry.Info("Processing video")

	if local == "" {
		var err error
		local, err = p.downloadOriginal(videoID, dir)
		if err != nil {
			return ProcessResult{}, err
		}
	}

	entry.WithField("stage", "transcribe").Info("Transcribing video")
	tr, err := p.d.Transcriber.Transcribe(ctx, local, dir)
	if err != nil {
		return ProcessResult{}, err
	}
	entry.WithField("segments", len(tr.Segments)).Info("Transcription complete")

	entry.WithField("stage", "highlights").Info("Asking language model for highlights")
	highlights, err := p.d.Selector.Select(ctx, tr)
	if err != nil {
		return ProcessResult{}, err
	}
	entry.WithField("highlights", len(highlights)).Info("Found highlights")

	entry.WithField("stage", "cut").Info("Cutting videos into reels")
	outcomes := p.d.Cutter.Cut(ctx, videoID, local, dir, highlights)

	entry.WithField("stage", "upload").Infof("Uploading %d reels", len(clipper.Succeeded(outcomes)))
	outcomes = p.uploadReels(videoID, outcomes)

	res := ProcessResult{
		VideoID:    videoID,
		Transcript: tr.Preview(TranscriptPreviewChars),
		Highlights: highlights,
		Reels:      clipper.Succeeded(outcomes),
	}
	if res.Highlights == nil {
		res.Highlights = []models.Highlight{}
	}
	if res.Reels == nil {
		res.Reels = []models.Reel{}
	}
	for _, o := range clipper.Failed(outcomes) {
		res.Skipped = append(res.Skipped, Skipped{
			Reel:     o.Reel.Index,
			Filename: o.Reel.Filename,
			Stage:    o.Stage,
			Reason:   o.Err.Error(),
		})
	}

	entry.WithField("reels", len(res.Reels)).Info("Processing complete")
	return res, nil
}

func (p *Pipeline) downloadOriginal(videoID, dir string) (string, error) {
	objectPath := models.OriginalPath(videoID)
	p.d.Logger.WithFields(logrus.Fields{"video_id": videoID, "stage": "download"}).Info("Downloading video from storage")

	data, err := p.d.Store.Download(objectPath)
	if err != nil {
		return "", fmt.Errorf("downloading %s from storage: %w", objectPath, err)
	}

	local := filepath.Join(dir, videoID+".mp4")
	if err := os.WriteFile(local, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", local, err)
	}
	return local, nil
}

// uploadReels uploads every cut reel independently. Failed uploads turn the outcome
// into a skipped one; local reel files are removed either way.
func (p *Pipeline) uploadReels(videoID string, outcomes []clipper.Outcome) []clipper.Outcome {
	out := make([]clipper.Outcome, len(outcomes))
	for i, o := range outcomes {
		out[i] = o
		if !o.OK() {
			continue
		}

		entry := p.d.Logger.WithFields(logrus.Fields{"video_id": videoID, "reel": o.Reel.Filename})
		if err := p.uploadFile(models.ReelPath(o.Reel.Filename), o.Reel.LocalPath); err != nil {
			entry.WithField("error", err.Error()).Warn("Failed to upload reel")
			out[i].Stage = clipper.StageUpload
			out[i].Err = err
		} else {
			entry.Info("Uploaded reel")
		}
		if err := os.Remove(o.Reel.LocalPath); err != nil && !os.IsNotExist(err) {
			entry.WithError(err).Warn("Failed to remove local reel")
		}
	}
	return out
}
