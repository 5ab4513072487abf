package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// AutoResult combines fetching the newest video with processing it.
// A processing failure does not fail the auto run; it is reported in ProcessingErr.
type AutoResult struct {
	VideoID       string
	VideoTitle    string
	WasNew        bool
	Processing    *ProcessResult
	ProcessingErr error
}

// MarshalJSON renders the processing outcome as its own status envelope.
func (r AutoResult) MarshalJSON() ([]byte, error) {
	type processing struct {
		Status  string `json:"status"`
		Message string `json:"message,omitempty"`
		*ProcessResult
	}
	pr := processing{Status: "success", ProcessResult: r.Processing}
	if r.ProcessingErr != nil {
		pr = processing{Status: "error", Message: r.ProcessingErr.Error()}
	}
	return json.Marshal(struct {
		VideoID          string     `json:"video_id"`
		VideoTitle       string     `json:"video_title"`
		WasNew           bool       `json:"was_new"`
		ProcessingResult processing `json:"processing_result"`
	}{r.VideoID, r.VideoTitle, r.WasNew, pr})
}

// Auto fetches the newest channel video, stores it if it is new, and processes it.
func (p *Pipeline) Auto(ctx context.Context) (AutoResult, error) {
	existing, err := p.storedIDs()
	if err != nil {
		return AutoResult{}, err
	}

	refs, err := p.d.Source.Latest(ctx, 1)
	if err != nil {
		return AutoResult{}, fmt.Errorf("fetching channel listing: %w", err)
	}
	if len(refs) == 0 {
		return AutoResult{}, ErrNoVideos
	}
	ref := refs[0]
	_, exists := existing[ref.ID]

	res := AutoResult{VideoID: ref.ID, VideoTitle: ref.Title, WasNew: !exists}
	entry := p.d.Logger.WithFields(logrus.Fields{"video_id": ref.ID, "title": ref.Title, "was_new": res.WasNew})
	entry.Info("Found latest video")

	runID := p.d.Recorder.Start(ref.ID, "auto")
	var reels int
	err = p.withWorkDir(ctx, ref.ID, func(dir string) error {
		var local string
		if exists {
			entry.Info("Video already exists, processing stored copy")
		} else {
			var err error
			if local, err = p.storeOriginal(ctx, ref, dir); err != nil {
				return err
			}
		}

		pr, perr := p.process(ctx, ref.ID, dir, local)
		if perr != nil {
			entry.WithField("error", perr.Error()).Error("Processing failed")
			res.ProcessingErr = perr
			return nil
		}
		reels = len(pr.Reels)
		res.Processing = &pr
		return nil
	})
	if err == nil {
		err = res.ProcessingErr
	}
	p.d.Recorder.Finish(runID, reels, err)

	if res.ProcessingErr == nil && err != nil {
		return AutoResult{}, err
	}
	return res, nil
}
