package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"videothingy/reel-pipeline/models"
)

// Fetch lists the newest channel videos and stores the ones not already under
// originals/. A failed download is logged and counted; it does not fail the call.
func (p *Pipeline) Fetch(ctx context.Context) (FetchResult, error) {
	existing, err := p.storedIDs()
	if err != nil {
		return FetchResult{}, err
	}

	p.d.Logger.WithField("limit", p.opts.FetchLimit).Info("Fetching latest channel videos")
	refs, err := p.d.Source.Latest(ctx, p.opts.FetchLimit)
	if err != nil {
		return FetchResult{}, fmt.Errorf("fetching channel listing: %w", err)
	}

	res := FetchResult{TotalFound: len(refs), Clips: make([]models.VideoRef, 0, len(refs))}
	var fresh []models.VideoRef
	for _, ref := range refs {
		res.Clips = append(res.Clips, ref)
		entry := p.d.Logger.WithFields(logrus.Fields{"video_id": ref.ID, "title": ref.Title})
		if _, ok := existing[ref.ID]; ok {
			entry.Info("Skipping video, already stored")
			res.AlreadyExists++
			continue
		}
		entry.Info("New video")
		fresh = append(fresh, ref)
	}

	if len(fresh) == 0 {
		p.d.Logger.Info("All clips already downloaded, nothing to do")
	}
	for i, ref := range fresh {
		entry := p.d.Logger.WithFields(logrus.Fields{
			"video_id": ref.ID,
			"progress": fmt.Sprintf("%d/%d", i+1, len(fresh)),
		})
		err := p.withWorkDir(ctx, ref.ID, func(dir string) error {
			_, err := p.storeOriginal(ctx, ref, dir)
			return err
		})
		if err != nil {
			entry.WithField("error", err.Error()).Error("Failed to store new video")
			res.Failed++
			continue
		}
		res.NewDownloaded++
	}

	p.d.Logger.WithFields(logrus.Fields{
		"new":     res.NewDownloaded,
		"skipped": res.AlreadyExists,
		"failed":  res.Failed,
	}).Info("Fetch complete")
	return res, nil
}
