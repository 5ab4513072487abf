package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/sirupsen/logrus"

	"videothingy/reel-pipeline/internal/clipper"
	"videothingy/reel-pipeline/internal/lock"
	"videothingy/reel-pipeline/internal/runlog"
	"videothingy/reel-pipeline/models"
)

var (
	// ErrNoVideos is returned when the channel listing has no entries.
	ErrNoVideos = errors.New("no videos found on channel")
	// ErrInvalidVideoID is returned for ids that are not a single safe path element.
	ErrInvalidVideoID = errors.New("invalid video id")
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidVideoID reports whether id can name a storage object and a scratch directory.
func ValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

func checkVideoID(id string) error {
	if !ValidVideoID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidVideoID, id)
	}
	return nil
}

// TranscriptPreviewChars is how much of the transcript a process result carries.
const TranscriptPreviewChars = 500

type Store interface {
	StoredIDs(prefix string) (map[string]struct{}, error)
	Upload(objectPath string, data io.Reader) error
	Download(objectPath string) ([]byte, error)
}

type Source interface {
	Latest(ctx context.Context, n int) ([]models.VideoRef, error)
	Download(ctx context.Context, ref models.VideoRef, dir string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath, workDir string) (models.Transcript, error)
}

type Selector interface {
	Select(ctx context.Context, tr models.Transcript) ([]models.Highlight, error)
}

type Cutter interface {
	Cut(ctx context.Context, videoID, src, dir string, highlights []models.Highlight) []clipper.Outcome
}

// Deps are the collaborators the pipeline sequences. Locker and Recorder are optional.
type Deps struct {
	Store       Store
	Source      Source
	Transcriber Transcriber
	Selector    Selector
	Cutter      Cutter
	Locker      lock.Locker
	Recorder    runlog.Recorder
	Logger      *logrus.Logger
}

type Options struct {
	// FetchLimit is how many of the newest channel videos fetch-only considers.
	FetchLimit int
	// ScratchDir holds one working directory per video id while it is locked.
	ScratchDir string
}

// Pipeline runs fetch, process and auto. It keeps no state between calls.
type Pipeline struct {
	d    Deps
	opts Options
}

func New(d Deps, opts Options) *Pipeline {
	if d.Locker == nil {
		d.Locker = lock.NewLocal()
	}
	if d.Recorder == nil {
		d.Recorder = runlog.Nop{}
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = 1
	}
	if opts.ScratchDir == "" {
		opts.ScratchDir = filepath.Join(os.TempDir(), "reels")
	}
	return &Pipeline{d: d, opts: opts}
}

// FetchResult reports what fetch-only discovered and stored.
type FetchResult struct {
	TotalFound    int               `json:"total_found"`
	NewDownloaded int               `json:"new_downloaded"`
	AlreadyExists int               `json:"already_exists"`
	Failed        int               `json:"failed"`
	Clips         []models.VideoRef `json:"clips"`
}

// ProcessResult is the outcome of turning one stored video into reels.
type ProcessResult struct {
	VideoID    string             `json:"video_id"`
	Transcript string             `json:"transcript"`
	Highlights []models.Highlight `json:"highlights"`
	Reels      []models.Reel      `json:"reels"`
	Skipped    []Skipped          `json:"skipped,omitempty"`
}

// Skipped describes a highlight window that did not become an uploaded reel.
type Skipped struct {
	Reel     int    `json:"reel"`
	Filename string `json:"filename"`
	Stage    string `json:"stage"`
	Reason   string `json:"reason"`
}

// storedIDs re-reads the originals folder; it is never cached.
func (p *Pipeline) storedIDs() (map[string]struct{}, error) {
	ids, err := p.d.Store.StoredIDs(models.OriginalsPrefix)
	if err != nil {
		return nil, fmt.Errorf("checking existing videos: %w", err)
	}
	p.d.Logger.WithField("count", len(ids)).Info("Found existing videos in storage")
	return ids, nil
}

// withWorkDir runs fn while holding the lock for id, inside a scratch directory
// that is removed on every exit path.
func (p *Pipeline) withWorkDir(ctx context.Context, id string, fn func(dir string) error) error {
	if err := checkVideoID(id); err != nil {
		return err
	}
	unlock, err := p.d.Locker.Lock(ctx, id)
	if err != nil {
		return fmt.Errorf("locking %s: %w", id, err)
	}
	defer unlock()

	dir := filepath.Join(p.opts.ScratchDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			p.d.Logger.WithError(err).WithField("dir", dir).Warn("Failed to clean work dir")
		}
	}()

	return fn(dir)
}

// storeOriginal downloads ref from the platform into dir and uploads it to originals/.
func (p *Pipeline) storeOriginal(ctx context.Context, ref models.VideoRef, dir string) (string, error) {
	entry := p.d.Logger.WithFields(logrus.Fields{"video_id": ref.ID, "title": ref.Title})

	entry.Info("Downloading new video")
	local, err := p.d.Source.Download(ctx, ref, dir)
	if err != nil {
		return "", err
	}

	entry.Info("Uploading original to storage")
	if err := p.uploadFile(models.OriginalPath(ref.ID), local); err != nil {
		return "", err
	}
	entry.Info("Uploaded to originals folder")
	return local, nil
}

func (p *Pipeline) uploadFile(objectPath, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.d.Store.Upload(objectPath, f)
}
