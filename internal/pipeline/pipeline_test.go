package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"videothingy/reel-pipeline/internal/clipper"
	"videothingy/reel-pipeline/internal/storage"
	"videothingy/reel-pipeline/models"
)

type memStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failPaths map[string]bool
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, failPaths: map[string]bool{}}
}

func (s *memStore) StoredIDs(prefix string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix+"/") {
			names = append(names, strings.TrimPrefix(k, prefix+"/"))
		}
	}
	return storage.IDSet(names), nil
}

func (s *memStore) Upload(objectPath string, r io.Reader) error {
	if s.failPaths[objectPath] {
		return fmt.Errorf("upload %s: 500", objectPath)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[objectPath] = data
	s.mu.Unlock()
	return nil
}

func (s *memStore) Download(objectPath string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[objectPath]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

type fakeSource struct {
	refs      []models.VideoRef
	failIDs   map[string]bool
	downloads []string
}

func (f *fakeSource) Latest(_ context.Context, n int) ([]models.VideoRef, error) {
	if n < len(f.refs) {
		return f.refs[:n], nil
	}
	return f.refs, nil
}

func (f *fakeSource) Download(_ context.Context, ref models.VideoRef, dir string) (string, error) {
	f.downloads = append(f.downloads, ref.ID)
	if f.failIDs[ref.ID] {
		return "", errors.New("yt-dlp: exit status 1")
	}
	out := filepath.Join(dir, ref.ID+".mp4")
	return out, os.WriteFile(out, []byte("video:"+ref.ID), 0o644)
}

type fakeTranscriber struct {
	calls int
	err   error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, mediaPath, _ string) (models.Transcript, error) {
	f.calls++
	if f.err != nil {
		return models.Transcript{}, f.err
	}
	if _, err := os.Stat(mediaPath); err != nil {
		return models.Transcript{}, err
	}
	return models.Transcript{Segments: []models.TranscriptSegment{
		{Start: 0, End: 5, Text: "What a goal"},
		{Start: 5, End: 9, Text: "from the halfway line"},
	}}, nil
}

type fakeSelector struct {
	highlights []models.Highlight
	err        error
}

func (f *fakeSelector) Select(context.Context, models.Transcript) ([]models.Highlight, error) {
	return f.highlights, f.err
}

// fileEncoder writes a placeholder reel so uploads have something to read.
type fileEncoder struct {
	failOn string
}

func (e fileEncoder) ExtractClip(_ context.Context, _, out string, _, _ float64) error {
	if filepath.Base(out) == e.failOn {
		return errors.New("exit status 1")
	}
	return os.WriteFile(out, []byte("reel"), 0o644)
}

type recorder struct {
	mu       sync.Mutex
	started  []string
	finished []error
}

func (r *recorder) Start(videoID, trigger string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, trigger+":"+videoID)
	return videoID
}

func (r *recorder) Finish(_ string, _ int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, err)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func windows(n int) []models.Highlight {
	out := make([]models.Highlight, n)
	for i := range out {
		start := float64(i * 30)
		out[i] = models.Highlight{Start: start, End: start + 20, Description: fmt.Sprintf("moment %d", i+1)}
	}
	return out
}

type harness struct {
	store *memStore
	src   *fakeSource
	tr    *fakeTranscriber
	sel   *fakeSelector
	rec   *recorder
	p     *Pipeline
	dir   string
}

func newHarness(t *testing.T, enc fileEncoder) *harness {
	t.Helper()
	h := &harness{
		store: newMemStore(),
		src:   &fakeSource{failIDs: map[string]bool{}},
		tr:    &fakeTranscriber{},
		sel:   &fakeSelector{highlights: windows(5)},
		rec:   &recorder{},
		dir:   t.TempDir(),
	}
	log := quietLogger()
	h.p = New(Deps{
		Store:       h.store,
		Source:      h.src,
		Transcriber: h.tr,
		Selector:    h.sel,
		Cutter:      clipper.New(enc, log),
		Recorder:    h.rec,
		Logger:      log,
	}, Options{FetchLimit: 3, ScratchDir: h.dir})
	return h
}

func assertScratchEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read scratch: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("scratch dir not cleaned: %d entries left", len(entries))
	}
}

func TestFetch_SkipsStoredVideos(t *testing.T) {
	h := newHarness(t, fileEncoder{})
	h.store.objects["originals/a.mp4"] = []byte("old")
	h.src.refs = []models.VideoRef{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}, {ID: "c", Title: "C"}}

	res, err := h.p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.TotalFound != 3 || res.NewDownloaded != 2 || res.AlreadyExists != 1 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if len(res.Clips) != 3 {
		t.Fatalf("expected all listed clips, got %d", len(res.Clips))
	}
	if got := strings.Join(h.src.downloads, ","); got != "b,c" {
		t.Fatalf("downloads = %q, want b,c", got)
	}
	if string(h.store.objects["originals/a.mp4"]) != "old" {
		t.Fatalf("existing original was overwritten")
	}

	// A second run finds everything stored.
	h.src.downloads = nil
	res, err = h.p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch again: %v", err)
	}
	if res.NewDownloaded != 0 || res.AlreadyExists != 3 || len(h.src.downloads) != 0 {
		t.Fatalf("second fetch not idempotent: %+v downloads=%v", res, h.src.downloads)
	}
	assertScratchEmpty(t, h.dir)
}

func TestFetch_CountsFailedDownloads(t *testing.T) {
	h := newHarness(t, fileEncoder{})
	h.src.refs = []models.VideoRef{{ID: "a"}, {ID: "b"}}
	h.src.failIDs["a"] = true

	res, err := h.p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.NewDownloaded != 1 || res.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if _, ok := h.store.objects["originals/a.mp4"]; ok {
		t.Fatalf("failed video should not be stored")
	}
}

func TestProcess_FailedWindowYieldsFourReels(t *testing.T) {
	h := newHarness(t, fileEncoder{failOn: "vid_reel_3.mp4"})
	h.store.objects["originals/vid.mp4"] = []byte("video")

	res, err := h.p.Process(context.Background(), "vid")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Reels) != 4 {
		t.Fatalf("expected 4 reels, got %d", len(res.Reels))
	}
	for _, n := range []int{1, 2, 4, 5} {
		if _, ok := h.store.objects[fmt.Sprintf("reels/vid_reel_%d.mp4", n)]; !ok {
			t.Fatalf("reel %d not uploaded", n)
		}
	}
	if _, ok := h.store.objects["reels/vid_reel_3.mp4"]; ok {
		t.Fatalf("failed reel should not be uploaded")
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reel != 3 || res.Skipped[0].Stage != clipper.StageCut {
		t.Fatalf("unexpected skipped: %+v", res.Skipped)
	}
	if len(res.Highlights) != 5 {
		t.Fatalf("expected all highlights echoed, got %d", len(res.Highlights))
	}
	if !strings.HasSuffix(res.Transcript, "...") {
		t.Fatalf("transcript preview should end with ellipsis: %q", res.Transcript)
	}
	assertScratchEmpty(t, h.dir)
}

func TestProcess_ToleratesFewerHighlights(t *testing.T) {
	for n := 0; n <= 4; n++ {
		t.Run(fmt.Sprintf("%d windows", n), func(t *testing.T) {
			h := newHarness(t, fileEncoder{})
			h.store.objects["originals/vid.mp4"] = []byte("video")
			h.sel.highlights = windows(n)

			res, err := h.p.Process(context.Background(), "vid")
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if len(res.Reels) != n {
				t.Fatalf("expected %d reels, got %d", n, len(res.Reels))
			}
			if res.Reels == nil || res.Highlights == nil {
				t.Fatalf("empty results must encode as arrays")
			}
		})
	}
}

func TestProcess_MissingOriginal(t *testing.T) {
	h := newHarness(t, fileEncoder{})

	_, err := h.p.Process(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected error for missing original")
	}
	if !strings.Contains(err.Error(), "originals/ghost.mp4") {
		t.Fatalf("error should name the missing object: %v", err)
	}
	if h.tr.calls != 0 {
		t.Fatalf("transcriber should not run, got %d calls", h.tr.calls)
	}
	if len(h.rec.finished) != 1 || h.rec.finished[0] == nil {
		t.Fatalf("run should be recorded as failed: %+v", h.rec.finished)
	}
	assertScratchEmpty(t, h.dir)
}

func TestProcess_UploadFailureSkipsReel(t *testing.T) {
	h := newHarness(t, fileEncoder{})
	h.store.objects["originals/vid.mp4"] = []byte("video")
	h.store.failPaths["reels/vid_reel_2.mp4"] = true

	res, err := h.p.Process(context.Background(), "vid")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Reels) != 4 {
		t.Fatalf("expected 4 reels, got %d", len(res.Reels))
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Stage != clipper.StageUpload || res.Skipped[0].Filename != "vid_reel_2.mp4" {
		t.Fatalf("unexpected skipped: %+v", res.Skipped)
	}
	assertScratchEmpty(t, h.dir)
}

func TestProcess_TranscriptionErrorCleansUp(t *testing.T) {
	h := newHarness(t, fileEncoder{})
	h.store.objects["originals/vid.mp4"] = []byte("video")
	h.tr.err = errors.New("whisper: exit status 2")

	if _, err := h.p.Process(context.Background(), "vid"); err == nil {
		t.Fatal("expected error")
	}
	assertScratchEmpty(t, h.dir)
}

func TestAuto_ExistingVideoStillProcessed(t *testing.T) {
	h := newHarness(t, fileEncoder{})
	h.store.objects["originals/vid.mp4"] = []byte("video")
	h.src.refs = []models.VideoRef{{ID: "vid", Title: "Match day"}}

	res, err := h.p.Auto(context.Background())
	if err != nil {
		t.Fatalf("Auto: %v", err)
	}
	if res.WasNew {
		t.Fatal("expected was_new false")
	}
	if len(h.src.downloads) != 0 {
		t.Fatalf("existing video re-downloaded: %v", h.src.downloads)
	}
	if res.Processing == nil || len(res.Processing.Reels) != 5 {
		t.Fatalf("expected processing with 5 reels, got %+v", res.Processing)
	}
}

func TestAuto_NewVideo(t *testing.T) {
	h := newHarness(t, fileEncoder{})
	h.src.refs = []models.VideoRef{{ID: "fresh", Title: "Derby"}}

	res, err := h.p.Auto(context.Background())
	if err != nil {
		t.Fatalf("Auto: %v", err)
	}
	if !res.WasNew || res.VideoTitle != "Derby" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, ok := h.store.objects["originals/fresh.mp4"]; !ok {
		t.Fatal("original not stored")
	}
	if got := strings.Join(h.rec.started, ","); got != "auto:fresh" {
		t.Fatalf("run log = %q", got)
	}
	assertScratchEmpty(t, h.dir)
}

func TestAuto_ProcessingErrorIsEmbedded(t *testing.T) {
	h := newHarness(t, fileEncoder{})
	h.src.refs = []models.VideoRef{{ID: "vid", Title: "Match"}}
	h.sel.err = errors.New("no JSON found in model reply")

	res, err := h.p.Auto(context.Background())
	if err != nil {
		t.Fatalf("Auto should not fail on processing error: %v", err)
	}

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body struct {
		WasNew           bool `json:"was_new"`
		ProcessingResult struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"processing_result"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.WasNew || body.ProcessingResult.Status != "error" || !strings.Contains(body.ProcessingResult.Message, "no JSON") {
		t.Fatalf("unexpected body: %s", raw)
	}
}

func TestAuto_SuccessFlattensProcessingResult(t *testing.T) {
	h := newHarness(t, fileEncoder{})
	h.src.refs = []models.VideoRef{{ID: "vid"}}

	res, err := h.p.Auto(context.Background())
	if err != nil {
		t.Fatalf("Auto: %v", err)
	}
	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body struct {
		ProcessingResult map[string]any `json:"processing_result"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	pr := body.ProcessingResult
	if pr["status"] != "success" || pr["video_id"] != "vid" {
		t.Fatalf("unexpected processing_result: %s", raw)
	}
	if reels, ok := pr["reels"].([]any); !ok || len(reels) != 5 {
		t.Fatalf("expected 5 reels in processing_result: %s", raw)
	}
}

func TestAuto_EmptyChannel(t *testing.T) {
	h := newHarness(t, fileEncoder{})

	if _, err := h.p.Auto(context.Background()); !errors.Is(err, ErrNoVideos) {
		t.Fatalf("expected ErrNoVideos, got %v", err)
	}
}

func TestAuto_DownloadFailureAborts(t *testing.T) {
	h := newHarness(t, fileEncoder{})
	h.src.refs = []models.VideoRef{{ID: "vid"}}
	h.src.failIDs["vid"] = true

	if _, err := h.p.Auto(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if h.tr.calls != 0 {
		t.Fatal("processing should not start")
	}
	assertScratchEmpty(t, h.dir)
}

func TestProcess_RejectsUnsafeVideoIDs(t *testing.T) {
	root := t.TempDir()
	scratch := filepath.Join(root, "tmp", "reels")
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		t.Fatal(err)
	}
	neighbour := filepath.Join(root, "tmp", "someone-elses-file")
	if err := os.WriteFile(neighbour, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := newHarness(t, fileEncoder{})
	h.p.opts.ScratchDir = scratch

	for _, id := range []string{"..", "../..", ".", "a/b", "../tmp", "abc.mp4", " ", strings.Repeat("x", 65)} {
		t.Run(id, func(t *testing.T) {
			_, err := h.p.Process(context.Background(), id)
			if !errors.Is(err, ErrInvalidVideoID) {
				t.Fatalf("Process(%q): expected ErrInvalidVideoID, got %v", id, err)
			}
		})
	}

	if _, err := os.Stat(neighbour); err != nil {
		t.Fatalf("file outside the scratch dir was touched: %v", err)
	}
	if h.tr.calls != 0 || len(h.rec.started) != 0 {
		t.Fatalf("invalid ids must be rejected before any work")
	}
}

func TestValidVideoID(t *testing.T) {
	for _, id := range []string{"dQw4w9WgXcQ", "abc123", "a-b_c"} {
		if !ValidVideoID(id) {
			t.Errorf("ValidVideoID(%q) = false", id)
		}
	}
	for _, id := range []string{"", "..", "a/b", `a\b`, "a b", "ab.mp4"} {
		if ValidVideoID(id) {
			t.Errorf("ValidVideoID(%q) = true", id)
		}
	}
}

func TestFetch_UnsafeListedIDCountsAsFailed(t *testing.T) {
	h := newHarness(t, fileEncoder{})
	h.src.refs = []models.VideoRef{{ID: ".."}, {ID: "ok"}}

	res, err := h.p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Failed != 1 || res.NewDownloaded != 1 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if strings.Join(h.src.downloads, ",") != "ok" {
		t.Fatalf("downloads = %v", h.src.downloads)
	}
}

// overlapTranscriber records how many transcriptions run at once.
type overlapTranscriber struct {
	active, maxActive int32
}

func (o *overlapTranscriber) Transcribe(_ context.Context, mediaPath, _ string) (models.Transcript, error) {
	n := atomic.AddInt32(&o.active, 1)
	defer atomic.AddInt32(&o.active, -1)
	for {
		m := atomic.LoadInt32(&o.maxActive)
		if n <= m || atomic.CompareAndSwapInt32(&o.maxActive, m, n) {
			break
		}
	}
	time.Sleep(50 * time.Millisecond)
	if _, err := os.Stat(mediaPath); err != nil {
		return models.Transcript{}, err
	}
	return models.Transcript{Segments: []models.TranscriptSegment{{Start: 0, End: 5, Text: "Kickoff"}}}, nil
}

func TestProcess_SameIDRunsOneAtATime(t *testing.T) {
	h := newHarness(t, fileEncoder{})
	h.store.objects["originals/vid.mp4"] = []byte("video")
	tr := &overlapTranscriber{}
	h.p.d.Transcriber = tr

	var wg sync.WaitGroup
	errs := make([]error, 3)
	reels := make([]int, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := h.p.Process(context.Background(), "vid")
			errs[i] = err
			reels[i] = len(res.Reels)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Process #%d: %v", i, err)
		}
		if reels[i] != 5 {
			t.Fatalf("Process #%d: expected 5 reels, got %d", i, reels[i])
		}
	}
	if got := atomic.LoadInt32(&tr.maxActive); got != 1 {
		t.Fatalf("expected same-id runs to be serialized, saw %d at once", got)
	}
	assertScratchEmpty(t, h.dir)
}
