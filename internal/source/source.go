package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"

	"videothingy/reel-pipeline/models"
)

// Format prefers the best muxed stream at or below 720p.
const Format = "best[height<=720]/best"

// browserHeaders are sent with every media request to look like a desktop browser.
var browserHeaders = [][2]string{
	{"User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"},
	{"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
	{"Accept-Language", "en-us,en;q=0.5"},
	{"Accept-Encoding", "gzip,deflate"},
	{"Accept-Charset", "ISO-8859-1,utf-8;q=0.7,*;q=0.7"},
}

// extractorArgs overrides the player clients and skips manifests yt-dlp does not need.
const extractorArgs = "youtube:player_client=android,web;skip=hls,dash,translated_subs"

// CommandRunner runs an external program and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w\nstderr: %s", filepath.Base(name), err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Fetcher lists and downloads videos from one channel through yt-dlp.
type Fetcher struct {
	bin     string
	channel string
	runner  CommandRunner
}

// NewFetcher returns a Fetcher for channelURL. An empty bin means yt-dlp on PATH.
func NewFetcher(bin, channelURL string) *Fetcher {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &Fetcher{bin: bin, channel: channelURL, runner: execRunner{}}
}

// WithRunner swaps the command runner, mainly for tests.
func (f *Fetcher) WithRunner(r CommandRunner) *Fetcher {
	f.runner = r
	return f
}

// flatListing is the subset of yt-dlp's -J output for a flattened playlist.
type flatListing struct {
	Entries []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"entries"`
}

// Latest returns metadata for the n most recent channel videos without downloading media.
func (f *Fetcher) Latest(ctx context.Context, n int) ([]models.VideoRef, error) {
	out, err := f.runner.Run(ctx, f.bin, ListArgs(f.channel, n)...)
	if err != nil {
		return nil, fmt.Errorf("list channel %s: %w", f.channel, err)
	}

	var listing flatListing
	if err := json.Unmarshal(out, &listing); err != nil {
		return nil, fmt.Errorf("decode channel listing: %w", err)
	}

	refs := make([]models.VideoRef, 0, len(listing.Entries))
	for _, e := range listing.Entries {
		if e.ID == "" {
			continue
		}
		refs = append(refs, models.VideoRef{ID: e.ID, Title: e.Title, URL: WatchURL(e.ID)})
		if len(refs) == n {
			break
		}
	}
	return refs, nil
}

// Download fetches the media for ref into dir and returns the local file path.
func (f *Fetcher) Download(ctx context.Context, ref models.VideoRef, dir string) (string, error) {
	dest := filepath.Join(dir, ref.ID+".mp4")
	url := ref.URL
	if url == "" {
		url = WatchURL(ref.ID)
	}
	if _, err := f.runner.Run(ctx, f.bin, DownloadArgs(url, dest)...); err != nil {
		return "", fmt.Errorf("download %s: %w", ref.ID, err)
	}
	return dest, nil
}

// WatchURL is the canonical watch page for a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// ListArgs builds the flattened listing invocation.
func ListArgs(channelURL string, n int) []string {
	return []string{
		"--flat-playlist",
		"--playlist-end", strconv.Itoa(n),
		"--dump-single-json",
		channelURL,
	}
}

// DownloadArgs builds the media download invocation.
func DownloadArgs(url, dest string) []string {
	args := []string{
		"-f", Format,
		"-o", dest,
		"--quiet",
		"--no-warnings",
		"--no-playlist",
		"--extractor-args", extractorArgs,
	}
	for _, h := range browserHeaders {
		args = append(args, "--add-header", h[0]+":"+h[1])
	}
	return append(args, url)
}
