package models

import "fmt"

// VideoRef identifies one source video on the video platform.
type VideoRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// OriginalPath is the object path of the stored source video.
func OriginalPath(videoID string) string {
	return fmt.Sprintf("originals/%s.mp4", videoID)
}

// ReelFilename is the file name of the n-th (1-based) reel cut from a video.
func ReelFilename(videoID string, n int) string {
	return fmt.Sprintf("%s_reel_%d.mp4", videoID, n)
}

// ReelPath is the object path of an uploaded reel.
func ReelPath(filename string) string {
	return "reels/" + filename
}

// TestUploadPath is the object path for files sent to the upload endpoint.
func TestUploadPath(filename string) string {
	return "test/" + filename
}

const (
	// OriginalsPrefix is the storage folder holding source videos.
	OriginalsPrefix = "originals"
)
