package models

// Reel represents one cut clip.
// LocalPath is only meaningful while the clip sits in scratch storage.
type Reel struct {
	Index       int     `json:"-"`
	Filename    string  `json:"filename"`
	LocalPath   string  `json:"-"`
	Description string  `json:"description"`
	Start       float64 `json:"-"`
	End         float64 `json:"-"`
}
