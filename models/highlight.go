package models

// Highlight is one candidate reel window proposed by the language model.
// The model is asked for whole seconds but fractional values are accepted.
type Highlight struct {
	Start       float64 `json:"start" validate:"gte=0"`
	End         float64 `json:"end" validate:"gtfield=Start"`
	Description string  `json:"description"`
}

// Duration returns the window length in seconds.
func (h Highlight) Duration() float64 {
	return h.End - h.Start
}
