// Package emotion holds the emotion data model and the classifier that
// reduces raw per-frame scores into a severity tier.
package emotion

import "time"

// Sample is a single named emotion score from the inference service.
// Scores are in [0,1]. Samples are never mutated after creation.
type Sample struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Frame is the ordered set of samples for one captured image.
type Frame struct {
	Samples    []Sample  `json:"samples"`
	CapturedAt time.Time `json:"captured_at"`
}

// Severity is the tier derived from the highest negative-emotion score in a
// frame. Tiers are totally ordered.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "none"
	}
}

// Classification is the reduced summary of one frame. It is immutable and is
// consumed by both the intervention policy and the alert fanout in the same
// tick.
type Classification struct {
	DominantEmotion string   `json:"dominant_emotion"`
	MaxScore        float64  `json:"max_score"`
	Severity        Severity `json:"severity"`
	IsNegative      bool     `json:"is_negative"`
}
