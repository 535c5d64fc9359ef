package emotion

// Severity thresholds, evaluated high to low. Boundary values round up to
// the higher tier.
const (
	highThreshold   = 0.85
	mediumThreshold = 0.75
	lowThreshold    = 0.60
)

// criticalEmotions are the urgent negative emotions. Together with
// moderateEmotions they form the negative set considered for severity;
// any name outside both sets is non-negative for severity purposes.
var criticalEmotions = map[string]bool{
	"sadness":      true,
	"crying":       true,
	"despair":      true,
	"hopelessness": true,
	"horror":       true,
	"fear":         true,
}

var moderateEmotions = map[string]bool{
	"anger":   true,
	"anxiety": true,
	"stress":  true,
	"disgust": true,
}

var positiveEmotions = map[string]bool{
	"joy":         true,
	"amusement":   true,
	"calmness":    true,
	"contentment": true,
	"excitement":  true,
	"love":        true,
	"pride":       true,
	"relief":      true,
}

// IsCritical reports whether name is in the critical emotion set.
func IsCritical(name string) bool { return criticalEmotions[name] }

// IsModerate reports whether name is in the moderate emotion set.
func IsModerate(name string) bool { return moderateEmotions[name] }

// IsPositive reports whether name is in the positive emotion set.
func IsPositive(name string) bool { return positiveEmotions[name] }

// Classify reduces a frame to its classification. It is a pure function with
// no failure modes: an empty frame classifies as severity none, not negative.
func Classify(frame Frame) Classification {
	var (
		dominantNegative string
		maxNegative      float64
		dominantOverall  string
		maxOverall       = -1.0
	)

	for _, s := range frame.Samples {
		// Ties keep the first-seen maximum.
		if s.Score > maxOverall {
			maxOverall = s.Score
			dominantOverall = s.Name
		}
		if !criticalEmotions[s.Name] && !moderateEmotions[s.Name] {
			continue
		}
		if s.Score > maxNegative {
			maxNegative = s.Score
			dominantNegative = s.Name
		}
	}

	c := Classification{
		Severity:   severityFor(maxNegative),
		IsNegative: maxNegative > 0,
	}
	if c.IsNegative {
		c.DominantEmotion = dominantNegative
		c.MaxScore = maxNegative
	} else if len(frame.Samples) > 0 {
		// Positive or unknown state: report the strongest sample overall for
		// display consumers. Intervention decisions never use this branch.
		c.DominantEmotion = dominantOverall
		c.MaxScore = maxOverall
	}
	return c
}

func severityFor(score float64) Severity {
	switch {
	case score >= highThreshold:
		return SeverityHigh
	case score >= mediumThreshold:
		return SeverityMedium
	case score >= lowThreshold:
		return SeverityLow
	default:
		return SeverityNone
	}
}
