// Package intervention decides whether a classification warrants a
// supportive intervention and selects its content, rate-limited by a single
// global cooldown.
package intervention

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/serenemind/emotion-monitor/internal/clock"
	"github.com/serenemind/emotion-monitor/internal/emotion"
	"github.com/serenemind/emotion-monitor/internal/observability/metrics"
	"github.com/serenemind/emotion-monitor/pkg/logging"
)

// Urgency is how promptly an intervention should be surfaced to the user.
type Urgency int

const (
	UrgencyGentle Urgency = iota
	UrgencyModerate
	UrgencyImmediate
)

func (u Urgency) String() string {
	switch u {
	case UrgencyImmediate:
		return "immediate"
	case UrgencyModerate:
		return "moderate"
	default:
		return "gentle"
	}
}

// Record is one fired intervention. Immutable once created.
type Record struct {
	ID              string           `json:"id"`
	Severity        emotion.Severity `json:"severity"`
	DominantEmotion string           `json:"dominant_emotion"`
	Response        string           `json:"response"`
	Urgency         Urgency          `json:"urgency"`
	FollowUpActions []string         `json:"follow_up_actions"`
	FiredAt         time.Time        `json:"fired_at"`
}

// Per-tier minimum intervals between firings. The cooldown clock itself is
// global: any firing resets lastFiredAt, and each incoming event is checked
// against its own tier's interval only. A High event arriving shortly after
// a Low firing is therefore suppressed until 10s after that Low firing.
var cooldowns = map[emotion.Severity]time.Duration{
	emotion.SeverityLow:    60 * time.Second,
	emotion.SeverityMedium: 30 * time.Second,
	emotion.SeverityHigh:   10 * time.Second,
}

const historyCapacity = 100

// Policy is the rate-limited intervention decision function. One instance
// per monitoring session; never shared across sessions.
type Policy struct {
	clk     clock.Clock
	logger  *logging.Logger
	metrics *metrics.PipelineMetrics

	mu          sync.Mutex
	lastFiredAt time.Time
	history     *history
}

// NewPolicy creates an intervention policy with an empty history.
func NewPolicy(clk clock.Clock, logger *logging.Logger, pm *metrics.PipelineMetrics) *Policy {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Policy{
		clk:     clk,
		logger:  logger,
		metrics: pm,
		history: newHistory(historyCapacity),
	}
}

// Decide evaluates one classification. It returns the fired record and true,
// or nil and false when severity is none or the cooldown suppresses firing.
func (p *Policy) Decide(c emotion.Classification) (*Record, bool) {
	if c.Severity == emotion.SeverityNone {
		return nil, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clk.Now()
	if !p.lastFiredAt.IsZero() {
		if elapsed := now.Sub(p.lastFiredAt); elapsed < cooldowns[c.Severity] {
			p.logger.Debug("intervention suppressed by cooldown",
				"severity", c.Severity.String(),
				"emotion", c.DominantEmotion,
				"elapsed", elapsed.String(),
			)
			return nil, false
		}
	}

	response, followUps := lookupTemplate(c.Severity, c.DominantEmotion)
	record := Record{
		ID:              uuid.NewString(),
		Severity:        c.Severity,
		DominantEmotion: c.DominantEmotion,
		Response:        response,
		Urgency:         urgencyFor(c.Severity),
		FollowUpActions: followUps,
		FiredAt:         now,
	}
	p.history.push(record)
	p.lastFiredAt = now

	p.metrics.ObserveIntervention(c.Severity.String())
	p.logger.Info("intervention fired",
		"severity", c.Severity.String(),
		"emotion", c.DominantEmotion,
		"urgency", record.Urgency.String(),
	)
	return &record, true
}

// History returns a copy of fired interventions, oldest first. At most the
// last 100 are retained.
func (p *Policy) History() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.snapshot()
}

// LastFiredAt returns when the policy last fired, or the zero time if never.
func (p *Policy) LastFiredAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastFiredAt
}
