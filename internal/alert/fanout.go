// Package alert notifies a user's contacts when a critical, high-confidence
// negative emotion is observed, independently rate-limited from
// interventions.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/serenemind/emotion-monitor/internal/clock"
	"github.com/serenemind/emotion-monitor/internal/emotion"
	"github.com/serenemind/emotion-monitor/internal/observability/metrics"
	"github.com/serenemind/emotion-monitor/pkg/logging"
)

// Contact is one member of the user's social graph.
type Contact struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ContactDirectory supplies the current user's contacts.
type ContactDirectory interface {
	Contacts(ctx context.Context) ([]Contact, error)
}

// Alert is the payload delivered to one recipient.
type Alert struct {
	RecipientID string  `json:"recipient_id"`
	Emotion     string  `json:"emotion"`
	Intensity   float64 `json:"intensity"`
	Message     string  `json:"message"`
}

// Notifier delivers one alert to one recipient.
type Notifier interface {
	Send(ctx context.Context, a Alert) error
}

const (
	defaultCooldown   = 300 * time.Second
	defaultScoreFloor = 0.7
)

// Fanout is the independently rate-limited alert dispatcher. Its cooldown is
// decoupled from the intervention policy's: interventions firing or being
// suppressed never affects whether contacts get alerted.
type Fanout struct {
	contacts   ContactDirectory
	notifier   Notifier
	store      CooldownStore
	clk        clock.Clock
	logger     *logging.Logger
	metrics    *metrics.PipelineMetrics
	cooldown   time.Duration
	scoreFloor float64
}

// NewFanout creates an alert dispatcher. A nil store falls back to the
// in-memory cooldown.
func NewFanout(contacts ContactDirectory, notifier Notifier, store CooldownStore, clk clock.Clock, logger *logging.Logger, pm *metrics.PipelineMetrics) *Fanout {
	if store == nil {
		store = NewMemoryCooldownStore()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Fanout{
		contacts:   contacts,
		notifier:   notifier,
		store:      store,
		clk:        clk,
		logger:     logger,
		metrics:    pm,
		cooldown:   defaultCooldown,
		scoreFloor: defaultScoreFloor,
	}
}

// WithCooldown overrides the minimum interval between alert episodes.
func (f *Fanout) WithCooldown(d time.Duration) *Fanout {
	if d > 0 {
		f.cooldown = d
	}
	return f
}

// WithScoreFloor overrides the confidence bar a critical emotion must clear.
func (f *Fanout) WithScoreFloor(floor float64) *Fanout {
	if floor > 0 {
		f.scoreFloor = floor
	}
	return f
}

// Consider evaluates one classification and fires the fan-out when a
// critical emotion clears the confidence bar and the cooldown has elapsed.
// Delivery is best-effort per recipient; it returns how many contacts were
// reached and whether an alert episode fired at all.
func (f *Fanout) Consider(ctx context.Context, c emotion.Classification) (int, bool) {
	if !c.IsNegative || !emotion.IsCritical(c.DominantEmotion) || c.MaxScore <= f.scoreFloor {
		return 0, false
	}

	now := f.clk.Now()
	lastSentAt, err := f.store.LastSentAt(ctx)
	if err != nil {
		// Fail closed: an unreadable cooldown must not turn into a blast of
		// repeated alerts.
		f.logger.Warn("alert: cooldown store unavailable, suppressing", "error", err)
		return 0, false
	}
	if !lastSentAt.IsZero() && now.Sub(lastSentAt) < f.cooldown {
		f.logger.Debug("alert suppressed by cooldown",
			"emotion", c.DominantEmotion,
			"since_last", now.Sub(lastSentAt).String(),
		)
		return 0, false
	}

	if err := f.store.MarkSent(ctx, now); err != nil {
		f.logger.Error("alert: failed to record cooldown", "error", err)
	}

	contacts, err := f.contacts.Contacts(ctx)
	if err != nil {
		f.logger.Error("alert: failed to load contacts", "error", err)
		return 0, true
	}

	message := fmt.Sprintf("I'm experiencing intense %s and could really use some support right now.", c.DominantEmotion)
	reached := 0
	for _, contact := range contacts {
		a := Alert{
			RecipientID: contact.ID,
			Emotion:     c.DominantEmotion,
			Intensity:   c.MaxScore,
			Message:     message,
		}
		// One failed recipient never blocks the rest, and nothing retries.
		if err := f.notifier.Send(ctx, a); err != nil {
			f.logger.Error("alert: delivery failed", "error", err, "recipient", contact.ID)
			continue
		}
		reached++
	}

	f.metrics.ObserveAlert(reached)
	f.logger.Info("alert fan-out fired",
		"emotion", c.DominantEmotion,
		"intensity", c.MaxScore,
		"recipients_reached", reached,
		"recipients_total", len(contacts),
	)
	return reached, true
}

// StaticContacts is a fixed contact list implementing ContactDirectory.
type StaticContacts []Contact

func (s StaticContacts) Contacts(context.Context) ([]Contact, error) {
	return s, nil
}

// StubNotifier logs alerts instead of delivering them.
type StubNotifier struct {
	logger *logging.Logger
}

// NewStubNotifier creates a log-only notifier.
func NewStubNotifier(logger *logging.Logger) *StubNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubNotifier{logger: logger}
}

// Send logs but doesn't deliver.
func (s *StubNotifier) Send(_ context.Context, a Alert) error {
	s.logger.Info("stub notifier: would send", "recipient", a.RecipientID, "emotion", a.Emotion)
	return nil
}

var _ Notifier = (*StubNotifier)(nil)
var _ ContactDirectory = (StaticContacts)(nil)
