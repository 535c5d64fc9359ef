// Package session runs one user's monitoring pipeline: the periodic
// capture-and-send loop plus the single consumer of connection events,
// feeding classifications to the intervention policy and the alert fan-out.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/serenemind/emotion-monitor/internal/alert"
	"github.com/serenemind/emotion-monitor/internal/clock"
	"github.com/serenemind/emotion-monitor/internal/emotion"
	"github.com/serenemind/emotion-monitor/internal/frames"
	"github.com/serenemind/emotion-monitor/internal/intervention"
	"github.com/serenemind/emotion-monitor/internal/observability/metrics"
	"github.com/serenemind/emotion-monitor/internal/stream"
	"github.com/serenemind/emotion-monitor/pkg/logging"
)

// Streamer is the connection-manager surface the session drives. Satisfied
// by *stream.Manager.
type Streamer interface {
	Start()
	Stop()
	Send(image []byte)
	Events() <-chan stream.Event
	Status() stream.Status
}

// Status aggregates the session's observable state for the HTTP surface.
type Status struct {
	SessionID          string                  `json:"session_id"`
	Connection         stream.Status           `json:"connection"`
	LastClassification *emotion.Classification `json:"last_classification,omitempty"`
	LastIntervention   *intervention.Record    `json:"last_intervention,omitempty"`
	Interventions      int                     `json:"interventions"`
}

// Config holds session timing. Zero values fall back to the production
// cadence (1s capture interval, 5s response timeout).
type Config struct {
	CaptureInterval time.Duration
	ResponseTimeout time.Duration
}

// Session owns one monitoring pipeline. Each user context gets its own
// instance with its own policy and fan-out; nothing here is shared globally.
type Session struct {
	id      string
	cfg     Config
	source  frames.Source
	stream  Streamer
	policy  *intervention.Policy
	fanout  *alert.Fanout
	clk     clock.Clock
	logger  *logging.Logger
	metrics *metrics.PipelineMetrics

	// onIntervention, when set, receives each fired record. The consumer is
	// responsible for presenting it and for muting upstream capture while
	// the user is engaged.
	onIntervention func(intervention.Record)

	mu         sync.Mutex
	running    bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	inFlight   bool
	sentAt     time.Time
	lastClass  *emotion.Classification
	lastRecord *intervention.Record
}

// New creates a session wiring the pipeline components together.
func New(cfg Config, source frames.Source, streamer Streamer, policy *intervention.Policy, fanout *alert.Fanout, clk clock.Clock, logger *logging.Logger, pm *metrics.PipelineMetrics) *Session {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.CaptureInterval <= 0 {
		cfg.CaptureInterval = time.Second
	}
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = 5 * time.Second
	}
	return &Session{
		id:      uuid.NewString(),
		cfg:     cfg,
		source:  source,
		stream:  streamer,
		policy:  policy,
		fanout:  fanout,
		clk:     clk,
		logger:  logger,
		metrics: pm,
	}
}

// OnIntervention registers the presentation callback. Call before Start.
func (s *Session) OnIntervention(fn func(intervention.Record)) {
	s.onIntervention = fn
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// History returns the fired interventions, oldest first.
func (s *Session) History() []intervention.Record {
	return s.policy.History()
}

// Start begins capturing and consuming events. Idempotent.
func (s *Session) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	s.stream.Start()
	s.wg.Add(2)
	go s.captureLoop(ctx)
	go s.consumeLoop(ctx)
	s.logger.Info("session started", "session_id", s.id)
}

// Stop cancels the capture loop, stops the connection manager, and waits for
// both loops to exit. Safe to call repeatedly and before Start.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.stream.Stop()
	s.wg.Wait()
	s.logger.Info("session stopped", "session_id", s.id)
}

// Status returns a snapshot for display consumers.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		SessionID:          s.id,
		Connection:         s.stream.Status(),
		LastClassification: s.lastClass,
		LastIntervention:   s.lastRecord,
		Interventions:      len(s.policy.History()),
	}
}

func (s *Session) captureLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.clk.After(s.cfg.CaptureInterval):
			s.captureTick(ctx)
		}
	}
}

// captureTick sends one frame unless the previous one is still awaiting its
// response. Keeping a single frame in flight preserves send-order processing
// without pipelining; a response that never arrives frees the slot after the
// response timeout.
func (s *Session) captureTick(ctx context.Context) {
	now := s.clk.Now()
	s.mu.Lock()
	if s.inFlight {
		if now.Sub(s.sentAt) < s.cfg.ResponseTimeout {
			s.mu.Unlock()
			return
		}
		s.logger.Debug("session: in-flight frame timed out", "session_id", s.id)
		s.inFlight = false
	}
	s.mu.Unlock()

	image, err := s.source.NextFrame(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("session: frame capture failed", "error", err)
		}
		return
	}
	s.stream.Send(image)

	s.mu.Lock()
	s.inFlight = true
	s.sentAt = now
	s.mu.Unlock()
}

func (s *Session) consumeLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.stream.Events():
			if !ok {
				return
			}
			s.handleEvent(ctx, ev)
		}
	}
}

func (s *Session) handleEvent(ctx context.Context, ev stream.Event) {
	switch ev.Kind {
	case stream.EventFrame:
		s.settleInFlight(true)
		if ev.Frame == nil {
			return
		}
		s.processClassification(ctx, emotion.Classify(*ev.Frame))
	case stream.EventWarning:
		// The outstanding frame produced no classification this tick.
		s.settleInFlight(false)
	case stream.EventStateChange:
		s.logger.Debug("session: connection state",
			"state", ev.Status.State.String(),
			"attempt", ev.Status.Attempt,
		)
	}
}

func (s *Session) processClassification(ctx context.Context, c emotion.Classification) {
	s.metrics.ObserveClassification(c.Severity.String())
	s.mu.Lock()
	s.lastClass = &c
	s.mu.Unlock()

	if record, fired := s.policy.Decide(c); fired {
		s.mu.Lock()
		s.lastRecord = record
		s.mu.Unlock()
		if s.onIntervention != nil {
			s.onIntervention(*record)
		}
	}
	s.fanout.Consider(ctx, c)
}

func (s *Session) settleInFlight(observeLatency bool) {
	now := s.clk.Now()
	s.mu.Lock()
	wasInFlight := s.inFlight
	sentAt := s.sentAt
	s.inFlight = false
	s.mu.Unlock()
	if observeLatency && wasInFlight {
		s.metrics.ObserveInferenceLatency(now.Sub(sentAt).Seconds())
	}
}
