package intervention

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serenemind/emotion-monitor/internal/clock"
	"github.com/serenemind/emotion-monitor/internal/emotion"
	"github.com/serenemind/emotion-monitor/pkg/logging"
)

func testPolicy(clk clock.Clock) *Policy {
	return NewPolicy(clk, logging.NewWithWriter("error", io.Discard), nil)
}

func classification(severity emotion.Severity, name string, score float64) emotion.Classification {
	return emotion.Classification{
		DominantEmotion: name,
		MaxScore:        score,
		Severity:        severity,
		IsNegative:      severity != emotion.SeverityNone,
	}
}

func TestDecideRejectsSeverityNone(t *testing.T) {
	p := testPolicy(clock.NewFake(time.Unix(0, 0)))

	rec, fired := p.Decide(classification(emotion.SeverityNone, "", 0))

	assert.False(t, fired)
	assert.Nil(t, rec)
	assert.Empty(t, p.History())
}

func TestDecideFiresImmediatelyOnFirstEvent(t *testing.T) {
	clk := clock.NewFake(time.Unix(1000, 0))
	p := testPolicy(clk)

	rec, fired := p.Decide(classification(emotion.SeverityHigh, "sadness", 0.9))

	require.True(t, fired)
	require.NotNil(t, rec)
	assert.Equal(t, emotion.SeverityHigh, rec.Severity)
	assert.Equal(t, "sadness", rec.DominantEmotion)
	assert.Equal(t, UrgencyImmediate, rec.Urgency)
	assert.NotEmpty(t, rec.Response)
	assert.NotEmpty(t, rec.FollowUpActions)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, clk.Now(), rec.FiredAt)
}

func TestHighCooldownSuppressesWithinTenSeconds(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	p := testPolicy(clk)

	_, fired := p.Decide(classification(emotion.SeverityHigh, "fear", 0.9))
	require.True(t, fired)

	clk.Advance(5 * time.Second)
	_, fired = p.Decide(classification(emotion.SeverityHigh, "fear", 0.92))
	assert.False(t, fired, "second High at t=5s must be suppressed")

	clk.Advance(6 * time.Second) // t=11s
	_, fired = p.Decide(classification(emotion.SeverityHigh, "fear", 0.9))
	assert.True(t, fired, "High at t=11s must fire")
}

func TestGlobalCooldownSuppressesHighAfterLowFiring(t *testing.T) {
	// The cooldown timer is global: a Low firing at t=0 sets lastFiredAt,
	// and a High event at t=5s is checked against High's own 10s interval
	// measured from that Low firing, so it must be suppressed.
	clk := clock.NewFake(time.Unix(0, 0))
	p := testPolicy(clk)

	_, fired := p.Decide(classification(emotion.SeverityLow, "sadness", 0.65))
	require.True(t, fired)

	clk.Advance(5 * time.Second)
	_, fired = p.Decide(classification(emotion.SeverityHigh, "despair", 0.95))
	assert.False(t, fired, "High at t=5s after a Low firing must be suppressed")

	// At t=12s the High event's own 10s interval has elapsed since the Low
	// firing, so it fires even though Low's 60s interval has not.
	clk.Advance(7 * time.Second)
	rec, fired := p.Decide(classification(emotion.SeverityHigh, "despair", 0.95))
	require.True(t, fired)
	assert.Equal(t, emotion.SeverityHigh, rec.Severity)
}

func TestMediumCooldownThirtySeconds(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	p := testPolicy(clk)

	_, fired := p.Decide(classification(emotion.SeverityMedium, "anxiety", 0.8))
	require.True(t, fired)

	clk.Advance(29 * time.Second)
	_, fired = p.Decide(classification(emotion.SeverityMedium, "anxiety", 0.8))
	assert.False(t, fired)

	clk.Advance(time.Second)
	_, fired = p.Decide(classification(emotion.SeverityMedium, "anxiety", 0.8))
	assert.True(t, fired)
}

func TestTemplateFallbackUsesEmotionName(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	p := testPolicy(clk)

	// "disgust" has no specific template at High severity.
	rec, fired := p.Decide(classification(emotion.SeverityHigh, "disgust", 0.9))

	require.True(t, fired)
	assert.Contains(t, rec.Response, "disgust")
	assert.NotEmpty(t, rec.FollowUpActions)
}

func TestSpecificTemplatePreferred(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	p := testPolicy(clk)

	rec, fired := p.Decide(classification(emotion.SeverityMedium, "anger", 0.8))

	require.True(t, fired)
	assert.Contains(t, rec.Response, "frustrating")
	assert.Equal(t, UrgencyModerate, rec.Urgency)
}

func TestUrgencyMapping(t *testing.T) {
	assert.Equal(t, UrgencyImmediate, urgencyFor(emotion.SeverityHigh))
	assert.Equal(t, UrgencyModerate, urgencyFor(emotion.SeverityMedium))
	assert.Equal(t, UrgencyGentle, urgencyFor(emotion.SeverityLow))
}

func TestHistoryBoundedAtCapacity(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	p := testPolicy(clk)

	// 101 firings, each past the High cooldown.
	for i := 0; i < 101; i++ {
		rec, fired := p.Decide(classification(emotion.SeverityHigh, "sadness", 0.9))
		require.True(t, fired, "firing %d", i)
		require.NotNil(t, rec)
		clk.Advance(11 * time.Second)
	}

	hist := p.History()
	require.Len(t, hist, 100, "history must not exceed capacity")
	// The first record (FiredAt == t0) was evicted; the oldest retained one
	// is the second firing.
	assert.Equal(t, time.Unix(0, 0).Add(11*time.Second), hist[0].FiredAt)
	assert.True(t, hist[99].FiredAt.After(hist[0].FiredAt))
}

func TestHistoryOrderedOldestFirst(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	p := testPolicy(clk)

	for i := 0; i < 5; i++ {
		_, fired := p.Decide(classification(emotion.SeverityHigh, "fear", 0.9))
		require.True(t, fired)
		clk.Advance(time.Minute)
	}

	hist := p.History()
	require.Len(t, hist, 5)
	for i := 1; i < len(hist); i++ {
		assert.True(t, hist[i].FiredAt.After(hist[i-1].FiredAt))
	}
}

func TestRingBufferEviction(t *testing.T) {
	h := newHistory(3)
	for i := 1; i <= 5; i++ {
		h.push(Record{ID: fmt.Sprintf("r%d", i)})
	}

	assert.Equal(t, 3, h.len())
	snap := h.snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "r3", snap[0].ID)
	assert.Equal(t, "r4", snap[1].ID)
	assert.Equal(t, "r5", snap[2].ID)
}
