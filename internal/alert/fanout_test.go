package alert

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serenemind/emotion-monitor/internal/clock"
	"github.com/serenemind/emotion-monitor/internal/emotion"
	"github.com/serenemind/emotion-monitor/pkg/logging"
)

type mockNotifier struct {
	sent    []Alert
	failOn  string // fail if RecipientID matches
	callErr error
}

func (m *mockNotifier) Send(_ context.Context, a Alert) error {
	if m.callErr != nil {
		return m.callErr
	}
	if m.failOn != "" && a.RecipientID == m.failOn {
		return errors.New("mock delivery error")
	}
	m.sent = append(m.sent, a)
	return nil
}

type failingStore struct{ err error }

func (s *failingStore) LastSentAt(context.Context) (time.Time, error) { return time.Time{}, s.err }
func (s *failingStore) MarkSent(context.Context, time.Time) error     { return s.err }

func critical(name string, score float64) emotion.Classification {
	return emotion.Classification{
		DominantEmotion: name,
		MaxScore:        score,
		Severity:        emotion.SeverityMedium,
		IsNegative:      true,
	}
}

func testFanout(notifier Notifier, clk clock.Clock, contacts ContactDirectory) *Fanout {
	if contacts == nil {
		contacts = StaticContacts{{ID: "c1", Name: "Ana"}, {ID: "c2", Name: "Ben"}}
	}
	return NewFanout(contacts, notifier, nil, clk, logging.NewWithWriter("error", io.Discard), nil)
}

func TestFanoutFiresAboveScoreFloor(t *testing.T) {
	notifier := &mockNotifier{}
	f := testFanout(notifier, clock.NewFake(time.Unix(0, 0)), nil)

	reached, fired := f.Consider(context.Background(), critical("sadness", 0.71))

	require.True(t, fired)
	assert.Equal(t, 2, reached)
	require.Len(t, notifier.sent, 2)
	assert.Equal(t, "c1", notifier.sent[0].RecipientID)
	assert.Equal(t, "sadness", notifier.sent[0].Emotion)
	assert.Equal(t, 0.71, notifier.sent[0].Intensity)
	assert.Equal(t, "I'm experiencing intense sadness and could really use some support right now.", notifier.sent[0].Message)
}

func TestFanoutRequiresScoreStrictlyAboveFloor(t *testing.T) {
	notifier := &mockNotifier{}
	f := testFanout(notifier, clock.NewFake(time.Unix(0, 0)), nil)

	_, fired := f.Consider(context.Background(), critical("fear", 0.7))

	assert.False(t, fired)
	assert.Empty(t, notifier.sent)
}

func TestFanoutIgnoresNonCriticalEmotions(t *testing.T) {
	notifier := &mockNotifier{}
	f := testFanout(notifier, clock.NewFake(time.Unix(0, 0)), nil)

	// Moderate-set emotion, arbitrarily high score: still no alert.
	_, fired := f.Consider(context.Background(), critical("anger", 0.99))

	assert.False(t, fired)
	assert.Empty(t, notifier.sent)
}

func TestFanoutIgnoresPositiveClassifications(t *testing.T) {
	notifier := &mockNotifier{}
	f := testFanout(notifier, clock.NewFake(time.Unix(0, 0)), nil)

	_, fired := f.Consider(context.Background(), emotion.Classification{
		DominantEmotion: "joy",
		MaxScore:        0.95,
		Severity:        emotion.SeverityNone,
		IsNegative:      false,
	})

	assert.False(t, fired)
}

func TestFanoutCooldownSuppressesForFiveMinutes(t *testing.T) {
	notifier := &mockNotifier{}
	clk := clock.NewFake(time.Unix(0, 0))
	f := testFanout(notifier, clk, nil)
	ctx := context.Background()

	_, fired := f.Consider(ctx, critical("despair", 0.9))
	require.True(t, fired)

	// Repeated critical events inside the window, any severity: suppressed.
	for _, advance := range []time.Duration{10 * time.Second, 2 * time.Minute, 2 * time.Minute} {
		clk.Advance(advance)
		_, fired = f.Consider(ctx, critical("despair", 0.95))
		assert.False(t, fired)
	}

	// Past 300s since the first alert, the next one fires.
	clk.Advance(time.Minute)
	_, fired = f.Consider(ctx, critical("despair", 0.95))
	assert.True(t, fired)
}

func TestFanoutDeliveryFailureDoesNotBlockOthers(t *testing.T) {
	notifier := &mockNotifier{failOn: "c1"}
	f := testFanout(notifier, clock.NewFake(time.Unix(0, 0)), nil)

	reached, fired := f.Consider(context.Background(), critical("hopelessness", 0.8))

	require.True(t, fired)
	assert.Equal(t, 1, reached)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "c2", notifier.sent[0].RecipientID)
}

func TestFanoutStoreErrorSuppressesAlert(t *testing.T) {
	notifier := &mockNotifier{}
	f := NewFanout(
		StaticContacts{{ID: "c1"}},
		notifier,
		&failingStore{err: errors.New("redis down")},
		clock.NewFake(time.Unix(0, 0)),
		logging.NewWithWriter("error", io.Discard),
		nil,
	)

	_, fired := f.Consider(context.Background(), critical("sadness", 0.9))

	assert.False(t, fired)
	assert.Empty(t, notifier.sent)
}

func TestFanoutEmptyContactListStillMarksEpisode(t *testing.T) {
	notifier := &mockNotifier{}
	clk := clock.NewFake(time.Unix(0, 0))
	f := testFanout(notifier, clk, StaticContacts{})
	ctx := context.Background()

	reached, fired := f.Consider(ctx, critical("fear", 0.9))
	require.True(t, fired)
	assert.Zero(t, reached)

	clk.Advance(10 * time.Second)
	_, fired = f.Consider(ctx, critical("fear", 0.9))
	assert.False(t, fired, "cooldown applies even when nobody was reachable")
}

func TestFanoutCustomCooldownAndFloor(t *testing.T) {
	notifier := &mockNotifier{}
	clk := clock.NewFake(time.Unix(0, 0))
	f := testFanout(notifier, clk, nil).WithCooldown(30 * time.Second).WithScoreFloor(0.9)
	ctx := context.Background()

	_, fired := f.Consider(ctx, critical("sadness", 0.85))
	assert.False(t, fired, "below raised floor")

	_, fired = f.Consider(ctx, critical("sadness", 0.95))
	require.True(t, fired)

	clk.Advance(31 * time.Second)
	_, fired = f.Consider(ctx, critical("sadness", 0.95))
	assert.True(t, fired, "shortened cooldown elapsed")
}
