package alert

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CooldownStore tracks when the last alert episode fired. One instance per
// running pipeline gates the single outgoing alert channel.
type CooldownStore interface {
	// LastSentAt returns the time of the last alert, or the zero time when
	// no alert has been sent.
	LastSentAt(ctx context.Context) (time.Time, error)
	MarkSent(ctx context.Context, t time.Time) error
}

// MemoryCooldownStore keeps the cooldown in process memory.
type MemoryCooldownStore struct {
	mu         sync.Mutex
	lastSentAt time.Time
}

func NewMemoryCooldownStore() *MemoryCooldownStore {
	return &MemoryCooldownStore{}
}

func (s *MemoryCooldownStore) LastSentAt(context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSentAt, nil
}

func (s *MemoryCooldownStore) MarkSent(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSentAt = t
	return nil
}

// RedisCooldownStore keeps the cooldown in Redis so it survives process
// restarts: a crash right after an alert must not produce a second blast of
// messages to the user's contacts on startup.
type RedisCooldownStore struct {
	client *redis.Client
	key    string
}

// NewRedisCooldownStore creates a Redis-backed store. sessionScope
// distinguishes users sharing one Redis.
func NewRedisCooldownStore(client *redis.Client, sessionScope string) *RedisCooldownStore {
	return &RedisCooldownStore{
		client: client,
		key:    "emotionmonitor:alert:last_sent_at:" + sessionScope,
	}
}

func (s *RedisCooldownStore) LastSentAt(ctx context.Context) (time.Time, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("alert: read cooldown: %w", err)
	}
	nanos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("alert: parse cooldown: %w", err)
	}
	return time.Unix(0, nanos), nil
}

func (s *RedisCooldownStore) MarkSent(ctx context.Context, t time.Time) error {
	if err := s.client.Set(ctx, s.key, strconv.FormatInt(t.UnixNano(), 10), 0).Err(); err != nil {
		return fmt.Errorf("alert: write cooldown: %w", err)
	}
	return nil
}

var _ CooldownStore = (*MemoryCooldownStore)(nil)
var _ CooldownStore = (*RedisCooldownStore)(nil)
