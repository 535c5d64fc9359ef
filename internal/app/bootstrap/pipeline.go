// Package bootstrap wires pipeline components from configuration.
package bootstrap

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/serenemind/emotion-monitor/internal/alert"
	"github.com/serenemind/emotion-monitor/internal/clock"
	appconfig "github.com/serenemind/emotion-monitor/internal/config"
	"github.com/serenemind/emotion-monitor/internal/frames"
	"github.com/serenemind/emotion-monitor/internal/intervention"
	"github.com/serenemind/emotion-monitor/internal/observability/metrics"
	"github.com/serenemind/emotion-monitor/internal/session"
	"github.com/serenemind/emotion-monitor/internal/stream"
	"github.com/serenemind/emotion-monitor/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil so the
// pipeline falls back to the in-memory cooldown.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, using in-memory alert cooldown", "error", err)
		return nil
	}
	return client
}

// BuildCooldownStore returns the Redis-backed alert cooldown when Redis is
// available, else the in-memory store.
func BuildCooldownStore(redisClient *redis.Client, scope string) alert.CooldownStore {
	if redisClient == nil {
		return alert.NewMemoryCooldownStore()
	}
	return alert.NewRedisCooldownStore(redisClient, scope)
}

// BuildSession assembles a monitoring session from configuration. The
// contact directory and notifier come from the caller: they belong to the
// surrounding application, not this pipeline.
func BuildSession(cfg *appconfig.Config, source frames.Source, contacts alert.ContactDirectory, notifier alert.Notifier, store alert.CooldownStore, logger *logging.Logger, pm *metrics.PipelineMetrics) *session.Session {
	if logger == nil {
		logger = logging.Default()
	}
	clk := clock.Real{}

	manager := stream.NewManager(stream.Config{
		URL:            cfg.InferenceURL,
		APIKey:         cfg.InferenceAPIKey,
		ConnectTimeout: cfg.ConnectTimeout,
		ReconnectDelay: cfg.ReconnectDelay,
	}, stream.NewWebsocketDialer(), clk, logger, pm)

	policy := intervention.NewPolicy(clk, logger, pm)
	fanout := alert.NewFanout(contacts, notifier, store, clk, logger, pm).
		WithCooldown(cfg.AlertCooldown).
		WithScoreFloor(cfg.AlertScoreFloor)

	return session.New(session.Config{
		CaptureInterval: cfg.CaptureInterval,
		ResponseTimeout: cfg.ResponseTimeout,
	}, source, manager, policy, fanout, clk, logger, pm)
}
