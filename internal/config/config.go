package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration. Severity thresholds and response
// templates are fixed in code; everything timing- or endpoint-related is
// settable from the environment with defaults matching production behavior.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Inference service connection
	InferenceURL     string
	InferenceAPIKey  string
	ConnectTimeout   time.Duration
	ReconnectDelay   time.Duration
	ResponseTimeout  time.Duration
	CaptureInterval  time.Duration

	// Alert fan-out
	AlertCooldown   time.Duration
	AlertScoreFloor float64

	// Contact IDs notified by the alert fan-out
	AlertContacts []string

	// Optional Redis-backed alert cooldown (survives restarts)
	RedisAddr     string
	RedisPassword string

	// Demo frame source directory (empty disables the local source)
	FrameDir string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		InferenceURL:    getEnv("INFERENCE_URL", "wss://api.hume.ai/v0/stream/models"),
		InferenceAPIKey: getEnv("INFERENCE_API_KEY", ""),
		ConnectTimeout:  getEnvAsDuration("CONNECT_TIMEOUT", 10*time.Second),
		ReconnectDelay:  getEnvAsDuration("RECONNECT_DELAY", 3*time.Second),
		ResponseTimeout: getEnvAsDuration("RESPONSE_TIMEOUT", 5*time.Second),
		CaptureInterval: getEnvAsDuration("CAPTURE_INTERVAL", time.Second),
		AlertCooldown:   getEnvAsDuration("ALERT_COOLDOWN", 300*time.Second),
		AlertScoreFloor: getEnvAsFloat("ALERT_SCORE_FLOOR", 0.7),
		AlertContacts:   getEnvAsSlice("ALERT_CONTACTS"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		FrameDir:        getEnv("FRAME_DIR", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice parses a comma-separated environment variable.
func getEnvAsSlice(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
