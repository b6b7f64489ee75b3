package redis

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewRedisBroker_InvalidURL(t *testing.T) {
	log := zerolog.Nop()
	_, err := NewRedisBroker(context.Background(), DefaultConfig("not-a-redis-url"), &log)
	assert.ErrorContains(t, err, "failed to parse Redis URL")
}

func TestNewRedisBroker_Unreachable(t *testing.T) {
	log := zerolog.Nop()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	cfg := DefaultConfig("redis://127.0.0.1:1/0")
	cfg.MaxRetries = -1
	_, err := NewRedisBroker(ctx, cfg, &log)
	assert.ErrorContains(t, err, "failed to connect to Redis")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("redis://localhost:6379/0")
	assert.Equal(t, "redis://localhost:6379/0", cfg.URL)
	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.OpenTimeout)
}
