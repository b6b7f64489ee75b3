package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careprep/ai-service/pkg/circuitbreaker"
	"github.com/careprep/ai-service/pkg/logger"
	"github.com/careprep/ai-service/pkg/metrics"
)

type fakeBroker struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
	received []interface{}
}

func (b *fakeBroker) Publish(_ context.Context, _ string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.failures > 0 {
		b.failures--
		return b.err
	}
	b.received = append(b.received, message)
	return nil
}

func (b *fakeBroker) snapshot() (int, []interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls, append([]interface{}(nil), b.received...)
}

func testConfig() EventDispatcherConfig {
	return EventDispatcherConfig{QueueSize: 4, RetryAttempts: 3, RetryDelay: time.Millisecond, DrainTimeout: time.Second}
}

func run(d *EventDispatcher) (cancel func()) {
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()
	return func() {
		stop()
		<-done
	}
}

func TestEventDispatcher_DeliversInOrder(t *testing.T) {
	broker := &fakeBroker{}
	m := metrics.NewMetrics("test", "worker", prometheus.NewRegistry())
	d := NewEventDispatcher(broker, testConfig(), logger.Nop(), m)

	stop := run(d)
	for i := 0; i < 3; i++ {
		require.NoError(t, d.Publish(context.Background(), "events", i))
	}
	require.Eventually(t, func() bool {
		_, got := broker.snapshot()
		return len(got) == 3
	}, time.Second, 5*time.Millisecond)
	stop()

	_, got := broker.snapshot()
	assert.Equal(t, []interface{}{0, 1, 2}, got)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.EventsDelivered.WithLabelValues("ok")))
}

func TestEventDispatcher_RetriesThenGivesUp(t *testing.T) {
	broker := &fakeBroker{failures: 4, err: errors.New("redis down")}
	m := metrics.NewMetrics("test", "worker", prometheus.NewRegistry())
	d := NewEventDispatcher(broker, testConfig(), logger.Nop(), m)

	require.NoError(t, d.Publish(context.Background(), "events", "first"))
	require.NoError(t, d.Publish(context.Background(), "events", "second"))
	stop := run(d)
	require.Eventually(t, func() bool {
		calls, _ := broker.snapshot()
		return calls == 5
	}, time.Second, 5*time.Millisecond)
	stop()

	// first: three failed attempts; second: one failure then delivered.
	_, got := broker.snapshot()
	assert.Equal(t, []interface{}{"second"}, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsDelivered.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsDelivered.WithLabelValues("ok")))
}

func TestEventDispatcher_OpenBreakerIsNotRetried(t *testing.T) {
	broker := &fakeBroker{failures: 1, err: circuitbreaker.ErrOpen}
	d := NewEventDispatcher(broker, testConfig(), logger.Nop(), nil)

	require.NoError(t, d.Publish(context.Background(), "events", "x"))
	run(d)()

	calls, got := broker.snapshot()
	assert.Equal(t, 1, calls)
	assert.Empty(t, got)
}

func TestEventDispatcher_QueueFull(t *testing.T) {
	d := NewEventDispatcher(&fakeBroker{}, EventDispatcherConfig{QueueSize: 1, RetryAttempts: 1, DrainTimeout: time.Second}, logger.Nop(), nil)

	require.NoError(t, d.Publish(context.Background(), "events", 1))
	assert.ErrorIs(t, d.Publish(context.Background(), "events", 2), ErrQueueFull)
}

func TestEventDispatcher_DrainsOnShutdown(t *testing.T) {
	broker := &fakeBroker{}
	d := NewEventDispatcher(broker, testConfig(), logger.Nop(), nil)
	for i := 0; i < 4; i++ {
		require.NoError(t, d.Publish(context.Background(), "events", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)

	_, got := broker.snapshot()
	assert.Len(t, got, 4)
}

func TestNewEventDispatcher_InvalidConfig(t *testing.T) {
	assert.Panics(t, func() {
		NewEventDispatcher(&fakeBroker{}, EventDispatcherConfig{}, logger.Nop(), nil)
	})
}
