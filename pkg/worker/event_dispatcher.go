package worker

import (
	"context"
	"errors"
	"time"

	"github.com/careprep/ai-service/pkg/circuitbreaker"
	"github.com/careprep/ai-service/pkg/logger"
	"github.com/careprep/ai-service/pkg/messaging"
	"github.com/careprep/ai-service/pkg/metrics"
)

// ErrQueueFull is returned by Publish when the dispatcher cannot accept more events.
var ErrQueueFull = errors.New("worker: event queue full")

type EventDispatcherConfig struct {
	QueueSize     int
	RetryAttempts int
	RetryDelay    time.Duration
	// DrainTimeout bounds delivery of queued events after shutdown starts.
	DrainTimeout time.Duration
}

func DefaultEventDispatcherConfig() EventDispatcherConfig {
	return EventDispatcherConfig{
		QueueSize:     256,
		RetryAttempts: 3,
		RetryDelay:    200 * time.Millisecond,
		DrainTimeout:  5 * time.Second,
	}
}

type envelope struct {
	channel string
	message interface{}
}

// EventDispatcher is a Publisher that queues events in memory and delivers
// them to the broker from a single goroutine, so callers never wait on the
// broker.
type EventDispatcher struct {
	broker  messaging.Publisher
	queue   chan envelope
	config  EventDispatcherConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewEventDispatcher(
	broker messaging.Publisher,
	config EventDispatcherConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *EventDispatcher {
	if config.QueueSize <= 0 {
		panic("QueueSize must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay < 0 {
		panic("RetryDelay must not be negative")
	}

	return &EventDispatcher{
		broker:  broker,
		queue:   make(chan envelope, config.QueueSize),
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// Publish enqueues message without blocking.
func (d *EventDispatcher) Publish(_ context.Context, channel string, message interface{}) error {
	select {
	case d.queue <- envelope{channel: channel, message: message}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start delivers events until ctx is done, then drains what is left within
// DrainTimeout.
func (d *EventDispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting event dispatcher")

	for {
		select {
		case <-ctx.Done():
			d.drain()
			d.logger.Info("Shutting down event dispatcher")
			return
		case env := <-d.queue:
			d.dispatch(ctx, env)
		}
	}
}

func (d *EventDispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.DrainTimeout)
	defer cancel()

	for {
		select {
		case env := <-d.queue:
			d.dispatch(ctx, env)
		default:
			return
		}
	}
}

func (d *EventDispatcher) dispatch(ctx context.Context, env envelope) {
	err := retry(ctx, d.config.RetryAttempts, d.config.RetryDelay, func() error {
		return d.broker.Publish(ctx, env.channel, env.message)
	})
	d.metrics.ObserveDelivery(err)
	if err != nil {
		d.logger.Error(err, "Failed to deliver event", "channel", env.channel)
	}
}

// retry stops early when the breaker is open or ctx is done.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, circuitbreaker.ErrOpen) || i == attempts-1 {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
	return err
}
