package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/angeloszaimis/api-health-checker/internal/healthcheck"
)

type EventType string

const (
	EventRunStarted     EventType = "run_started"
	EventProbeCompleted EventType = "probe_completed"
	EventRunCompleted   EventType = "run_completed"
)

type MetricEvent struct {
	Type        EventType
	Timestamp   time.Time
	Environment string
	Endpoint    string
	Name        string
	Healthy     bool
	StatusCode  int
	Duration    time.Duration
	Total       int
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit offers event to the collector without blocking.
func (c *Collector) Emit(event MetricEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
		c.logger.Debug("Metrics buffer full, dropping event", slog.String("type", string(event.Type)))
	}
}

// Observer returns a probe observer that records every completed probe of
// a run against env. The final event of a run also records the run's
// completion.
func (c *Collector) Observer(env string) func(healthcheck.Event) {
	return func(event healthcheck.Event) {
		if event.Completed == 1 {
			c.Emit(MetricEvent{
				Type:        EventRunStarted,
				Environment: env,
				Total:       event.Total,
			})
		}

		c.Emit(MetricEvent{
			Type:        EventProbeCompleted,
			Environment: env,
			Endpoint:    event.Result.URL,
			Name:        event.Result.Name,
			Healthy:     event.Result.Healthy(),
			StatusCode:  event.Result.StatusCode,
			Duration:    event.Result.Latency,
		})

		if event.Completed == event.Total {
			c.Emit(MetricEvent{
				Type:        EventRunCompleted,
				Environment: env,
				Total:       event.Total,
			})
		}
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRunStarted:
		c.metrics.RecordRunStarted(event.Environment, event.Timestamp)

	case EventProbeCompleted:
		c.metrics.RecordProbe(event.Endpoint, event.Name, event.Healthy, event.StatusCode, event.Duration, event.Timestamp)

	case EventRunCompleted:
		c.metrics.RecordRunCompleted(event.Environment)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
