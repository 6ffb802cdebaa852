package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/semaphore"

	"github.com/angeloszaimis/api-health-checker/internal/endpoint"
)

const (
	// DefaultMethod is the request method of every probe.
	DefaultMethod = http.MethodGet
	// DefaultTimeout bounds a single probe, from request start to response
	// headers.
	DefaultTimeout = 10 * time.Second

	// drainLimit caps how much of a response body is read so the
	// connection can be reused.
	drainLimit = 64 << 10
)

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithMethod overrides DefaultMethod.
func WithMethod(method string) Option {
	return func(e *Engine) {
		if method != "" {
			e.method = method
		}
	}
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithMaxConcurrency limits how many requests of a run are in flight at
// once. Zero, the default, means one in-flight request per endpoint.
func WithMaxConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxConcurrency = n
		}
	}
}

// WithClock sets the clock used to measure latency.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithObserver registers fn to see every event before it is published.
// fn runs on the sequencer goroutine and must not block.
func WithObserver(fn func(Event)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// WithLogger sets the logger for per-probe diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine runs health probes. An Engine is safe for concurrent runs.
type Engine struct {
	client         Doer
	method         string
	timeout        time.Duration
	maxConcurrency int
	clock          clockwork.Clock
	observer       func(Event)
	logger         *slog.Logger
}

// NewEngine creates an Engine that sends probes through client.
func NewEngine(client Doer, opts ...Option) *Engine {
	if client == nil {
		panic("healthcheck: nil client")
	}

	e := &Engine{
		client:  client,
		method:  DefaultMethod,
		timeout: DefaultTimeout,
		clock:   clockwork.NewRealClock(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Timeout returns the per-probe timeout.
func (e *Engine) Timeout() time.Duration {
	return e.timeout
}

// RunAll probes every endpoint concurrently and returns a channel carrying
// one Event per endpoint in completion order. The channel is closed after
// the last event; with no endpoints it is closed immediately. Cancelling
// ctx aborts outstanding requests, which then report Unhealthy.
func (e *Engine) RunAll(ctx context.Context, endpoints []endpoint.Endpoint) <-chan Event {
	total := len(endpoints)
	events := make(chan Event, total)
	if total == 0 {
		close(events)
		return events
	}

	targets := slices.Clone(endpoints)
	results := make(chan Result, total)

	var sem *semaphore.Weighted
	if e.maxConcurrency > 0 {
		sem = semaphore.NewWeighted(int64(e.maxConcurrency))
	}

	for _, target := range targets {
		go func(target endpoint.Endpoint) {
			results <- e.probe(ctx, target, sem)
		}(target)
	}

	go func() {
		defer close(events)
		for completed := 1; completed <= total; completed++ {
			event := Event{
				Result:    <-results,
				Completed: completed,
				Total:     total,
			}
			if e.observer != nil {
				e.observer(event)
			}
			events <- event
		}
	}()

	return events
}

// probe checks one endpoint. Every failure, including a panic in the
// client, is turned into an Unhealthy result here.
func (e *Engine) probe(ctx context.Context, target endpoint.Endpoint, sem *semaphore.Weighted) (result Result) {
	result = Result{
		Name:   target.Name,
		URL:    target.URL,
		Status: Unhealthy,
	}

	defer func() {
		if r := recover(); r != nil {
			result = Result{
				Name:   target.Name,
				URL:    target.URL,
				Status: Unhealthy,
				Error:  fmt.Sprintf("probe panicked: %v", r),
			}
		}
		e.logResult(result)
	}()

	if sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			result.Error = err.Error()
			return result
		}
		defer sem.Release(1)
	}

	probeCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, e.method, target.URL, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if req.URL.Scheme == "" || req.URL.Host == "" {
		result.Error = "endpoint URL must be absolute"
		return result
	}

	start := e.clock.Now()
	res, err := e.client.Do(req)
	result.Latency = e.clock.Since(start)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "request timed out"
		}
		result.Error = msg
		return result
	}
	if res == nil {
		result.Error = "no response"
		return result
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, drainLimit))

	result.StatusCode = res.StatusCode
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		result.Status = Healthy
	} else {
		result.Error = http.StatusText(res.StatusCode)
	}

	return result
}

func (e *Engine) logResult(result Result) {
	if result.Healthy() {
		e.logger.Debug("Endpoint is healthy",
			slog.String("name", result.Name),
			slog.String("url", result.URL),
			slog.Int("status_code", result.StatusCode),
			slog.Duration("latency", result.Latency))
		return
	}

	e.logger.Debug("Endpoint is unhealthy",
		slog.String("name", result.Name),
		slog.String("url", result.URL),
		slog.Int("status_code", result.StatusCode),
		slog.String("error", result.Error))
}
