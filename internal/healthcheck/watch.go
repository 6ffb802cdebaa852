package healthcheck

import (
	"context"
	"log/slog"
	"time"

	"github.com/angeloszaimis/api-health-checker/internal/endpoint"
)

// DefaultInterval is used by Watch when no positive interval is given.
const DefaultInterval = 30 * time.Second

// ResolveFunc supplies the endpoints for one round of Watch.
type ResolveFunc func() []endpoint.Endpoint

// RoundFunc consumes the events of one round. round starts at 1.
type RoundFunc func(round int, events <-chan Event)

// Watch runs a round immediately and then once per interval until ctx is
// done. Endpoints are resolved afresh for every round, and a round always
// finishes before the next one starts.
func (e *Engine) Watch(ctx context.Context, interval time.Duration, resolve ResolveFunc, fn RoundFunc) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := e.clock.NewTicker(interval)
	defer ticker.Stop()

	round := 0
	runRound := func() {
		round++
		events := e.RunAll(ctx, resolve())
		fn(round, events)
		for range events {
		}
	}

	e.logger.Info("Health watch started", slog.Duration("interval", interval))
	runRound()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Health watch stopped", slog.Int("rounds", round))
			return

		case <-ticker.Chan():
			if ctx.Err() != nil {
				continue
			}
			runRound()
		}
	}
}
