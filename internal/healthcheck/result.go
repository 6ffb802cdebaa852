package healthcheck

import (
	"fmt"
	"strings"
	"time"
)

// Status classifies a probed endpoint.
type Status int

const (
	Unhealthy Status = iota
	Healthy
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "Healthy"
	case Unhealthy:
		return "Unhealthy"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name, ignoring case.
func (s *Status) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "healthy":
		*s = Healthy
	case "unhealthy":
		*s = Unhealthy
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// Result is the outcome of probing one endpoint. StatusCode, Latency and
// Error are diagnostics; only Status classifies the endpoint.
type Result struct {
	Name       string        `json:"name" yaml:"name"`
	URL        string        `json:"url" yaml:"url"`
	Status     Status        `json:"status" yaml:"status"`
	StatusCode int           `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Latency    time.Duration `json:"latency" yaml:"latency"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Healthy reports whether the endpoint was reachable.
func (r Result) Healthy() bool {
	return r.Status == Healthy
}

// Event announces one completed probe. Completed counts results delivered
// so far in this run, including this one; Total is fixed for the run.
type Event struct {
	Result    Result `json:"result" yaml:"result"`
	Completed int    `json:"completed" yaml:"completed"`
	Total     int    `json:"total" yaml:"total"`
}

// Summary aggregates the results of one run in completion order.
type Summary struct {
	Total     int      `json:"total" yaml:"total"`
	Healthy   int      `json:"healthy" yaml:"healthy"`
	Unhealthy int      `json:"unhealthy" yaml:"unhealthy"`
	Results   []Result `json:"results" yaml:"results"`
}

// AllHealthy reports whether every endpoint in the run was reachable.
func (s Summary) AllHealthy() bool {
	return s.Unhealthy == 0
}

// Add folds one event into the summary.
func (s *Summary) Add(event Event) {
	s.Total = event.Total
	s.Results = append(s.Results, event.Result)
	if event.Result.Healthy() {
		s.Healthy++
	} else {
		s.Unhealthy++
	}
}

// Collect drains events and returns their aggregate. It blocks until the
// run is complete.
func Collect(events <-chan Event) Summary {
	summary := Summary{Results: []Result{}}
	for event := range events {
		summary.Add(event)
	}
	return summary
}
