package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/angeloszaimis/api-health-checker/internal/endpoint"
)

const maxLatencySamples = 1000

type Metrics struct {
	mutex           sync.RWMutex
	runsStarted     int64
	runsCompleted   int64
	lastEnvironment string
	lastRun         time.Time
	checks          map[endpoint.Endpoint]int64
	healthyChecks   map[endpoint.Endpoint]int64
	latencies       map[endpoint.Endpoint][]time.Duration
	statusCodes     map[endpoint.Endpoint]map[int]int64
	healthStatus    map[endpoint.Endpoint]bool
	lastChecked     map[endpoint.Endpoint]time.Time
	startTime       time.Time
}

// Key names an endpoint in Snapshot.Endpoints. Endpoints sharing a URL
// under different names are tracked separately.
func Key(name, url string) string {
	return endpoint.Endpoint{Name: name, URL: url}.String()
}

type Snapshot struct {
	RunsStarted     int64                      `json:"runs_started"`
	RunsCompleted   int64                      `json:"runs_completed"`
	TotalChecks     int64                      `json:"total_checks"`
	LastEnvironment string                     `json:"last_environment,omitempty"`
	LastRun         time.Time                  `json:"last_run,omitempty"`
	Uptime          time.Duration              `json:"uptime"`
	Endpoints       map[string]EndpointMetrics `json:"endpoints"`
}

type EndpointMetrics struct {
	Name          string        `json:"name"`
	URL           string        `json:"url"`
	Checks        int64         `json:"checks"`
	HealthyChecks int64         `json:"healthy_checks"`
	Healthy       bool          `json:"healthy"`
	LastChecked   time.Time     `json:"last_checked"`
	AvgLatency    time.Duration `json:"avg_latency"`
	P50Latency    time.Duration `json:"p50_latency"`
	P95Latency    time.Duration `json:"p95_latency"`
	P99Latency    time.Duration `json:"p99_latency"`
	StatusCodes   map[int]int64 `json:"status_codes,omitempty"`
}

func (m *Metrics) RecordRunStarted(environment string, at time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.runsStarted++
	m.lastEnvironment = environment
	m.lastRun = at
}

func (m *Metrics) RecordRunCompleted(environment string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.runsCompleted++
}

// RecordProbe records one probe outcome. A zero statusCode means no
// response was received and is not counted in the distribution.
func (m *Metrics) RecordProbe(url, name string, healthy bool, statusCode int, latency time.Duration, at time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	ep := endpoint.Endpoint{Name: name, URL: url}

	m.checks[ep]++
	if healthy {
		m.healthyChecks[ep]++
	}
	m.healthStatus[ep] = healthy
	m.lastChecked[ep] = at

	m.latencies[ep] = append(m.latencies[ep], latency)
	if len(m.latencies[ep]) > maxLatencySamples {
		m.latencies[ep] = m.latencies[ep][1:]
	}

	if statusCode == 0 {
		return
	}
	if m.statusCodes[ep] == nil {
		m.statusCodes[ep] = make(map[int]int64)
	}
	m.statusCodes[ep][statusCode]++
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		RunsStarted:     m.runsStarted,
		RunsCompleted:   m.runsCompleted,
		LastEnvironment: m.lastEnvironment,
		LastRun:         m.lastRun,
		Uptime:          time.Since(m.startTime),
		Endpoints:       make(map[string]EndpointMetrics, len(m.checks)),
	}

	for ep, checks := range m.checks {
		snap.TotalChecks += checks

		em := EndpointMetrics{
			Name:          ep.Name,
			URL:           ep.URL,
			Checks:        checks,
			HealthyChecks: m.healthyChecks[ep],
			Healthy:       m.healthStatus[ep],
			LastChecked:   m.lastChecked[ep],
		}

		if codes := m.statusCodes[ep]; len(codes) > 0 {
			em.StatusCodes = make(map[int]int64, len(codes))
			for code, n := range codes {
				em.StatusCodes[code] = n
			}
		}

		durations := m.latencies[ep]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			em.AvgLatency = average(sorted)
			em.P50Latency = percentile(sorted, 0.50)
			em.P95Latency = percentile(sorted, 0.95)
			em.P99Latency = percentile(sorted, 0.99)
		}

		snap.Endpoints[ep.String()] = em
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		checks:        make(map[endpoint.Endpoint]int64),
		healthyChecks: make(map[endpoint.Endpoint]int64),
		latencies:     make(map[endpoint.Endpoint][]time.Duration),
		statusCodes:   make(map[endpoint.Endpoint]map[int]int64),
		healthStatus:  make(map[endpoint.Endpoint]bool),
		lastChecked:   make(map[endpoint.Endpoint]time.Time),
		startTime:     time.Now(),
	}
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
