package resolver

import (
	"log/slog"
	"sync"

	"github.com/angeloszaimis/api-health-checker/internal/endpoint"
	"github.com/angeloszaimis/api-health-checker/internal/settings"
)

// Resolver remembers the selected environment across resolutions for
// interactive callers that switch environments.
type Resolver struct {
	mutex       sync.Mutex
	doc         *settings.Document
	logger      *slog.Logger
	environment string
}

// New creates a Resolver over doc with no environment selected.
func New(doc *settings.Document, logger *slog.Logger) *Resolver {
	if doc == nil {
		panic("resolver: nil settings document")
	}
	return &Resolver{doc: doc, logger: logger}
}

// SetEnvironment selects env for subsequent resolutions.
func (r *Resolver) SetEnvironment(env string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.environment = env
}

// Environment returns the selected environment.
func (r *Resolver) Environment() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.environment
}

// Resolve resolves the selected environment. With none selected, the
// session first selects the document's default environment, so the
// reported environment always names the endpoints that were resolved.
func (r *Resolver) Resolve() Resolution {
	r.mutex.Lock()
	if r.environment == "" {
		r.environment = DefaultEnvironment(r.doc, Environments(r.doc))
	}
	env := r.environment
	r.mutex.Unlock()

	res := Resolve(r.doc, env)
	r.logResolution(res)
	return res
}

func (r *Resolver) logResolution(res Resolution) {
	if r.logger == nil {
		return
	}

	r.logger.Debug("Resolved endpoints",
		slog.String("environment", res.Environment),
		slog.Int("count", len(res.Endpoints)))

	if len(res.Endpoints) == 0 {
		r.logger.Warn("No endpoints configured",
			slog.String("environment", res.Environment))
		return
	}

	for _, v := range endpoint.Invalid(res.Endpoints) {
		r.logger.Warn("Endpoint will fail its probe",
			slog.Int("position", v.Position),
			slog.String("name", res.Endpoints[v.Position].Name),
			slog.String("url", res.Endpoints[v.Position].URL),
			slog.String("error", v.Err.Error()))
	}
}
