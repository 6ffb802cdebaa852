package resolver

import (
	"strings"

	"github.com/angeloszaimis/api-health-checker/internal/endpoint"
	"github.com/angeloszaimis/api-health-checker/internal/settings"
)

// Settings keys understood by the resolver.
const (
	KeyEndpoints              = "ApiEndpoints"
	KeyEndpointsByEnvironment = "ApiEndpointsByEnvironment"
	KeyEnvironment            = "Environment"
	KeyEnvironments           = "Environments"
)

// FallbackEnvironments is offered when the document names no environments.
var FallbackEnvironments = []string{"dev", "UAT"}

// Resolution is the outcome of resolving one environment.
type Resolution struct {
	// Environment is the requested name, or the document's Environment
	// value when none was requested. It does not influence Endpoints.
	Environment string
	Endpoints   []endpoint.Endpoint
}

// Resolve returns the endpoints to check for env. An empty env skips the
// environment-scoped lookups. Resolve panics on a nil document.
func Resolve(doc *settings.Document, env string) Resolution {
	if doc == nil {
		panic("resolver: nil settings document")
	}

	res := Resolution{Environment: env}
	if env == "" {
		res.Environment = doc.String(KeyEnvironment)
	}

	res.Endpoints = resolveEndpoints(doc, env)
	if res.Endpoints == nil {
		res.Endpoints = []endpoint.Endpoint{}
	}
	return res
}

func resolveEndpoints(doc *settings.Document, env string) []endpoint.Endpoint {
	if env != "" {
		if endpoints := doc.Endpoints(env + "." + KeyEndpoints); len(endpoints) > 0 {
			return endpoints
		}
		if endpoints := doc.Endpoints(KeyEndpointsByEnvironment + "." + env); len(endpoints) > 0 {
			return endpoints
		}
	}

	if endpoints := doc.Endpoints(KeyEndpoints); len(endpoints) > 0 {
		return endpoints
	}

	for _, section := range doc.Sections() {
		if endpoints := doc.Endpoints(section + "." + KeyEndpoints); len(endpoints) > 0 {
			return endpoints
		}
	}

	return nil
}

// Environments lists the environments a caller can choose from: the
// document's Environments list, else every top-level section that carries
// endpoints, else FallbackEnvironments.
func Environments(doc *settings.Document) []string {
	if doc == nil {
		panic("resolver: nil settings document")
	}

	if envs := doc.Strings(KeyEnvironments); len(envs) > 0 {
		return envs
	}

	var envs []string
	for _, section := range doc.Sections() {
		if len(doc.Endpoints(section+"."+KeyEndpoints)) > 0 {
			envs = append(envs, section)
		}
	}
	if len(envs) > 0 {
		return envs
	}

	return append([]string(nil), FallbackEnvironments...)
}

// DefaultEnvironment picks the initial selection among envs: the document's
// Environment value, else the first of envs. When a member of envs matches
// the choice case-insensitively, that member is returned.
func DefaultEnvironment(doc *settings.Document, envs []string) string {
	if doc == nil {
		panic("resolver: nil settings document")
	}

	env := doc.String(KeyEnvironment)
	if env == "" && len(envs) > 0 {
		env = envs[0]
	}

	for _, candidate := range envs {
		if strings.EqualFold(candidate, env) {
			return candidate
		}
	}
	return env
}
