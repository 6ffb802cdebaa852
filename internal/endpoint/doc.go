// Package endpoint defines the named URL that the health checker probes.
// Endpoints are plain values: once resolved from the settings document they
// are copied, never mutated.
package endpoint
