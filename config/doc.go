// Package config handles loading and parsing of the application configuration
// from YAML files and environment variables. It defines server settings,
// probe behaviour (method, timeout, concurrency), where to find the endpoint
// settings document, and the watch interval.
package config
