// Package httpserver runs the health-check API behind a validated
// http.Server with graceful shutdown.
package httpserver
