// Package handler exposes health checks over HTTP.
//
// Routes:
//
//	GET /health             liveness, plain "ok"
//	GET /api/environments   selectable environments and the default
//	GET /api/checks?env=E   run once, respond with the summary
//	GET /ws/checks?env=E    run once, stream progress then the summary
//	GET /metrics            collector snapshot
//
// The two check routes share a token-bucket limiter and answer 429 when it
// is exhausted.
package handler
