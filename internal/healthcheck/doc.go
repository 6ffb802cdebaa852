// Package healthcheck probes HTTP endpoints and reports each outcome as soon
// as it is known.
//
// An Engine launches one probe per endpoint. Every probe builds its own
// Result and hands it to a single sequencer goroutine, which numbers the
// results in completion order and publishes them as Events. A failing
// probe, whatever the cause, becomes an Unhealthy result for that endpoint
// only; it never aborts or delays the others.
//
// Example usage:
//
//	engine := healthcheck.NewEngine(&http.Client{})
//	for event := range engine.RunAll(ctx, endpoints) {
//		fmt.Printf("[%d/%d] %s %s\n", event.Completed, event.Total,
//			event.Result.Name, event.Result.Status)
//	}
package healthcheck
