// Backend runs a small fleet of local HTTP endpoints for trying out
// apihealth: one healthy, one failing and one slow.
//
// Usage:
//
//	go run backend.go -port 8081 -settings appsettings.json
//	apihealth check --settings appsettings.json --env dev
//
// The dev environment lists all three endpoints; UAT lists only the
// healthy one.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

type apiEndpoint struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type section struct {
	ApiEndpoints []apiEndpoint `json:"ApiEndpoints"`
}

// appSettings fixes the top-level key order of the written document.
type appSettings struct {
	Dev         section `json:"dev"`
	UAT         section `json:"UAT"`
	Environment string  `json:"Environment"`
}

type member struct {
	name    string
	port    int
	handler http.HandlerFunc
}

func main() {
	port := flag.Int("port", 8081, "first port of the fleet; members use consecutive ports")
	delay := flag.Duration("delay", 3*time.Second, "response delay of the slow member")
	settingsPath := flag.String("settings", "appsettings.json", "settings document to write (empty to skip)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	fleet := []member{
		{name: "healthy", port: *port, handler: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		}},
		{name: "failing", port: *port + 1, handler: func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "dependency unavailable", http.StatusServiceUnavailable)
		}},
		{name: "slow", port: *port + 2, handler: func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(*delay):
				w.WriteHeader(http.StatusOK)
			case <-r.Context().Done():
			}
		}},
	}

	if *settingsPath != "" {
		if err := writeSettings(*settingsPath, fleet); err != nil {
			log.Error("failed to write settings", slog.Any("err", err))
			os.Exit(1)
		}
		log.Info("wrote settings", slog.String("path", *settingsPath))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, m := range fleet {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", m.port),
			Handler:           logRequests(log, m.name, m.handler),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			log.Info("starting member", slog.String("name", m.name), slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s: %w", m.name, err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return srv.Shutdown(context.Background())
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("fleet failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func logRequests(log *slog.Logger, name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("request",
			slog.String("member", name),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("from", r.RemoteAddr))
		next(w, r)
	}
}

func writeSettings(path string, fleet []member) error {
	var dev section
	for _, m := range fleet {
		dev.ApiEndpoints = append(dev.ApiEndpoints, apiEndpoint{
			Name: m.name,
			URL:  fmt.Sprintf("http://localhost:%d/health", m.port),
		})
	}

	doc := appSettings{
		Dev:         dev,
		UAT:         section{ApiEndpoints: dev.ApiEndpoints[:1]},
		Environment: "dev",
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
