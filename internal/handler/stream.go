package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/angeloszaimis/api-health-checker/internal/healthcheck"
)

const (
	streamWriteTimeout = 5 * time.Second

	messageProgress = "progress"
	messageSummary  = "summary"
)

var streamUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

type streamMessage struct {
	Type        string               `json:"type"`
	Environment string               `json:"environment"`
	Event       *healthcheck.Event   `json:"event,omitempty"`
	Summary     *healthcheck.Summary `json:"summary,omitempty"`
}

// handleCheckStream runs one check and pushes every progress event to the
// client as it happens, followed by the run's summary.
func (a *API) handleCheckStream(w http.ResponseWriter, r *http.Request) {
	res := a.resolve(r)

	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Debug("WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The client never sends anything; a read error means it went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	summary := healthcheck.Summary{Results: []healthcheck.Result{}}
	for event := range a.run(ctx, res.Environment, res.Endpoints) {
		summary.Add(event)
		if err := writeStreamMessage(conn, streamMessage{
			Type:        messageProgress,
			Environment: res.Environment,
			Event:       &event,
		}); err != nil {
			a.logger.Debug("WebSocket client gone", slog.String("error", err.Error()))
			cancel()
			return
		}
	}

	if err := writeStreamMessage(conn, streamMessage{
		Type:        messageSummary,
		Environment: res.Environment,
		Summary:     &summary,
	}); err != nil {
		return
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run complete"),
		time.Now().Add(streamWriteTimeout))
}

func writeStreamMessage(conn *websocket.Conn, msg streamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(msg)
}
