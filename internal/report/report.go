// Package report renders health-check runs for terminals and scripts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/angeloszaimis/api-health-checker/internal/healthcheck"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatTable, FormatJSON, FormatYAML}

// Document is the machine-readable form of one run.
type Document struct {
	Environment string              `json:"environment" yaml:"environment"`
	Summary     healthcheck.Summary `json:"summary" yaml:"summary"`
}

// ParseFormat normalizes a format name.
func ParseFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

// Progress writes a one-line account of event.
func Progress(w io.Writer, event healthcheck.Event) error {
	r := event.Result
	detail := fmt.Sprintf("%d", r.StatusCode)
	if r.StatusCode == 0 {
		detail = "-"
	}
	if r.Error != "" {
		detail += ", " + r.Error
	}

	_, err := fmt.Fprintf(w, "[%d/%d] %-9s %s %s (%s, %s)\n",
		event.Completed, event.Total, r.Status, r.Name, r.URL, detail, roundLatency(r.Latency))
	return err
}

// Stream writes a progress line for every event as it arrives and returns
// the aggregate once the run is complete. A nil w only aggregates.
func Stream(w io.Writer, events <-chan healthcheck.Event) (healthcheck.Summary, error) {
	summary := healthcheck.Summary{Results: []healthcheck.Result{}}
	var writeErr error
	for event := range events {
		summary.Add(event)
		if w == nil || writeErr != nil {
			continue
		}
		writeErr = Progress(w, event)
	}
	return summary, writeErr
}

// Write renders the summary of a run in format.
func Write(w io.Writer, format, environment string, summary healthcheck.Summary) error {
	doc := Document{Environment: environment, Summary: summary}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()

	case FormatTable, "":
		return writeTable(w, doc)

	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeTable(w io.Writer, doc Document) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "NAME\tURL\tSTATUS\tCODE\tLATENCY\tERROR")
	for _, r := range doc.Summary.Results {
		code := "-"
		if r.StatusCode != 0 {
			code = fmt.Sprintf("%d", r.StatusCode)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Name, r.URL, r.Status, code, roundLatency(r.Latency), r.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	env := doc.Environment
	if env == "" {
		env = "(none)"
	}
	_, err := fmt.Fprintf(w, "\nenvironment %s: %d endpoints, %d healthy, %d unhealthy\n",
		env, doc.Summary.Total, doc.Summary.Healthy, doc.Summary.Unhealthy)
	return err
}

func roundLatency(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
