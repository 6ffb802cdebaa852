package main

import (
	"errors"
	"log/slog"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errUnhealthy) {
			slog.Error("apihealth failed", slog.Any("err", err))
		}
		os.Exit(1)
	}
}
