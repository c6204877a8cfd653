package main

import (
	"log/slog"
	"os"

	"go-dataset-registry/internal/app"
	"go-dataset-registry/internal/logger"
)

func main() {
	// Bootstrap logging; app.New reinstalls it with the configured level
	// and format once config is loaded.
	logger.Setup("info", true)

	application, err := app.New()
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
