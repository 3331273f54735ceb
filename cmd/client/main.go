package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/epicrunze/journal/internal/client/cli"
	"github.com/epicrunze/journal/internal/client/config"
	"github.com/epicrunze/journal/internal/logging"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
