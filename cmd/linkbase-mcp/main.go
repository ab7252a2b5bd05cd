package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/JonMunkholm/linkbase/internal/application"
	"github.com/JonMunkholm/linkbase/internal/config"
	"github.com/JonMunkholm/linkbase/internal/logging"
	"github.com/JonMunkholm/linkbase/internal/mcp"
)

var version = "dev"

func main() {
	// stdout carries the protocol; everything else goes to stderr.
	if err := loadEnv(".env"); err != nil {
		fail("failed to load .env", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fail("failed to load configuration", err)
	}
	logging.SetupTo(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	app, err := application.Open(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	slog.Info("serving MCP over stdio", "version", version, "driver", cfg.Store.Driver)
	if err := server.ServeStdio(mcp.NewServer(app.Service, version)); err != nil {
		slog.Error("mcp server stopped", "error", err)
		app.Close()
		os.Exit(1)
	}
}

// loadEnv reads a dotenv file. A missing file is fine; a malformed one is not.
func loadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func fail(msg string, err error) {
	logging.SetupTo(os.Stderr, "info", "text")
	slog.Error(msg, "error", err)
	os.Exit(1)
}
