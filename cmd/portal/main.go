package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/edugen-ai/edugen-go/internal/config"
	"github.com/edugen-ai/edugen-go/internal/session"
	"github.com/edugen-ai/edugen-go/pkg/edugen"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, closeLogger := newLogger(cfg)
	defer closeLogger()

	sessions := session.NewStore(cfg.SessionPath, logger)

	client, err := edugen.NewClient(edugen.Config{
		BaseURL:  cfg.APIBaseURL,
		Timeout:  cfg.HTTPTimeout,
		Sessions: sessions,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("failed to build API client: %v", err)
	}

	sh := newShell(client, sessions, logger)
	if err := sh.run(context.Background(), os.Stdin, os.Stdout); err != nil {
		log.Fatalf("portal stopped: %v", err)
	}
}

// newLogger routes structured logs to a file next to the session store so
// they never interleave with the interactive prompt. Falls back to stderr
// when the file cannot be opened.
func newLogger(cfg config.Config) (zerolog.Logger, func()) {
	dir := filepath.Dir(cfg.SessionPath)
	if err := os.MkdirAll(dir, 0o700); err == nil {
		path := filepath.Join(dir, "portal.log")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err == nil {
			logger := zerolog.New(file).With().Timestamp().Logger()
			return logger, func() { _ = file.Close() }
		}
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return logger, func() {}
}
