package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/edugen-ai/edugen-go/internal/config"
	"github.com/edugen-ai/edugen-go/internal/database"
	"github.com/edugen-ai/edugen-go/internal/devserver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectSQLite(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	srv, err := devserver.New(db, devserver.Config{
		AppName:   cfg.AppName,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	go func() {
		if err := srv.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Str("database", cfg.SQLitePath).Msg("development backend listening")

	waitForShutdown(srv)
}

func waitForShutdown(srv *devserver.Server) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
