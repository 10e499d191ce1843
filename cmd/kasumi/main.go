package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/PizzaHomicide/kasumi/internal/config"
	"github.com/PizzaHomicide/kasumi/internal/log"
	"github.com/PizzaHomicide/kasumi/internal/repository/anilist"
	"github.com/PizzaHomicide/kasumi/internal/service"
	"github.com/PizzaHomicide/kasumi/internal/session"
	"github.com/PizzaHomicide/kasumi/internal/store"
	"github.com/PizzaHomicide/kasumi/internal/ui/tui"
	"github.com/PizzaHomicide/kasumi/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// It is unrecoverable if we cannot produce an application config
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialise logger
	logger, err := log.New(log.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		// Probably should let the app continue without logging, but for now this is acceptable.
		_, _ = fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	// Set the default global logger
	log.SetDefaultLogger(logger)

	log.Info("Starting up Kasumi", "version", version.GetVersion(), "build_time", version.GetBuildTime())

	userStore, err := store.Open(cfg.Storage.DataDir)
	if err != nil {
		log.Error("Failed to open user store", "error", err)
		_, _ = fmt.Fprintf(os.Stderr, "failed to open user store: %v\n", err)
		os.Exit(1)
	}

	// The session manager owns the store from here and closes it on shutdown
	sessions, err := session.New(cfg, userStore)
	if err != nil {
		log.Error("Failed to create session manager", "error", err)
		_ = userStore.Close()
		_, _ = fmt.Fprintf(os.Stderr, "failed to create session manager: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			log.Warn("Error closing session manager", "error", err)
		}
	}()

	restoreCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := sessions.Restore(restoreCtx); err != nil {
		// Not fatal, the user can just log in again
		log.Warn("Unable to restore previous session", "error", err)
	}
	cancel()

	animeRepo := anilist.NewAnimeRepository(anilist.NewClient(cfg.Catalog.URL))
	discovery := service.NewDiscoveryService(animeRepo, sessions)

	if err := tui.Run(cfg, sessions, discovery); err != nil {
		log.Error("Unhandled error while running TUI", "error", err)
		os.Exit(1)
	}

	log.Info("Kasumi shutting down.  Goodbye!")
}
