package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scythe504/sketchguess-backend/internal/catalog"
	"github.com/scythe504/sketchguess-backend/internal/config"
	"github.com/scythe504/sketchguess-backend/internal/game"
	"github.com/scythe504/sketchguess-backend/internal/server"
	"github.com/scythe504/sketchguess-backend/internal/websocket"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runServer(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, nil, err
	}
	log, err := cfg.NewLogger(os.Stdout)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(log)
	return cfg, log, nil
}

func loadCatalog(ctx context.Context, cfg *config.Config, log *slog.Logger) (*catalog.Catalog, error) {
	if cfg.DatabaseURL == "" {
		return catalog.Load(cfg.CatalogPath, log)
	}

	store, err := catalog.NewStore(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.List(ctx)
}

func runServer(ctx context.Context) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	sketches, err := loadCatalog(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if sketches.Len() == 0 {
		return errors.New("load catalog: no playable sketches")
	}
	log.Info("Catalog loaded", "sketches", sketches.Len())

	registry := game.NewRegistry(sketches, game.NewBindings(),
		game.WithRegistryLogger(log),
		game.WithInactivityThreshold(cfg.InactivityThreshold),
		game.WithSweepInterval(cfg.GCInterval),
	)
	hub := websocket.NewHub(registry,
		websocket.WithLogger(log),
		websocket.WithMaxPlayers(cfg.MaxPlayersPerRoom),
		websocket.WithRateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		websocket.WithAllowedOrigin(cfg.AllowedOrigin),
	)
	httpServer := server.New(cfg.Port, cfg.AllowedOrigin, registry, hub, log).HTTPServer()

	go registry.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	hub.CloseAll()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to gracefully shutdown HTTP server", "error", err)
		return err
	}
	log.Info("Server stopped")
	return nil
}
