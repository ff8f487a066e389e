package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/welli-app/retention-go/internal/logging"
	"github.com/welli-app/retention-go/internal/server"
	"github.com/welli-app/retention-go/pkg/core"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := core.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	engine, err := core.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}
	defer engine.Close()

	srv := server.New(engine, VersionString())
	addr := cfg.Server.Addr()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logging.Info().
			Str("addr", addr).
			Str("catalog", cfg.Catalog.Provider).
			Str("models_dir", cfg.ModelsDir).
			Msg("welli serving")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	<-done
	logging.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
