package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/matsen/apa2tex/internal/convert"
	"github.com/matsen/apa2tex/internal/server"
	"github.com/matsen/apa2tex/internal/storage"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 5 * time.Second

var (
	serveAddr   string
	serveRecord bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
	serveCmd.Flags().BoolVar(&serveRecord, "record", false, "Record every conversion in the history database")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the converter over HTTP",
	Long: `Start a JSON HTTP API for editors and other tools.

Endpoints:
  GET  /api/v1/health
  POST /api/v1/convert   {"references", "document", "bibtex", "reflow"}
  POST /api/v1/resolve   {"references", "bibtex", "author", "year"}
  POST /api/v1/cited     {"document", "bibtex"}

Requests are rate limited per client IP. Settings come from the server
section of the config file.

Examples:
  apa2tex serve
  apa2tex serve --addr :9000 --record -v`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	opts, err := cfg.ConvertOptions()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	tiers, _ := cfg.Tiers()

	settings := cfg.Server.WithDefaults()
	if serveAddr != "" {
		settings.Addr = serveAddr
	}

	deps := server.Deps{
		ConvertOptions: append(opts, convert.WithLogger(log.Logger)),
		Tiers:          tiers,
		Logger:         log.Logger,
	}
	if serveRecord {
		db, err := storage.OpenDB(cfg.HistoryDBPath())
		if err != nil {
			exitWithError(ExitError, "opening history: %v", err)
		}
		defer db.Close()
		deps.History = db
	}

	if verbose {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := server.NewRouter(ctx, server.Config{
		RequestsPerSecond: settings.RequestsPerSecond,
		Burst:             settings.Burst,
		MaxBodyBytes:      settings.MaxBodyBytes,
		Version:           Version,
	}, deps, time.Now())

	srv := &http.Server{
		Addr:              settings.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		// Warn so the address shows without -v
		log.Warn().Str("addr", settings.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			exitWithError(ExitError, "HTTP server: %v", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server forced shutdown")
		return err
	}
	log.Info().Msg("HTTP server drained gracefully")
	return nil
}
