// Command grammr-srs runs the spaced repetition server: it serves the
// study API and syncs flashcard content from configured markdown sources.
package main

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

	"github.com/spf13/pflag"

	"github.com/grammr/srs/internal/config"
	"github.com/grammr/srs/internal/fsrs"
	"github.com/grammr/srs/internal/importer"
	"github.com/grammr/srs/internal/planner"
	"github.com/grammr/srs/internal/review"
	"github.com/grammr/srs/internal/storage"
	"github.com/grammr/srs/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("grammr-srs", pflag.ExitOnError)
	configPath := flags.String("config", "grammr.yaml", "path to the config file")
	addSource := flags.String("add-source", "", "register a card source (path or git URL) and exit")
	syncOnly := flags.Bool("sync", false, "sync all sources and exit")
	user := flags.String("user", "", "user the --add-source/--sync operation applies to")
	config.RegisterFlags(flags)
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.Database.Path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *addSource != "" {
		if *user == "" {
			return errors.New("--add-source requires --user")
		}
		sourceType := importer.DetectType(*addSource)
		src, err := db.UpsertSource(ctx, *user, *addSource, sourceType)
		if err != nil {
			return err
		}
		logger.Info("source registered", "id", src.ID, "type", src.Type, "path", src.Path)
		return importer.New(db, cfg.Sources.ReposDirectory, logger).Run(ctx, *user)
	}

	if *syncOnly {
		if *user == "" {
			return errors.New("--sync requires --user")
		}
		return importer.New(db, cfg.Sources.ReposDirectory, logger).Run(ctx, *user)
	}

	scheduler, err := fsrs.NewScheduler(cfg.SchedulerParams())
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: web.NewServer(
			planner.New(db, scheduler),
			review.NewService(db, scheduler),
			logger,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
