package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/catalog"
	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/config"
	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/httpapi"
	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/hub"
	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, logger)

	var st store.Store
	if cfg.PostgresDSN != "" {
		pg, err := store.NewPostgres(cfg.PostgresDSN, h, logger)
		if err != nil {
			return err
		}
		st = pg
		logger.Info("using postgres store")
	} else {
		st = store.NewMemory(h, logger)
		logger.Info("using in-memory store")
	}

	words, err := catalog.LoadWordsFile(cfg.WordsFile)
	if err != nil {
		return err
	}
	locations, err := catalog.LoadLocationsFile(cfg.LocationsFile)
	if err != nil {
		return err
	}
	cats := httpapi.Catalogs{Words: words, Locations: locations}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(st, cats, logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if closer, ok := st.(interface{ Close() error }); ok {
		err = multierr.Append(err, closer.Close())
	}
	return err
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
