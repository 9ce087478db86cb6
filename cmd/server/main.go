package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/voxroom/internal/adapters/blob"
	router "github.com/dkeye/voxroom/internal/adapters/http"
	"github.com/dkeye/voxroom/internal/adapters/redis"
	"github.com/dkeye/voxroom/internal/adapters/store"
	"github.com/dkeye/voxroom/internal/app"
	"github.com/dkeye/voxroom/internal/app/orch"
	"github.com/dkeye/voxroom/internal/config"
	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg.Log)

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}

func setupLogger(cfg config.LogConfig) {
	if cfg.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger.With().Str("source", "stdlog").Logger())
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	m := metrics.New()

	var (
		messages  core.MessageStore
		directory core.UserDirectory
		ready     func(context.Context) error
	)
	switch cfg.Store.Driver {
	case "memory":
		mem := store.NewMemoryStore()
		messages, directory = mem, mem
	default:
		db, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		messages, directory, ready = db, db, db.Ping
	}

	var (
		blobs    core.BlobStore
		mediaDir string
	)
	switch cfg.Blob.Driver {
	case "local":
		local, err := blob.NewLocal(cfg.Blob.BasePath, cfg.Blob.PublicPrefix)
		if err != nil {
			return err
		}
		blobs, mediaDir = local, local.BasePath()
	case "s3":
		s3, err := blob.NewS3(ctx, cfg.Blob.S3)
		if err != nil {
			return err
		}
		blobs = s3
	}

	var mirror core.PresenceMirror = core.NopMirror{}
	if cfg.Redis.Enabled {
		rctx, rcancel := context.WithTimeout(ctx, 5*time.Second)
		pm, err := redis.NewPresenceMirror(rctx, cfg.Redis)
		rcancel()
		if err != nil {
			log.Warn().Err(err).Msg("redis presence mirror disabled")
		} else {
			defer pm.Close()
			mirror = pm
		}
	}

	o := orch.New(orch.Deps{
		Store:          messages,
		Directory:      directory,
		Blobs:          blobs,
		Mirror:         mirror,
		Metrics:        m,
		Policy:         app.PolicyByName(cfg.Relay.Policy),
		PersistTimeout: cfg.Relay.PersistTimeout,
	})

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Orch:     o,
		History:  messages,
		Metrics:  m,
		MediaDir: mediaDir,
		Ready:    ready,
	})
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Voice server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
