// Command server runs the tracker: the caught-state store behind the HTTP
// API and the static web client, with optional backups and hot reload.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"dextracker/internal/api"
	"dextracker/internal/backup"
	"dextracker/internal/config"
	"dextracker/internal/logging"
	"dextracker/internal/metrics"
	"dextracker/internal/store"
	"dextracker/internal/store/filestore"
	"dextracker/internal/store/sqlitestore"
	"dextracker/internal/watch"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

const flushTimeout = 5 * time.Second

var CLI struct {
	Config string `short:"c" help:"Configuration file path" default:"configs/dextracker.yaml" type:"path"`
	Port   int    `short:"p" help:"Override the listen port"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("server"),
		kong.Description("Pokédex tracker server"),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logging.Default()

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if CLI.Port > 0 {
		cfg.Server.Port = CLI.Port
	}

	log = logging.New(cfg.Logging, version)
	log.Info("starting tracker", "version", version, "backend", cfg.Store.Backend)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	backend, err := openBackend(cfg.Store)
	if err != nil {
		return err
	}

	st := store.Open(ctx, backend, log.With("component", "store"))
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing store", "error", closeErr)
		}
	}()
	// Every accepted write is already on disk unless persisting failed; the
	// final flush retries whatever is in memory.
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if flushErr := st.Flush(flushCtx); flushErr != nil {
			log.Error("failed to save state on shutdown", "error", flushErr)
			return
		}
		log.Info("state saved")
	}()

	srv, err := api.New(api.Deps{
		Config:   cfg.Server,
		Metrics:  cfg.Metrics,
		Store:    st,
		Logger:   log.With("component", "api"),
		Recorder: recorder,
		Gatherer: reg,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	return serve(ctx, cfg, st, srv, log, recorder)
}

// serve runs the API server and the optional backup scheduler and state
// watcher until ctx is cancelled. Everything that can fail to set up is
// built before the listener opens.
func serve(ctx context.Context, cfg *config.Config, st *store.Store, srv *api.Server, log *logging.Logger, recorder metrics.Recorder) error {
	if cfg.Backup.Enabled {
		sched, err := backup.New(cfg.Backup, st, log.With("component", "backup"), recorder)
		if err != nil {
			return fmt.Errorf("creating backup scheduler: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if stopErr := sched.Stop(); stopErr != nil {
				log.Error("error stopping backup scheduler", "error", stopErr)
			}
		}()
	}

	var w *watch.Watcher
	if cfg.Store.Watch && cfg.Store.Backend == config.BackendFile {
		var err error
		w, err = watch.New(cfg.Store.Path, st, log.With("component", "watch"), recorder)
		if err != nil {
			return fmt.Errorf("creating state watcher: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if w != nil {
		g.Go(func() error { return w.Run(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("tracker stopped")
	return nil
}

// openBackend builds the configured persistence backend, creating its
// directory first.
func openBackend(cfg config.StoreConfig) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
		db, err := sqlitestore.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return db, nil
	case config.BackendFile, "":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
		return filestore.New(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
