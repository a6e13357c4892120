// Package backup copies the caught state to timestamped files on a schedule
// and prunes old copies.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"dextracker/internal/config"
	"dextracker/internal/logging"
	"dextracker/internal/metrics"
	"dextracker/internal/store"
	"dextracker/internal/store/filestore"
)

const (
	filePrefix = "caught-"
	fileSuffix = ".json"
	stampFmt   = "20060102T150405.000Z"
)

// Source supplies the document to back up.
type Source interface {
	Document() *store.Document
}

// Scheduler wraps a gocron scheduler running one backup job.
type Scheduler struct {
	scheduler gocron.Scheduler
	source    Source
	cfg       config.BackupConfig
	logger    *logging.Logger
	recorder  metrics.Recorder
	now       func() time.Time
}

// New creates a Scheduler. The job does not run until Start.
func New(cfg config.BackupConfig, source Source, logger *logging.Logger, recorder metrics.Recorder) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("backup interval must be positive")
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Scheduler{
		scheduler: s,
		source:    source,
		cfg:       cfg,
		logger:    logger,
		recorder:  recorder,
		now:       time.Now,
	}, nil
}

// Start registers the periodic job and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(s.execute, ctx),
		gocron.WithName("state-backup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create backup job: %w", err)
	}
	s.logger.Info("starting backup scheduler", "interval", s.cfg.Interval, "dir", s.cfg.Dir, "keep", s.cfg.Keep)
	s.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down, waiting for a running backup to finish.
func (s *Scheduler) Stop() error {
	s.logger.Info("stopping backup scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) execute(ctx context.Context) {
	path, err := s.RunOnce(ctx)
	if err != nil {
		s.recorder.IncBackup(metrics.ResultFailure)
		s.logger.Error("state backup failed", "error", err)
		return
	}
	s.recorder.IncBackup(metrics.ResultSuccess)
	s.logger.Debug("state backup written", "path", path)
}

// RunOnce writes one backup and prunes old ones. It returns the new file's path.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := store.EncodeDocument(s.source.Document())
	if err != nil {
		return "", err
	}
	name := filePrefix + s.now().UTC().Format(stampFmt) + fileSuffix
	path := filepath.Join(s.cfg.Dir, name)
	if err := filestore.WriteAtomic(path, data); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	if err := Prune(s.cfg.Dir, s.cfg.Keep); err != nil {
		return path, fmt.Errorf("pruning backups: %w", err)
	}
	return path, nil
}

// Prune removes all but the newest keep backups in dir. keep <= 0 keeps all.
func Prune(dir string, keep int) error {
	if keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(n, filePrefix) && strings.HasSuffix(n, fileSuffix) {
			names = append(names, n)
		}
	}
	if len(names) <= keep {
		return nil
	}
	// timestamps sort lexically
	sort.Strings(names)
	var errs []error
	for _, n := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(dir, n)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
