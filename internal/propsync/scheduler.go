package propsync

import (
	"context"
	"errors"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs property sync on a cron schedule.
type Scheduler struct {
	syncer   *Syncer
	schedule string
	cron     *cron.Cron
	logger   zerolog.Logger
	mu       sync.Mutex
	running  bool
}

// NewScheduler creates a scheduler for the given standard cron expression.
func NewScheduler(syncer *Syncer, schedule string, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		syncer:   syncer,
		schedule: schedule,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger.With().Str("component", "sync_scheduler").Logger(),
	}
}

// Start registers the schedule and starts the cron runner.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("sync scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runSync); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().Str("schedule", s.schedule).Msg("sync scheduler started")
	return nil
}

// Stop stops the scheduler. The returned context is done once a running sync finishes.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	s.running = false
	s.logger.Info().Msg("stopping sync scheduler")
	return s.cron.Stop()
}

func (s *Scheduler) runSync() {
	if _, err := s.syncer.SyncNotionToDatabase(context.Background()); err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			s.logger.Warn().Msg("skipping scheduled sync, another sync is running")
			return
		}
		s.logger.Error().Err(err).Msg("scheduled sync failed")
	}
}

// RunNow triggers an immediate sync.
func (s *Scheduler) RunNow() {
	s.runSync()
}
