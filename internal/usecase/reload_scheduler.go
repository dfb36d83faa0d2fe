package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/producelens/backend/internal/domain"
)

// Reloader rebuilds the reference snapshot.
type Reloader interface {
	Reload(ctx context.Context) (*domain.Snapshot, error)
}

// ReloadScheduler reloads reference data on a cron schedule.
type ReloadScheduler struct {
	cron     *cron.Cron
	reloader Reloader
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewReloadScheduler validates schedule (standard 5-field cron or a descriptor
// such as "@hourly") and registers the reload job.
func NewReloadScheduler(schedule string, reloader Reloader, logger zerolog.Logger) (*ReloadScheduler, error) {
	parsed, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid reload schedule %q: %w", schedule, err)
	}

	s := &ReloadScheduler{
		cron:     cron.New(),
		reloader: reloader,
		timeout:  time.Minute,
		logger:   logger,
	}
	s.cron.Schedule(parsed, cron.FuncJob(s.run))
	return s, nil
}

// Start starts the scheduler
func (s *ReloadScheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("reload scheduler started")
}

// Stop stops the scheduler and waits for a running reload to finish.
func (s *ReloadScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("reload scheduler stopped")
}

func (s *ReloadScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	snap, err := s.reloader.Reload(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled reload failed, keeping current snapshot")
		return
	}
	s.logger.Info().Int64("version", snap.Version).Msg("scheduled reload complete")
}
