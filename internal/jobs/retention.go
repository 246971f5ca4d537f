package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Purger permanently deletes entries archived before cutoff.
type Purger interface {
	PurgeArchived(ctx context.Context, cutoff time.Time) (int, error)
}

// RetentionScheduler periodically purges entries that have stayed archived
// longer than the retention window.
type RetentionScheduler struct {
	cron      *cron.Cron
	purger    Purger
	retention time.Duration
	timeout   time.Duration
	logger    *zap.SugaredLogger
	now       func() time.Time
}

func NewRetentionScheduler(purger Purger, retention time.Duration, schedule string, logger *zap.SugaredLogger) (*RetentionScheduler, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %s", retention)
	}

	s := &RetentionScheduler{
		purger:    purger,
		retention: retention,
		timeout:   10 * time.Minute,
		logger:    logger,
		now:       time.Now,
	}

	cl := cronLogger{logger}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("schedule purge %q: %w", schedule, err)
	}
	return s, nil
}

func (s *RetentionScheduler) Start() {
	s.logger.Infow("archive retention purge scheduled", "retention", s.retention.String())
	s.cron.Start()
}

// Stop prevents new runs and waits for a running purge to finish or ctx to end.
func (s *RetentionScheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warnw("archive purge still running at shutdown")
	}
}

// RunOnce purges everything archived before now minus the retention window.
func (s *RetentionScheduler) RunOnce(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-s.retention)
	n, err := s.purger.PurgeArchived(ctx, cutoff)
	if err != nil {
		s.logger.Errorw("archive purge finished with errors", "purged", n, "cutoff", cutoff, "error", err)
		return n, err
	}
	if n > 0 {
		s.logger.Infow("archive purge finished", "purged", n, "cutoff", cutoff)
	}
	return n, nil
}

func (s *RetentionScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, _ = s.RunOnce(ctx)
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
