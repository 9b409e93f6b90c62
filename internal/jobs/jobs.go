// Package jobs runs periodic maintenance on a cron schedule: expired
// idempotency records are purged and the catalog cache is refreshed.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/bloom-backend/internal/config"
	"github.com/tbourn/bloom-backend/internal/repo"
)

// CacheRefresher drops cached catalog entries.
type CacheRefresher interface {
	RefreshCache()
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron *cron.Cron
	db   *gorm.DB
	now  func() time.Time
}

// New registers the maintenance jobs described by cfg. A blank spec
// disables that job.
func New(cfg config.JobsConfig, db *gorm.DB, cache CacheRefresher) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{}))),
		db:   db,
		now:  time.Now,
	}
	if cfg.IdempotencyPurge != "" {
		if _, err := s.cron.AddFunc(cfg.IdempotencyPurge, func() { s.PurgeIdempotency(context.Background()) }); err != nil {
			return nil, fmt.Errorf("jobs: idempotency purge schedule %q: %w", cfg.IdempotencyPurge, err)
		}
	}
	if cfg.CatalogRefresh != "" && cache != nil {
		if _, err := s.cron.AddFunc(cfg.CatalogRefresh, func() {
			cache.RefreshCache()
			log.Debug().Msg("catalog cache refreshed")
		}); err != nil {
			return nil, fmt.Errorf("jobs: catalog refresh schedule %q: %w", cfg.CatalogRefresh, err)
		}
	}
	return s, nil
}

// Len reports how many jobs are registered.
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

// PurgeIdempotency deletes idempotency records whose TTL has passed.
func (s *Scheduler) PurgeIdempotency(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	n, err := repo.PurgeExpiredIdempotency(ctx, s.db, s.now())
	if err != nil {
		log.Error().Err(err).Msg("idempotency purge failed")
		return 0
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("expired idempotency keys purged")
	}
	return n
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	log.Debug().Fields(kv).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	log.Error().Err(err).Fields(kv).Msg("cron: " + msg)
}
