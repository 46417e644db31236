package worker

// expiry_cron.go
// Background goroutine that periodically sweeps soft reservations whose
// TTL has lapsed and returns their quantity to the available pool.
// A Redis lock elects one sweeper across replicas so concurrent instances
// do not hammer the same rows.

import (
	"context"
	"time"

	"stockcore/internal/service"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const expirySweepLockKey = "lock:reservation_expiry_sweep"

// ExpiryCronConfig holds all dependencies for the sweep goroutine.
type ExpiryCronConfig struct {
	Reservation service.ReservationService
	RDB         *redis.Client
	Interval    time.Duration
}

// StartExpiryCron launches a background goroutine that ticks on the
// configured interval and expires stale soft reservations. It respects
// the context for graceful shutdown.
func StartExpiryCron(ctx context.Context, cfg ExpiryCronConfig) {
	locker := redislock.New(cfg.RDB)
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("expiry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("expiry_cron: shutting down")
				return
			case <-ticker.C:
				sweepOnce(ctx, locker, cfg)
			}
		}
	}()
}

func sweepOnce(ctx context.Context, locker *redislock.Client, cfg ExpiryCronConfig) {
	// Lock TTL covers a slow batch; another replica picks up the next tick.
	lock, err := locker.Obtain(ctx, expirySweepLockKey, cfg.Interval+10*time.Second, nil)
	if err == redislock.ErrNotObtained {
		log.Debug().Msg("expiry_cron: another instance holds the sweep lock, skipping tick")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("expiry_cron: failed to obtain sweep lock")
		return
	}
	defer func() {
		if err := lock.Release(ctx); err != nil && err != redislock.ErrLockNotHeld {
			log.Warn().Err(err).Msg("expiry_cron: failed to release sweep lock")
		}
	}()

	expired, err := cfg.Reservation.ExpireStale(ctx)
	if err != nil {
		log.Error().Err(err).Msg("expiry_cron: sweep failed")
		return
	}
	if expired > 0 {
		log.Info().Int("expired", expired).Msg("expiry_cron: stale soft reservations released")
	}
}
