package monitoring

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ExpiredTokenPurger removes reset tokens that expired before now.
type ExpiredTokenPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler periodically purges expired password reset tokens.
type Scheduler struct {
	cron    *cron.Cron
	purger  ExpiredTokenPurger
	metrics *Metrics
	timeout time.Duration
	now     func() time.Time
}

// NewScheduler creates a scheduler running the purge on spec, a standard cron
// expression or descriptor such as "@every 15m". Metrics may be nil.
func NewScheduler(purger ExpiredTokenPurger, spec string, metrics *Metrics) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		purger:  purger,
		metrics: metrics,
		timeout: 30 * time.Second,
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.purgeExpired); err != nil {
		return nil, err
	}
	return s, nil
}

// Run purges once immediately and then starts the cron loop in the background.
func (s *Scheduler) Run() {
	log.Info().Msg("Starting reset token janitor")
	s.purgeExpired()
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running purge to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped reset token janitor")
}

func (s *Scheduler) purgeExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.purger.DeleteExpired(ctx, s.now())
	if err != nil {
		log.Error().Err(err).Msg("Janitor: failed to purge expired reset tokens")
		return
	}
	if s.metrics != nil {
		s.metrics.ResetTokensPurged.Add(float64(n))
	}
	if n > 0 {
		log.Info().Int64("count", n).Msg("Janitor: purged expired reset tokens")
	}
}
