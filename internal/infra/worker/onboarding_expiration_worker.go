package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StaleCredentialCleaner drops onboarding credentials that expired before
// cutoff and reports how many leads were touched.
type StaleCredentialCleaner interface {
	ClearStaleOnboarding(ctx context.Context, cutoff time.Time) (int64, error)
}

// OnboardingExpirationWorker periodically clears expired onboarding
// credentials once a grace period has passed. Expiry itself is enforced at
// redemption time; this only tidies storage.
type OnboardingExpirationWorker struct {
	cleaner      StaleCredentialCleaner
	grace        time.Duration
	tickInterval time.Duration
	now          func() time.Time
}

func NewOnboardingExpirationWorker(cleaner StaleCredentialCleaner, interval, grace time.Duration) *OnboardingExpirationWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	if grace < 0 {
		grace = 0
	}
	return &OnboardingExpirationWorker{
		cleaner:      cleaner,
		grace:        grace,
		tickInterval: interval,
		now:          time.Now,
	}
}

func (w *OnboardingExpirationWorker) Start(ctx context.Context) {
	log.Info().
		Dur("interval", w.tickInterval).
		Dur("grace", w.grace).
		Msg("onboarding expiration worker started")

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("onboarding expiration worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *OnboardingExpirationWorker) sweep(ctx context.Context) int64 {
	cutoff := w.now().UTC().Add(-w.grace)
	n, err := w.cleaner.ClearStaleOnboarding(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to clear stale onboarding credentials")
		return 0
	}
	if n > 0 {
		log.Info().Int64("leads", n).Time("cutoff", cutoff).Msg("stale onboarding credentials cleared")
	}
	return n
}
