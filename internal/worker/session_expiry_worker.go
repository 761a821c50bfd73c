package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionExpirer ends sessions whose token ran out.
type SessionExpirer interface {
	ExpireDue(ctx context.Context) (int, error)
	Tracks(sessionID string) bool
}

// StatePruner drops per-session state of sessions that are no longer live.
type StatePruner interface {
	Prune(live func(sessionID string) bool) int
}

// SessionExpiryWorker sweeps expired sessions on a fixed interval so their
// tabs are signed out even when nobody requests a page.
type SessionExpiryWorker struct {
	sessions SessionExpirer
	pruners  []StatePruner
	interval time.Duration
}

// NewSessionExpiryWorker constructs a SessionExpiryWorker. After every
// sweep each pruner drops the state of sessions that are gone.
func NewSessionExpiryWorker(sessions SessionExpirer, interval time.Duration, pruners ...StatePruner) *SessionExpiryWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionExpiryWorker{
		sessions: sessions,
		pruners:  pruners,
		interval: interval,
	}
}

// Start begins the sweep loop and listens for context cancellation.
func (w *SessionExpiryWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting session expiry worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Session expiry worker stopped")
			return
		}
	}
}

func (w *SessionExpiryWorker) run(ctx context.Context) {
	n, err := w.sessions.ExpireDue(ctx)
	switch {
	case err != nil:
		log.Error().Err(err).Int("expired", n).Msg("Failed to expire some sessions")
	case n > 0:
		log.Info().Int("expired", n).Msg("Expired sessions")
	}

	for _, p := range w.pruners {
		if pruned := p.Prune(w.sessions.Tracks); pruned > 0 {
			log.Debug().Int("pruned", pruned).Msg("Dropped state of ended sessions")
		}
	}
}
