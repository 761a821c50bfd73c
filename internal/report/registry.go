package report

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/session"
)

type controllerKey struct {
	sessionID string
	variant   string
}

// Registry keeps one Controller per session and variant.
type Registry struct {
	fetcher Fetcher

	mu          sync.Mutex
	controllers map[controllerKey]*Controller
}

// NewRegistry creates an empty registry whose controllers use fetcher.
func NewRegistry(fetcher Fetcher) *Registry {
	return &Registry{
		fetcher:     fetcher,
		controllers: make(map[controllerKey]*Controller),
	}
}

// Get returns the controller of sessionID and v, creating it on first use.
func (r *Registry) Get(sessionID string, v Variant) *Controller {
	key := controllerKey{sessionID: sessionID, variant: v.Name}

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[key]
	if !ok {
		c = NewController(r.fetcher, v)
		r.controllers[key] = c
	}
	return c
}

// Drop discards every controller of sessionID.
func (r *Registry) Drop(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for key, c := range r.controllers {
		if key.sessionID != sessionID {
			continue
		}
		c.Close()
		delete(r.controllers, key)
		dropped++
	}
	return dropped
}

// Prune closes the controllers of sessions for which live returns false.
// It catches sessions whose end event never reached Watch.
func (r *Registry) Prune(live func(sessionID string) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	pruned := 0
	for key, c := range r.controllers {
		if live(key.sessionID) {
			continue
		}
		c.Close()
		delete(r.controllers, key)
		pruned++
	}
	return pruned
}

// Len returns the number of live controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// Watch drops the controllers of every session that logs out or expires
// until ctx is done or events is closed.
func (r *Registry) Watch(ctx context.Context, events <-chan session.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !ev.Ended() {
				continue
			}
			if n := r.Drop(ev.SessionID); n > 0 {
				log.Debug().Str("event", string(ev.Type)).Int("controllers", n).Msg("Report state dropped")
			}
		}
	}
}
