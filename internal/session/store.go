// Package session is the single source of truth for signed-in browsers. It
// stores the donation API token and user profile per session and notifies
// subscribers of every login, logout and expiry so that all open tabs and
// per-session state observe the change together.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/authguard"
	"github.com/GTDGit/gtd_donate/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTokenExpired    = errors.New("token already expired")
)

// Backend persists sessions.
type Backend interface {
	Save(ctx context.Context, s *models.Session, ttl time.Duration) error
	// Load returns ErrSessionNotFound for unknown or expired ids.
	Load(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// Broadcaster relays events between portal instances.
type Broadcaster interface {
	Publish(ctx context.Context, ev Event) error
	// Listen blocks until ctx is done, calling fn for every received event.
	Listen(ctx context.Context, fn func(Event)) error
}

// Option configures a Store.
type Option func(*Store)

// WithMaxTTL caps the lifetime of a session regardless of token exp.
func WithMaxTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.maxTTL = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithBroadcaster enables cross-instance events.
func WithBroadcaster(b Broadcaster) Option {
	return func(s *Store) { s.broadcaster = b }
}

type subscriber struct {
	sessionID string
	ch        chan Event
}

// Store manages sessions and their subscribers.
type Store struct {
	backend     Backend
	broadcaster Broadcaster
	origin      string
	maxTTL      time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	subs     map[uint64]*subscriber
	nextSub  uint64
	expiries map[string]time.Time
}

// NewStore creates a session store over backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		origin:   uuid.NewString(),
		maxTTL:   24 * time.Hour,
		now:      time.Now,
		subs:     make(map[uint64]*subscriber),
		expiries: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new session for token and user and announces the login.
// The session lives until the token's exp, capped by the store's max TTL.
func (s *Store) Create(ctx context.Context, token string, user models.UserProfile) (*models.Session, error) {
	now := s.now()
	expiresAt := now.Add(s.maxTTL)
	if claims, err := authguard.Decode(token); err == nil && claims.ExpiresAt != nil {
		if !claims.Unexpired(now) {
			return nil, ErrTokenExpired
		}
		if claims.ExpiresAt.Time.Before(expiresAt) {
			expiresAt = claims.ExpiresAt.Time.UTC()
		}
		if user.Role == "" {
			user.Role = claims.Role
		}
	}

	sess := &models.Session{
		ID:        uuid.NewString(),
		Token:     token,
		User:      user,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := s.backend.Save(ctx, sess, expiresAt.Sub(now)); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.mu.Lock()
	s.expiries[sess.ID] = expiresAt
	s.mu.Unlock()

	s.publish(ctx, Event{Type: EventLogin, SessionID: sess.ID, Role: user.Role})
	return sess, nil
}

// Get returns a live session. An expired session is removed, announced and
// reported as ErrSessionNotFound.
func (s *Store) Get(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	sess, err := s.backend.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		if err := s.Expire(ctx, id); err != nil {
			log.Warn().Err(err).Str("session_id", shortID(id)).Msg("Failed to expire session")
		}
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	if _, ok := s.expiries[id]; !ok {
		s.expiries[id] = sess.ExpiresAt
	}
	s.mu.Unlock()
	return sess, nil
}

// Delete ends a session on logout.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.end(ctx, id, EventLogout)
}

// Expire ends a session whose token ran out.
func (s *Store) Expire(ctx context.Context, id string) error {
	return s.end(ctx, id, EventExpired)
}

func (s *Store) end(ctx context.Context, id string, typ EventType) error {
	if err := s.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.mu.Lock()
	delete(s.expiries, id)
	s.mu.Unlock()

	s.publish(ctx, Event{Type: typ, SessionID: id})
	return nil
}

// ExpireDue expires every session known to this instance whose expiry has
// passed and returns how many were expired.
func (s *Store) ExpireDue(ctx context.Context) (int, error) {
	now := s.now()
	var due []string
	s.mu.RLock()
	for id, exp := range s.expiries {
		if !now.Before(exp) {
			due = append(due, id)
		}
	}
	s.mu.RUnlock()

	var errs []error
	expired := 0
	for _, id := range due {
		if err := s.Expire(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		expired++
	}
	return expired, errors.Join(errs...)
}

// Tracks reports whether this instance tracks sessionID as live.
func (s *Store) Tracks(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.expiries[sessionID]
	return ok
}

// Tracked returns how many sessions this instance tracks for expiry.
func (s *Store) Tracked() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expiries)
}

// subscriberBuffer is the number of events a subscriber may lag behind
// before new events for it are dropped.
const subscriberBuffer = 256

// Subscribe registers for events of one session, or of all sessions when
// sessionID is empty. The returned function unsubscribes and closes the
// channel.
func (s *Store) Subscribe(sessionID string) (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	sub := &subscriber{sessionID: sessionID, ch: make(chan Event, subscriberBuffer)}
	s.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(sub.ch)
		})
	}
}

// Run relays events from other portal instances to local subscribers until
// ctx is done. It returns immediately when no broadcaster is configured.
func (s *Store) Run(ctx context.Context) error {
	if s.broadcaster == nil {
		return nil
	}
	return s.broadcaster.Listen(ctx, func(ev Event) {
		if ev.Origin == s.origin {
			return
		}
		if ev.Type != EventLogin {
			s.mu.Lock()
			delete(s.expiries, ev.SessionID)
			s.mu.Unlock()
		}
		s.dispatch(ev)
	})
}

func (s *Store) publish(ctx context.Context, ev Event) {
	ev.Origin = s.origin
	ev.At = s.now()
	s.dispatch(ev)
	if s.broadcaster != nil {
		if err := s.broadcaster.Publish(ctx, ev); err != nil {
			log.Warn().Err(err).Str("event", string(ev.Type)).Msg("Failed to broadcast session event")
		}
	}
}

// dispatch delivers ev without blocking; a full subscriber drops the event.
func (s *Store) dispatch(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		if sub.sessionID != "" && sub.sessionID != ev.SessionID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			log.Warn().Str("session_id", shortID(ev.SessionID)).Str("event", string(ev.Type)).Msg("Session subscriber buffer full, dropping event")
		}
	}
}

// shortID keeps session ids out of logs in full.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
