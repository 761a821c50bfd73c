package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/models"
	"github.com/GTDGit/gtd_donate/internal/session"
)

// sessionEventsChannel carries session events between portal instances.
const sessionEventsChannel = "session:events"

// SessionCache is the Redis session backend and cross-instance broadcaster.
type SessionCache struct {
	redis *RedisClient
}

// NewSessionCache creates a new SessionCache.
func NewSessionCache(redis *RedisClient) *SessionCache {
	return &SessionCache{redis: redis}
}

// keyBySessionID returns the Redis key of a session.
func (c *SessionCache) keyBySessionID(id string) string {
	return "session:id:" + id
}

// Save stores the session until ttl elapses. TTL follows the token exp, so
// Redis drops the key the moment the token stops being usable.
func (c *SessionCache) Save(ctx context.Context, s *models.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return session.ErrTokenExpired
	}
	if err := c.redis.SetJSON(ctx, c.keyBySessionID(s.ID), s, ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load retrieves a session by id.
func (c *SessionCache) Load(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	found, err := c.redis.GetJSON(ctx, c.keyBySessionID(id), &s)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !found {
		return nil, session.ErrSessionNotFound
	}
	return &s, nil
}

// Delete removes a session.
func (c *SessionCache) Delete(ctx context.Context, id string) error {
	return c.redis.Delete(ctx, c.keyBySessionID(id))
}

// Publish announces a session event to every portal instance.
func (c *SessionCache) Publish(ctx context.Context, ev session.Event) error {
	return c.redis.Publish(ctx, sessionEventsChannel, ev)
}

// Listen relays session events published by any instance until ctx is done.
func (c *SessionCache) Listen(ctx context.Context, fn func(session.Event)) error {
	pubsub := c.redis.Subscribe(ctx, sessionEventsChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", sessionEventsChannel, err)
	}
	log.Info().Str("channel", sessionEventsChannel).Msg("Listening for session events")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev session.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn().Err(err).Msg("Ignoring malformed session event")
				continue
			}
			fn(ev)
		}
	}
}
