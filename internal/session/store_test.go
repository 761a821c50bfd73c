package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_donate/internal/authguard"
	"github.com/GTDGit/gtd_donate/internal/models"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
	backend := newMemoryBackendWithClock(clk.Now)
	opts = append([]Option{WithClock(clk.Now)}, opts...)
	return NewStore(backend, opts...), clk
}

func tokenFor(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	claims := authguard.Claims{Role: role}
	claims.ExpiresAt = jwt.NewNumericDate(exp)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return Event{}
}

func TestCreateGetDelete(t *testing.T) {
	store, clk := newTestStore(t)
	ctx := context.Background()

	all, unsubscribe := store.Subscribe("")
	defer unsubscribe()

	tok := tokenFor(t, "user", clk.Now().Add(time.Hour))
	sess, err := store.Create(ctx, tok, models.UserProfile{Email: "u@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "user", sess.User.Role, "role falls back to the token claim")
	assert.Equal(t, clk.Now().Add(time.Hour), sess.ExpiresAt)
	assert.Equal(t, time.UTC, sess.ExpiresAt.Location(), "token exp is stored in UTC")

	ev := recv(t, all)
	assert.Equal(t, EventLogin, ev.Type)
	assert.Equal(t, sess.ID, ev.SessionID)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, tok, got.Token)

	mine, unsubscribeMine := store.Subscribe(sess.ID)
	defer unsubscribeMine()

	require.NoError(t, store.Delete(ctx, sess.ID))
	assert.Equal(t, EventLogout, recv(t, all).Type)
	assert.Equal(t, EventLogout, recv(t, mine).Type)

	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubscribe_FiltersBySession(t *testing.T) {
	store, clk := newTestStore(t)
	ctx := context.Background()

	a, err := store.Create(ctx, tokenFor(t, "user", clk.Now().Add(time.Hour)), models.UserProfile{})
	require.NoError(t, err)
	b, err := store.Create(ctx, tokenFor(t, "user", clk.Now().Add(time.Hour)), models.UserProfile{})
	require.NoError(t, err)

	onlyA, unsubscribe := store.Subscribe(a.ID)
	defer unsubscribe()

	require.NoError(t, store.Delete(ctx, b.ID))
	require.NoError(t, store.Delete(ctx, a.ID))

	ev := recv(t, onlyA)
	assert.Equal(t, a.ID, ev.SessionID)
	select {
	case extra := <-onlyA:
		t.Fatalf("unexpected event for another session: %+v", extra)
	default:
	}
}

func TestCreate_RejectsExpiredToken(t *testing.T) {
	store, clk := newTestStore(t)
	_, err := store.Create(context.Background(), tokenFor(t, "user", clk.Now().Add(-time.Minute)), models.UserProfile{})
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestCreate_MaxTTLCapsLifetime(t *testing.T) {
	store, clk := newTestStore(t, WithMaxTTL(30*time.Minute))
	sess, err := store.Create(context.Background(), tokenFor(t, "admin", clk.Now().Add(48*time.Hour)), models.UserProfile{})
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(30*time.Minute), sess.ExpiresAt)
}

func TestExpireDue(t *testing.T) {
	store, clk := newTestStore(t)
	ctx := context.Background()

	short, err := store.Create(ctx, tokenFor(t, "user", clk.Now().Add(time.Minute)), models.UserProfile{})
	require.NoError(t, err)
	_, err = store.Create(ctx, tokenFor(t, "user", clk.Now().Add(time.Hour)), models.UserProfile{})
	require.NoError(t, err)
	assert.Equal(t, 2, store.Tracked())

	events, unsubscribe := store.Subscribe(short.ID)
	defer unsubscribe()

	clk.Advance(2 * time.Minute)
	n, err := store.ExpireDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.Tracked())
	assert.False(t, store.Tracks(short.ID))

	ev := recv(t, events)
	assert.Equal(t, EventExpired, ev.Type)
	assert.True(t, ev.Ended())
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	store, _ := newTestStore(t)
	ch, unsubscribe := store.Subscribe("")
	unsubscribe()
	unsubscribe()
	_, ok := <-ch
	assert.False(t, ok)
}

type fakeBroadcaster struct {
	mu        sync.Mutex
	published []Event
	incoming  chan Event
}

func (f *fakeBroadcaster) Publish(_ context.Context, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, ev)
	return nil
}

func (f *fakeBroadcaster) Listen(ctx context.Context, fn func(Event)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-f.incoming:
			fn(ev)
		}
	}
}

func TestRun_RelaysRemoteEventsOnly(t *testing.T) {
	fb := &fakeBroadcaster{incoming: make(chan Event)}
	store, clk := newTestStore(t, WithBroadcaster(fb))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, unsubscribe := store.Subscribe("")
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		_ = store.Run(ctx)
		close(done)
	}()

	sess, err := store.Create(ctx, tokenFor(t, "user", clk.Now().Add(time.Hour)), models.UserProfile{})
	require.NoError(t, err)
	local := recv(t, events)
	assert.Equal(t, EventLogin, local.Type)

	fb.mu.Lock()
	require.Len(t, fb.published, 1)
	own := fb.published[0]
	fb.mu.Unlock()

	// our own event coming back through the broadcaster is ignored
	fb.incoming <- own
	fb.incoming <- Event{Type: EventLogout, SessionID: sess.ID, Origin: "other-instance"}

	remote := recv(t, events)
	assert.Equal(t, EventLogout, remote.Type)
	assert.Equal(t, "other-instance", remote.Origin)
	assert.Equal(t, 0, store.Tracked())

	cancel()
	<-done
}
