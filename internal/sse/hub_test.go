package sse

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_donate/internal/session"
)

func readMessage(t *testing.T, c *Tab) Message {
	t.Helper()
	select {
	case data := <-c.Events:
		var m Message
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	case <-time.After(time.Second):
		t.Fatal("no message")
	}
	return Message{}
}

func TestHubSendTargetsSession(t *testing.T) {
	h := NewHub()
	a1 := h.Register("a1", "sess-a")
	a2 := h.Register("a2", "sess-a")
	b := h.Register("b", "sess-b")

	n := h.Send("sess-a", &Message{Event: EventSessionEnded, Reason: "logout"})
	assert.Equal(t, 2, n)
	assert.Equal(t, EventSessionEnded, readMessage(t, a1).Event)
	assert.Equal(t, "logout", readMessage(t, a2).Reason)
	assert.Empty(t, b.Events)

	assert.Equal(t, 3, h.Broadcast(&Message{Event: EventDonationsChanged}))
}

func TestHubUnregisterClosesChannel(t *testing.T) {
	h := NewHub()
	c := h.Register("x", "s")
	h.Unregister("x")
	h.Unregister("x")

	_, ok := <-c.Events
	assert.False(t, ok)
	assert.Zero(t, h.TabCount())
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	h.Register("x", "s")
	for i := 0; i < 64; i++ {
		require.Equal(t, 1, h.Send("s", &Message{Event: EventDonationsChanged}))
	}
	assert.Zero(t, h.Send("s", &Message{Event: EventDonationsChanged}))
}

func TestForwardRelaysSessionEnds(t *testing.T) {
	h := NewHub()
	c := h.Register("tab", "s1")

	events := make(chan session.Event, 3)
	events <- session.Event{Type: session.EventLogin, SessionID: "s1"}
	events <- session.Event{Type: session.EventExpired, SessionID: "s1"}
	close(events)

	h.Forward(context.Background(), events)

	m := readMessage(t, c)
	assert.Equal(t, EventSessionEnded, m.Event)
	assert.Equal(t, "expired", m.Reason)
	assert.Empty(t, c.Events)
}

func TestHubNotifierSkipsWithoutClients(t *testing.T) {
	h := NewHub()
	NewHubNotifier(h).NotifyDonationsChanged("d1", "deleted")

	c := h.Register("tab", "s")
	NewHubNotifier(h).NotifyDonationsChanged("d1", "deleted")
	m := readMessage(t, c)
	assert.Equal(t, "d1", m.DonationID)
	assert.Equal(t, "deleted", m.Reason)
}

func TestHubRegisterReplacesTab(t *testing.T) {
	h := NewHub()
	old := h.Register("tab", "s1")
	cur := h.Register("tab", "s2")

	_, ok := <-old.Events
	assert.False(t, ok)
	assert.Equal(t, 1, h.TabCount())
	assert.Zero(t, h.Send("s1", &Message{Event: EventSessionEnded}))
	assert.Equal(t, 1, h.Send("s2", &Message{Event: EventSessionEnded}))
	assert.Equal(t, EventSessionEnded, readMessage(t, cur).Event)

	h.Unregister("tab")
	assert.Empty(t, h.sessions)
}
