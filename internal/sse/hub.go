// Package sse pushes session and donation changes to open browser tabs.
package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// tabBuffer is the number of undelivered messages a tab may queue before
// new ones are dropped.
const tabBuffer = 64

// EventType defines the SSE event name.
type EventType string

const (
	// EventSessionEnded tells the tabs of a session that it logged out or
	// expired elsewhere; they reload into the signed-out state.
	EventSessionEnded EventType = "session.ended"
	// EventDonationsChanged tells open reports that a donation was created,
	// edited or deleted.
	EventDonationsChanged EventType = "donations.changed"
)

// Message is the payload sent to open tabs.
type Message struct {
	Event      EventType `json:"event"`
	Reason     string    `json:"reason,omitempty"`
	DonationID string    `json:"donationId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Tab is one open browser tab of a session.
type Tab struct {
	ID        string
	SessionID string
	Events    chan []byte
}

// Hub tracks the open tabs of every session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Tab
	tabByID  map[string]*Tab
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[string]*Tab),
		tabByID:  make(map[string]*Tab),
	}
}

// Register opens tabID for sessionID. Registering an id twice replaces the
// earlier tab.
func (h *Hub) Register(tabID, sessionID string) *Tab {
	tab := &Tab{ID: tabID, SessionID: sessionID, Events: make(chan []byte, tabBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(tabID)
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[string]*Tab)
	}
	h.sessions[sessionID][tabID] = tab
	h.tabByID[tabID] = tab

	log.Debug().Str("tab_id", tabID).Int("open_tabs", len(h.tabByID)).Msg("Session stream opened")
	return tab
}

// Unregister closes a tab. Unknown ids are ignored.
func (h *Hub) Unregister(tabID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.removeLocked(tabID) {
		log.Debug().Str("tab_id", tabID).Int("open_tabs", len(h.tabByID)).Msg("Session stream closed")
	}
}

func (h *Hub) removeLocked(tabID string) bool {
	tab, ok := h.tabByID[tabID]
	if !ok {
		return false
	}
	delete(h.tabByID, tabID)
	if tabs := h.sessions[tab.SessionID]; tabs != nil {
		delete(tabs, tabID)
		if len(tabs) == 0 {
			delete(h.sessions, tab.SessionID)
		}
	}
	close(tab.Events)
	return true
}

// Send delivers msg to every tab of sessionID and returns how many got it.
func (h *Hub) Send(sessionID string, msg *Message) int {
	data, ok := encode(msg)
	if !ok {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, tab := range h.sessions[sessionID] {
		if offer(tab, data) {
			sent++
		}
	}
	return sent
}

// Broadcast delivers msg to every open tab and returns how many got it.
func (h *Hub) Broadcast(msg *Message) int {
	data, ok := encode(msg)
	if !ok {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, tab := range h.tabByID {
		if offer(tab, data) {
			sent++
		}
	}
	return sent
}

// TabCount returns the number of open tabs.
func (h *Hub) TabCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tabByID)
}

func encode(msg *Message) ([]byte, bool) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return nil, false
	}
	return data, true
}

// offer never blocks: a tab whose buffer is full misses the message.
func offer(tab *Tab, data []byte) bool {
	select {
	case tab.Events <- data:
		return true
	default:
		log.Warn().Str("tab_id", tab.ID).Msg("Session stream buffer full, dropping event")
		return false
	}
}
