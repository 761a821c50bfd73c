package sse

import (
	"context"

	"github.com/GTDGit/gtd_donate/internal/session"
)

// DonationNotifier is the interface services use to announce donation
// changes to open reports.
type DonationNotifier interface {
	NotifyDonationsChanged(donationID, action string)
}

// HubNotifier implements DonationNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyDonationsChanged(donationID, action string) {
	if n.hub.TabCount() == 0 {
		return
	}
	n.hub.Broadcast(&Message{Event: EventDonationsChanged, DonationID: donationID, Reason: action})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (n *NopNotifier) NotifyDonationsChanged(donationID, action string) {}

// Forward relays session ends from the session store to the tabs of that
// session until ctx is done or events is closed.
func (h *Hub) Forward(ctx context.Context, events <-chan session.Event) {
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
			h.Send(ev.SessionID, &Message{Event: EventSessionEnded, Reason: string(ev.Type), Timestamp: ev.At})
		}
	}
}
