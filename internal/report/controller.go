// Package report owns the state of the donation report pages: the query
// (page, size, search, sort, date range), the last page the API returned and
// the fetch error, per session and report variant.
package report

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/models"
	"github.com/GTDGit/gtd_donate/pkg/donationapi"
)

// Error messages shown on the report.
const (
	MsgMissingToken = "Authentication token not found"
	MsgFetchFailed  = "Failed to fetch donations"
)

// Fetcher lists donations from the API.
type Fetcher interface {
	ListDonations(ctx context.Context, token string, scope donationapi.Scope, query url.Values) (*donationapi.ListResponse, error)
}

// Variant describes one report page.
type Variant struct {
	Name     string
	Scope    donationapi.Scope
	Roles    []string
	BasePath string
	Title    string
}

// IsAdmin reports whether the variant shows admin-only columns and actions.
func (v Variant) IsAdmin() bool { return v.Scope == donationapi.ScopeAll }

var (
	AdminVariant = Variant{
		Name:     "admin",
		Scope:    donationapi.ScopeAll,
		Roles:    []string{models.RoleAdmin},
		BasePath: "/admin/report",
		Title:    "Donation Report",
	}
	UserVariant = Variant{
		Name:     "user",
		Scope:    donationapi.ScopeUser,
		Roles:    []string{models.RoleUser, models.RoleAdmin},
		BasePath: "/user/report",
		Title:    "My Donations",
	}
)

// Page is one page of rows plus the server computed totals.
type Page struct {
	Rows          []donationapi.Donation `json:"rows"`
	TotalPages    int                    `json:"totalPages"`
	TotalRecords  int                    `json:"totalRecords"`
	TotalDonation float64                `json:"totalDonation"`
}

// Snapshot is a copy of a controller's state.
type Snapshot struct {
	Query     QueryState `json:"query"`
	Page      Page       `json:"page"`
	Error     string     `json:"error,omitempty"`
	Loaded    bool       `json:"loaded"`
	Seq       uint64     `json:"seq"`
	FetchedAt time.Time  `json:"fetchedAt"`
}

// Controller holds the report state of one session and variant. Fetches run
// outside the lock; each gets a sequence number and cancels the one before
// it, and only the newest fetch's result is applied.
type Controller struct {
	fetcher Fetcher
	variant Variant
	now     func() time.Time

	mu        sync.Mutex
	query     QueryState
	page      Page
	errMsg    string
	loaded    bool
	seq       uint64
	applied   uint64
	fetchedAt time.Time
	cancel    context.CancelFunc
}

// NewController creates a controller starting from DefaultQuery.
func NewController(fetcher Fetcher, variant Variant) *Controller {
	return &Controller{
		fetcher: fetcher,
		variant: variant,
		now:     time.Now,
		query:   DefaultQuery(),
	}
}

// Snapshot returns the current state without fetching.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Row returns the loaded row with id.
func (c *Controller) Row(id string) (donationapi.Donation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.page.Rows {
		if d.ID == id {
			return d, true
		}
	}
	return donationapi.Donation{}, false
}

// View applies the report actions in params and fetches. Every page view
// fetches, like the first view of the report.
func (c *Controller) View(ctx context.Context, token string, params url.Values) Snapshot {
	c.mu.Lock()
	c.query = c.query.Apply(params)
	c.mu.Unlock()
	return c.fetch(ctx, token)
}

// Refresh refetches the current query.
func (c *Controller) Refresh(ctx context.Context, token string) Snapshot {
	return c.fetch(ctx, token)
}

// AfterDelete refetches after a row was removed. When the current page no
// longer exists it moves to the last valid page and fetches again.
func (c *Controller) AfterDelete(ctx context.Context, token string) Snapshot {
	snap := c.fetch(ctx, token)
	if snap.Error != "" {
		return snap
	}
	last := max(snap.Page.TotalPages, 1)
	if snap.Query.Page <= last {
		return snap
	}

	c.mu.Lock()
	c.query = c.query.WithPage(last)
	c.mu.Unlock()
	log.Debug().Str("variant", c.variant.Name).Int("page", last).Msg("Report page clamped after delete")
	return c.fetch(ctx, token)
}

// Close cancels an in-flight fetch.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) fetch(ctx context.Context, token string) Snapshot {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	query := c.query
	if c.cancel != nil {
		c.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	var (
		resp *donationapi.ListResponse
		err  error
	)
	if token == "" {
		err = donationapi.ErrMissingToken
	} else {
		resp, err = c.fetcher.ListDonations(fetchCtx, token, c.variant.Scope, query.Values())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		// A newer fetch was started; its result wins.
		return c.snapshotLocked()
	}
	c.cancel = nil

	switch {
	case errors.Is(err, donationapi.ErrMissingToken):
		c.errMsg = MsgMissingToken
	case errors.Is(err, context.Canceled):
		// The caller went away; keep the previous state.
		return c.snapshotLocked()
	case err != nil:
		log.Warn().Err(err).Str("variant", c.variant.Name).Uint64("seq", seq).Msg("Failed to fetch donations")
		c.errMsg = MsgFetchFailed
	default:
		c.page = Page{
			Rows:          resp.Data,
			TotalPages:    resp.TotalPages,
			TotalRecords:  resp.TotalRecords,
			TotalDonation: resp.TotalDonation.Float64(),
		}
		if c.page.Rows == nil {
			c.page.Rows = []donationapi.Donation{}
		}
		c.errMsg = ""
		c.loaded = true
		c.fetchedAt = c.now()
	}
	c.applied = seq
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	rows := make([]donationapi.Donation, len(c.page.Rows))
	copy(rows, c.page.Rows)
	page := c.page
	page.Rows = rows
	return Snapshot{
		Query:     c.query,
		Page:      page,
		Error:     c.errMsg,
		Loaded:    c.loaded,
		Seq:       c.applied,
		FetchedAt: c.fetchedAt,
	}
}
