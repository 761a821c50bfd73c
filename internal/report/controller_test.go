package report

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_donate/pkg/donationapi"
)

type fetchFunc func(ctx context.Context, token string, scope donationapi.Scope, query url.Values) (*donationapi.ListResponse, error)

func (f fetchFunc) ListDonations(ctx context.Context, token string, scope donationapi.Scope, query url.Values) (*donationapi.ListResponse, error) {
	return f(ctx, token, scope, query)
}

func listOf(totalPages int, names ...string) *donationapi.ListResponse {
	resp := &donationapi.ListResponse{TotalPages: totalPages, TotalRecords: len(names)}
	for i, n := range names {
		resp.Data = append(resp.Data, donationapi.Donation{ID: n, Name: n, Amount: donationapi.Amount(10 * (i + 1))})
		resp.TotalDonation += donationapi.Amount(10 * (i + 1))
	}
	return resp
}

func TestControllerMissingTokenSkipsNetwork(t *testing.T) {
	var calls int32
	c := NewController(fetchFunc(func(context.Context, string, donationapi.Scope, url.Values) (*donationapi.ListResponse, error) {
		atomic.AddInt32(&calls, 1)
		return listOf(1), nil
	}), AdminVariant)

	snap := c.Refresh(context.Background(), "")
	assert.Equal(t, MsgMissingToken, snap.Error)
	assert.False(t, snap.Loaded)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestControllerUsesVariantScopeAndQuery(t *testing.T) {
	var gotScope donationapi.Scope
	var gotQuery url.Values
	c := NewController(fetchFunc(func(_ context.Context, token string, scope donationapi.Scope, q url.Values) (*donationapi.ListResponse, error) {
		gotScope, gotQuery = scope, q
		return listOf(1, "a", "b"), nil
	}), UserVariant)

	snap := c.View(context.Background(), "tok", url.Values{"search": {"a"}})
	require.Empty(t, snap.Error)
	assert.Equal(t, donationapi.ScopeUser, gotScope)
	assert.Equal(t, "a", gotQuery.Get("search"))
	assert.Len(t, snap.Page.Rows, 2)
	assert.Equal(t, 30.0, snap.Page.TotalDonation)
	assert.True(t, snap.Loaded)
	assert.Equal(t, uint64(1), snap.Seq)
}

func TestControllerStaleOnError(t *testing.T) {
	fail := false
	c := NewController(fetchFunc(func(context.Context, string, donationapi.Scope, url.Values) (*donationapi.ListResponse, error) {
		if fail {
			return nil, errors.New("connection refused")
		}
		return listOf(2, "a", "b"), nil
	}), AdminVariant)

	first := c.Refresh(context.Background(), "tok")
	require.Len(t, first.Page.Rows, 2)

	fail = true
	snap := c.View(context.Background(), "tok", url.Values{"page": {"2"}})
	assert.Equal(t, MsgFetchFailed, snap.Error)
	assert.Len(t, snap.Page.Rows, 2, "rows of the last good fetch stay visible")
	assert.Equal(t, 2, snap.Query.Page)

	fail = false
	snap = c.Refresh(context.Background(), "tok")
	assert.Empty(t, snap.Error)
}

func TestControllerViewFetchesOnEveryView(t *testing.T) {
	var queries []url.Values
	c := NewController(fetchFunc(func(_ context.Context, _ string, _ donationapi.Scope, q url.Values) (*donationapi.ListResponse, error) {
		queries = append(queries, q)
		return listOf(1, "a"), nil
	}), AdminVariant)

	c.View(context.Background(), "tok", nil)
	c.View(context.Background(), "tok", nil)
	snap := c.View(context.Background(), "tok", url.Values{"sortKey": {"name"}, "sortDirection": {"desc"}})

	require.Len(t, queries, 3)
	assert.Empty(t, queries[0].Get("sortKey"))
	assert.Equal(t, "name", queries[2].Get("sortKey"))
	assert.Equal(t, "desc", queries[2].Get("sortDirection"))
	assert.Equal(t, SortConfig{Key: "name", Direction: SortDesc}, snap.Query.Sort)
	assert.Equal(t, uint64(3), snap.Seq)
}

func TestControllerAppliesOnlyNewestFetch(t *testing.T) {
	release := make(chan struct{})
	firstStarted := make(chan struct{})
	var firstCtxErr atomic.Value

	c := NewController(fetchFunc(func(ctx context.Context, _ string, _ donationapi.Scope, q url.Values) (*donationapi.ListResponse, error) {
		if q.Get("search") == "slow" {
			close(firstStarted)
			<-release
			firstCtxErr.Store(ctx.Err() != nil)
			return listOf(1, "slow"), nil
		}
		return listOf(1, "fast"), nil
	}), AdminVariant)

	var wg sync.WaitGroup
	wg.Add(1)
	var slowSnap Snapshot
	go func() {
		defer wg.Done()
		slowSnap = c.View(context.Background(), "tok", url.Values{"search": {"slow"}})
	}()

	select {
	case <-firstStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("first fetch did not start")
	}

	fastSnap := c.View(context.Background(), "tok", url.Values{"search": {"fast"}})
	require.Len(t, fastSnap.Page.Rows, 1)
	assert.Equal(t, "fast", fastSnap.Page.Rows[0].Name)

	close(release)
	wg.Wait()

	assert.Equal(t, true, firstCtxErr.Load(), "superseded fetch is cancelled")
	require.Len(t, slowSnap.Page.Rows, 1)
	assert.Equal(t, "fast", slowSnap.Page.Rows[0].Name)

	final := c.Snapshot()
	assert.Equal(t, "fast", final.Page.Rows[0].Name)
	assert.Equal(t, uint64(2), final.Seq)
}

func TestControllerAfterDeleteClampsPage(t *testing.T) {
	var pages []string
	c := NewController(fetchFunc(func(_ context.Context, _ string, _ donationapi.Scope, q url.Values) (*donationapi.ListResponse, error) {
		pages = append(pages, q.Get("page"))
		if q.Get("page") == "3" {
			return listOf(2), nil
		}
		return listOf(2, "x"), nil
	}), AdminVariant)

	c.View(context.Background(), "tok", url.Values{"page": {"3"}})
	pages = nil

	snap := c.AfterDelete(context.Background(), "tok")
	assert.Equal(t, []string{"3", "2"}, pages)
	assert.Equal(t, 2, snap.Query.Page)
	assert.Len(t, snap.Page.Rows, 1)
}

func TestControllerAfterDeleteEmptyResultClampsToFirstPage(t *testing.T) {
	c := NewController(fetchFunc(func(_ context.Context, _ string, _ donationapi.Scope, q url.Values) (*donationapi.ListResponse, error) {
		return listOf(0), nil
	}), AdminVariant)

	c.View(context.Background(), "tok", url.Values{"page": {"2"}})
	snap := c.AfterDelete(context.Background(), "tok")
	assert.Equal(t, 1, snap.Query.Page)
	assert.Empty(t, snap.Page.Rows)
}

func TestControllerRow(t *testing.T) {
	c := NewController(fetchFunc(func(context.Context, string, donationapi.Scope, url.Values) (*donationapi.ListResponse, error) {
		return listOf(1, "a", "b"), nil
	}), AdminVariant)
	c.Refresh(context.Background(), "tok")

	row, ok := c.Row("b")
	require.True(t, ok)
	assert.Equal(t, "b", row.Name)

	_, ok = c.Row("zzz")
	assert.False(t, ok)
}
