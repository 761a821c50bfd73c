package report

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of the from and to filters.
const DateLayout = "2006-01-02"

// DefaultPageSize is used until the viewer picks another size.
const DefaultPageSize = 10

// PageSizes are the selectable page sizes.
var PageSizes = []int{10, 20, 50, 100}

// SortKeys are the sortable columns.
var SortKeys = []string{"name", "email", "amount", "createdAt"}

// SortDirection is "asc", "desc" or empty when unsorted.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortConfig is the active sort column and direction.
type SortConfig struct {
	Key       string        `json:"key"`
	Direction SortDirection `json:"direction"`
}

// Toggle returns the sort after clicking the header of key: an ascending
// sort on the same key flips to descending, anything else sorts key
// ascending.
func (s SortConfig) Toggle(key string) SortConfig {
	if s.Key == key && s.Direction == SortAsc {
		return SortConfig{Key: key, Direction: SortDesc}
	}
	return SortConfig{Key: key, Direction: SortAsc}
}

// QueryState fully determines the next list fetch.
type QueryState struct {
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
	Search   string     `json:"search"`
	Sort     SortConfig `json:"sort"`
	From     string     `json:"from"`
	To       string     `json:"to"`
}

// DefaultQuery is the state of a freshly opened report.
func DefaultQuery() QueryState {
	return QueryState{Page: 1, PageSize: DefaultPageSize}
}

// Values encodes q as list endpoint parameters. page and limit are always
// present; the others only when set.
func (q QueryState) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(max(q.Page, 1)))
	v.Set("limit", strconv.Itoa(q.pageSizeOrDefault()))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort.Key != "" {
		v.Set("sortKey", q.Sort.Key)
	}
	if q.Sort.Direction != "" {
		v.Set("sortDirection", string(q.Sort.Direction))
	}
	if q.From != "" {
		v.Set("from", q.From)
	}
	if q.To != "" {
		v.Set("to", q.To)
	}
	return v
}

func (q QueryState) pageSizeOrDefault() int {
	if q.PageSize <= 0 {
		return DefaultPageSize
	}
	return q.PageSize
}

// WithPage moves to page p (at least 1).
func (q QueryState) WithPage(p int) QueryState {
	q.Page = max(p, 1)
	return q
}

// WithPageSize switches to one of PageSizes. Other sizes are ignored. The
// page index is kept.
func (q QueryState) WithPageSize(n int) QueryState {
	if slices.Contains(PageSizes, n) {
		q.PageSize = n
	}
	return q
}

// WithSearch sets the search text. A changed search goes back to page 1.
func (q QueryState) WithSearch(s string) QueryState {
	if s != q.Search {
		q.Search = s
		q.Page = 1
	}
	return q
}

// WithSort toggles the sort on key. Unknown keys are ignored. The page
// index is kept.
func (q QueryState) WithSort(key string) QueryState {
	if slices.Contains(SortKeys, key) {
		q.Sort = q.Sort.Toggle(key)
	}
	return q
}

// WithSortDirection sorts key in dir. Unlike WithSort it is idempotent, so
// a reloaded sort link keeps its order. Unknown keys or directions are
// ignored.
func (q QueryState) WithSortDirection(key string, dir SortDirection) QueryState {
	if slices.Contains(SortKeys, key) && (dir == SortAsc || dir == SortDesc) {
		q.Sort = SortConfig{Key: key, Direction: dir}
	}
	return q
}

// WithFrom sets the lower date bound; "" clears it and an unparsable date
// is ignored. The page index is kept.
func (q QueryState) WithFrom(date string) QueryState {
	if d, ok := normalizeDate(date); ok {
		q.From = d
	}
	return q
}

// WithTo sets the upper date bound like WithFrom.
func (q QueryState) WithTo(date string) QueryState {
	if d, ok := normalizeDate(date); ok {
		q.To = d
	}
	return q
}

// Apply folds the report actions present in params into q. "reset" starts
// over from DefaultQuery; "page" is applied last so an explicit page wins.
func (q QueryState) Apply(params url.Values) QueryState {
	if params.Has("reset") {
		q = DefaultQuery()
	}
	if params.Has("search") {
		q = q.WithSearch(strings.TrimSpace(params.Get("search")))
	}
	if key := params.Get("sortKey"); key != "" {
		if dir := SortDirection(params.Get("sortDirection")); dir != "" {
			q = q.WithSortDirection(key, dir)
		} else {
			q = q.WithSort(key)
		}
	}
	if params.Has("from") {
		q = q.WithFrom(params.Get("from"))
	}
	if params.Has("to") {
		q = q.WithTo(params.Get("to"))
	}
	if n, err := strconv.Atoi(params.Get("limit")); err == nil {
		q = q.WithPageSize(n)
	}
	if p, err := strconv.Atoi(params.Get("page")); err == nil {
		q = q.WithPage(p)
	}
	return q
}

func normalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", false
	}
	return t.Format(DateLayout), true
}
