package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_donate/internal/authguard"
	"github.com/GTDGit/gtd_donate/internal/models"
	"github.com/GTDGit/gtd_donate/internal/report"
	"github.com/GTDGit/gtd_donate/internal/validation"
	"github.com/GTDGit/gtd_donate/pkg/donationapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signed(t *testing.T, role string) string {
	t.Helper()
	claims := authguard.Claims{Role: role}
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func labels(items []NavItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func TestNavigation(t *testing.T) {
	assert.Equal(t, []string{"Home", "Sign In", "Sign Up"}, labels(Navigation("")))
	assert.Equal(t, []string{"Home", "Sign In", "Sign Up"}, labels(Navigation("not-a-jwt")))
	assert.Equal(t, []string{"Home", "Dashboard", "Donation Report", "Logout"}, labels(Navigation(signed(t, models.RoleAdmin))))
	assert.Equal(t, []string{"Home", "Donate", "My Donations", "Logout"}, labels(Navigation(signed(t, models.RoleUser))))

	nav := Navigation(signed(t, models.RoleUser))
	assert.True(t, nav[len(nav)-1].Post)
}

func renderPage(t *testing.T, r *Renderer, name string, data Page) string {
	t.Helper()
	w := httptest.NewRecorder()
	require.NoError(t, r.Instance(name, data).Render(w))
	return w.Body.String()
}

func TestRendererParsesEveryPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	for _, name := range []string{"home.html", "forbidden.html", "notfound.html"} {
		body := renderPage(t, r, name, Page{Nav: anonymousNav()})
		assert.Contains(t, body, "GTD Donate", name)
	}

	body := renderPage(t, r, "donate.html", Page{
		Title:  "Donate",
		Form:   validation.DonateForm{Name: "<Ann>", Amount: "abc"},
		Errors: validation.FieldErrors{"amount": "Donation amount must be a positive number."},
		Flash:  &Flash{Kind: FlashError, Message: "Failed"},
	})
	assert.Contains(t, body, `value="&lt;Ann&gt;"`)
	assert.Contains(t, body, "Donation amount must be a positive number.")
	assert.Contains(t, body, `flash-error`)

	w := httptest.NewRecorder()
	assert.Error(t, r.Instance("missing.html", nil).Render(w))
}

func TestReportPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	q := report.DefaultQuery().WithPage(2).WithSort("amount")
	snap := report.Snapshot{
		Query:  q,
		Loaded: true,
		Page: report.Page{
			Rows: []donationapi.Donation{
				{ID: "d1", Name: "Ann", Amount: 150, AdminRemarks: "ok", CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)},
			},
			TotalPages:    3,
			TotalRecords:  21,
			TotalDonation: 2100.5,
		},
	}

	admin := renderPage(t, r, "report.html", Page{Data: NewReportView(report.AdminVariant, snap)})
	assert.Contains(t, admin, "Donation Report")
	assert.Contains(t, admin, "<td>11</td>")
	assert.Contains(t, admin, "150.00")
	assert.Contains(t, admin, "2100.50")
	assert.Contains(t, admin, "2024-03-01 09:30")
	assert.Contains(t, admin, "Amount (BDT) ▲")
	assert.Contains(t, admin, "/admin/report?sortKey=amount&amp;sortDirection=desc")
	assert.Contains(t, admin, "/admin/report?sortKey=name&amp;sortDirection=asc")
	assert.Contains(t, admin, "/admin/report/donations/d1/delete")
	assert.Contains(t, admin, "Page 2 of 3")
	assert.Contains(t, admin, "Admin Remarks")

	user := renderPage(t, r, "report.html", Page{Data: NewReportView(report.UserVariant, snap)})
	assert.Contains(t, user, "My Donations")
	assert.NotContains(t, user, "/delete")
	assert.NotContains(t, user, "Admin Remarks")

	empty := renderPage(t, r, "report.html", Page{Data: NewReportView(report.UserVariant, report.Snapshot{Query: report.DefaultQuery(), Loaded: true, Error: report.MsgFetchFailed})})
	assert.Contains(t, empty, "No donations found.")
	assert.Contains(t, empty, "Page 1 of 1")
	assert.Contains(t, empty, report.MsgFetchFailed)
}

func TestRowNumber(t *testing.T) {
	assert.Equal(t, 1, rowNumber(report.DefaultQuery(), 0))
	assert.Equal(t, 53, rowNumber(report.QueryState{Page: 3, PageSize: 20}, 12))
	assert.Equal(t, 1, rowNumber(report.QueryState{}, 0))
}

func TestFlashRoundTrip(t *testing.T) {
	f := NewFlasher([]byte("0123456789abcdef0123456789abcdef"), false)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	f.Set(c, FlashSuccess, "Thank you for your donation!")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c2.Request.AddCookie(cookies[0])

	fl := f.Pop(c2)
	require.NotNil(t, fl)
	assert.Equal(t, FlashSuccess, fl.Kind)
	assert.Equal(t, "Thank you for your donation!", fl.Message)
	assert.Contains(t, w2.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestFlashRejectsTamperedCookie(t *testing.T) {
	f := NewFlasher([]byte("secret"), false)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	f.Set(c, FlashError, "boom")
	cookie := w.Result().Cookies()[0]

	value, sig, ok := strings.Cut(cookie.Value, ".")
	require.True(t, ok)
	cookie.Value = value + "x." + sig

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c2.Request.AddCookie(cookie)
	assert.Nil(t, f.Pop(c2))
}
