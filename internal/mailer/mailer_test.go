package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceipt(t *testing.T) {
	_, ok, err := Receipt("Ann", "", 10, "")
	require.NoError(t, err)
	assert.False(t, ok, "no email, no receipt")

	req, ok, err := Receipt("<Ann>", "ann@x.com", 100, "for the school")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"ann@x.com"}, req.To)
	assert.Contains(t, req.HTML, "BDT 100.00")
	assert.Contains(t, req.HTML, "&lt;Ann&gt;")
	assert.Contains(t, req.HTML, "for the school")
	assert.Equal(t, CategoryReceipt, req.Tags[TagCategory])
}

func TestResendSenderSend(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer srv.Close()

	s := NewResendSender("re_test", "GTD Donate <donate@example.com>")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	s.client.BaseURL = base

	res, err := s.Send(context.Background(), SendRequest{
		To:      []string{"ann@x.com"},
		Subject: "Hi",
		HTML:    "<p>x</p>",
		Tags:    map[string]string{TagCategory: CategoryReceipt, "campaign": "winter"},
	})
	require.NoError(t, err)
	assert.Equal(t, "msg_123", res.MessageID)
	assert.Equal(t, "GTD Donate <donate@example.com>", body["from"])
	assert.Equal(t, "Hi", body["subject"])
	assert.Equal(t, []any{
		map[string]any{"name": "campaign", "value": "winter"},
		map[string]any{"name": "category", "value": "donation_receipt"},
	}, body["tags"])
}

func TestResendSenderSendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"bad from"}`))
	}))
	defer srv.Close()

	s := NewResendSender("re_test", "donate@example.com")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	s.client.BaseURL = base

	_, err = s.Send(context.Background(), SendRequest{To: []string{"ann@x.com"}, Tags: map[string]string{TagCategory: CategoryReceipt}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliver donation_receipt via resend")
}

func TestNoopSender(t *testing.T) {
	res, err := NewNoopSender().Send(context.Background(), SendRequest{Subject: "x"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.MessageID, "noop-"))
	assert.False(t, res.SentAt.IsZero())
}
