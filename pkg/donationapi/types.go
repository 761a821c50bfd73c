package donationapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are the timestamp formats accepted from the API, tried in
// order.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

// Amount is a donation amount in BDT. The API stores what the donate form
// submitted, so it may come back either as a JSON number or a numeric string.
type Amount float64

// UnmarshalJSON accepts 100, 100.5, "100" and "100.50".
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", s, err)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

// Float64 returns the amount as a float64.
func (a Amount) Float64() float64 { return float64(a) }

// Donation is one donation row as returned by the list endpoints.
type Donation struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Amount       Amount    `json:"amount"`
	Message      string    `json:"message"`
	AdminRemarks string    `json:"adminRemarks,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UnmarshalJSON accepts string or numeric ids and the timestamp formats
// of timeLayouts. A timestamp in any other format decodes as the zero time
// so one odd row does not fail the whole page.
func (d *Donation) UnmarshalJSON(data []byte) error {
	type plain Donation
	aux := struct {
		*plain
		ID        json.RawMessage `json:"id"`
		CreatedAt json.RawMessage `json:"createdAt"`
		UpdatedAt json.RawMessage `json:"updatedAt"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	id, err := decodeID(aux.ID)
	if err != nil {
		return err
	}
	d.ID = id
	d.CreatedAt = decodeTime(aux.CreatedAt)
	d.UpdatedAt = decodeTime(aux.UpdatedAt)
	return nil
}

// decodeID returns a JSON string or number as a string.
func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("invalid id %s: %w", raw, err)
	}
	return n.String(), nil
}

// decodeTime parses a timestamp string or unix milliseconds.
func decodeTime(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}
	if raw[0] != '"' {
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return time.Time{}
		}
		return time.UnixMilli(ms).UTC()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ListResponse is the page envelope of GET /donations and GET /donations/user.
type ListResponse struct {
	Data          []Donation `json:"data"`
	TotalPages    int        `json:"totalPages"`
	TotalRecords  int        `json:"totalRecords"`
	TotalDonation Amount     `json:"totalDonation"`
}

// Stats is the payload of GET /donations/stats.
type Stats struct {
	TodayDonation Amount `json:"todayDonation"`
	TotalDonation Amount `json:"totalDonation"`
	TotalUsers    int    `json:"totalUsers"`
	TodayUsers    int    `json:"todayUsers"`
}

// User is the profile returned next to the token on sign-in and sign-up.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UnmarshalJSON accepts string or numeric ids.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := decodeID(aux.ID)
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// AuthResponse is the payload of POST /auth/signin and POST /auth/signup.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// errorBody is the optional error payload of a non-2xx response.
type errorBody struct {
	Message string `json:"message"`
}
