package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_donate/internal/utils"
)

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

const flashCookie = "gtd_flash"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

// Flasher carries flashes across a redirect in a signed cookie.
type Flasher struct {
	secret []byte
	secure bool
}

func NewFlasher(secret []byte, secure bool) *Flasher {
	return &Flasher{secret: secret, secure: secure}
}

// Set stores a flash for the next request.
func (f *Flasher) Set(c *gin.Context, kind, message string) {
	raw, err := json.Marshal(Flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	value := utils.Sign(base64.RawURLEncoding.EncodeToString(raw), f.secret)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, value, 60, "/", "", f.secure, true)
}

// Pop returns the pending flash, if any, and clears it. Tampered cookies
// are dropped.
func (f *Flasher) Pop(c *gin.Context) *Flash {
	value, err := c.Cookie(flashCookie)
	if err != nil || value == "" {
		return nil
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, "", -1, "/", "", f.secure, true)

	encoded, ok := utils.Unsign(value, f.secret)
	if !ok {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	var fl Flash
	if err := json.Unmarshal(raw, &fl); err != nil || fl.Message == "" {
		return nil
	}
	return &fl
}
