package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_donate/internal/utils"
)

// Rate limiter ONLY for failed sign-in attempts: successful sign-ins and
// other traffic never count.
type InvalidAuthRateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptInfo
	limit    int
	window   time.Duration
	now      func() time.Time
}

type attemptInfo struct {
	count   int
	firstAt time.Time
}

// NewInvalidAuthRateLimiter allows 5 failed attempts per minute per IP.
func NewInvalidAuthRateLimiter() *InvalidAuthRateLimiter {
	return &InvalidAuthRateLimiter{
		attempts: make(map[string]*attemptInfo),
		limit:    5,
		window:   time.Minute,
		now:      time.Now,
	}
}

// Blocked reports whether ip used up its failed attempts in the current
// window.
func (r *InvalidAuthRateLimiter) Blocked(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.attempts[ip]
	if !exists {
		return false
	}
	if r.now().Sub(info.firstAt) > r.window {
		delete(r.attempts, ip)
		return false
	}
	return info.count >= r.limit
}

// Fail records a failed attempt of ip.
func (r *InvalidAuthRateLimiter) Fail(ip string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	info, exists := r.attempts[ip]
	// Reset if window expired
	if !exists || now.Sub(info.firstAt) > r.window {
		r.attempts[ip] = &attemptInfo{count: 1, firstAt: now}
		return
	}
	info.count++
}

// Reset forgets the attempts of ip after a successful sign-in.
func (r *InvalidAuthRateLimiter) Reset(ip string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, ip)
}

// Guard rejects requests from blocked IPs with 429.
func (r *InvalidAuthRateLimiter) Guard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Blocked(c.ClientIP()) {
			c.Next()
			return
		}
		c.Header("Retry-After", "60")
		if utils.WantsJSON(c) {
			utils.Error(c, http.StatusTooManyRequests, utils.ErrTooManyAttempts.Error(), "Too many failed sign-in attempts. Please try again later.")
		} else {
			c.String(http.StatusTooManyRequests, "Too many failed sign-in attempts. Please try again later.")
		}
		c.Abort()
	}
}

// Start drops stale entries every five minutes until ctx is done.
func (r *InvalidAuthRateLimiter) Start(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.cleanup()
		}
	}
}

func (r *InvalidAuthRateLimiter) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for ip, info := range r.attempts {
		if now.Sub(info.firstAt) > r.window {
			delete(r.attempts, ip)
		}
	}
}
