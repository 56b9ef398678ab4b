package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultPollWindow = 1 * time.Second

// PollLimiter throttles status polling to one request per window for a
// given client and resource.
type PollLimiter struct {
	mu      sync.Mutex
	lastHit map[string]time.Time
	now     func() time.Time
	window  time.Duration
}

func NewPollLimiter(window time.Duration, now func() time.Time) *PollLimiter {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = defaultPollWindow
	}
	return &PollLimiter{
		lastHit: make(map[string]time.Time),
		now:     now,
		window:  window,
	}
}

func (l *PollLimiter) Allow(clientKey, resourceID string) bool {
	if l == nil {
		return true
	}
	key := clientKey + "|" + resourceID
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastHit[key]; ok {
		if now.Sub(last) < l.window {
			return false
		}
	}
	l.lastHit[key] = now
	return true
}

func (l *PollLimiter) RetryAfterSeconds() int {
	if l == nil {
		return int(defaultPollWindow.Seconds())
	}
	secs := int(l.window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// PollLimit guards a GET-by-id route against tight polling loops.
func PollLimit(limiter *PollLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter.Allow(c.ClientIP(), c.Param("id")) {
			c.Next()
			return
		}
		c.Header("Retry-After", strconv.Itoa(limiter.RetryAfterSeconds()))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":        "rate_limited",
			"retryAfterMs": int(limiter.window / time.Millisecond),
		})
		c.Abort()
	}
}
