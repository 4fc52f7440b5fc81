package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyedRateLimiter stores a rate limiter per caller key.
type KeyedRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       *sync.RWMutex
	r        rate.Limit
	b        int
}

// NewKeyedRateLimiter creates a new KeyedRateLimiter.
func NewKeyedRateLimiter(r rate.Limit, b int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		mu:       &sync.RWMutex{},
		r:        r,
		b:        b,
	}
}

func (k *KeyedRateLimiter) add(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	limiter := rate.NewLimiter(k.r, k.b)
	k.limiters[key] = limiter
	return limiter
}

// GetLimiter returns the rate limiter for a caller key.
func (k *KeyedRateLimiter) GetLimiter(key string) *rate.Limiter {
	k.mu.RLock()
	limiter, exists := k.limiters[key]
	k.mu.RUnlock()

	if !exists {
		return k.add(key)
	}
	return limiter
}

// RateLimiter throttles requests per caller. Authenticated callers are
// keyed by phone number so a fleet of app instances behind one NAT does
// not share a bucket; everyone else is keyed by client IP.
func RateLimiter(secret string, r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewKeyedRateLimiter(r, b)
	return func(c *gin.Context) {
		key := c.ClientIP()
		if header := c.GetHeader("Authorization"); header != "" {
			if phone := phoneFromBearer(header, secret); phone != "" {
				key = phone
			}
		}
		if !limiter.GetLimiter(key).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}

func phoneFromBearer(header, secret string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) {
		return ""
	}
	claims, err := parseToken(header[len(prefix):], secret)
	if err != nil {
		return ""
	}
	return claims.Phone
}
