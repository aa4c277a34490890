package auth

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"dexchat/pkg/config"
	"dexchat/pkg/utils"
)

type limiterPool struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
}

var streamLimiters limiterPool

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*rate.Limiter)
	}
	if l, ok := p.m[key]; ok {
		return l
	}
	rps, burst := config.GetRateLimit()
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	l := rate.NewLimiter(rate.Limit(rps), burst)
	p.m[key] = l
	return l
}

// LimitPerOwner enforces a per-owner token bucket on the wrapped handler.
// It must run after RequireOwner so the owner id is in context.
func LimitPerOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := OwnerFromContext(r.Context())
		if owner == "" {
			owner = r.RemoteAddr
		}
		if !streamLimiters.Allow(owner) {
			utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}
