package security

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPRateLimiter hands out one token bucket per client address.
type IPRateLimiter struct {
	ips  map[string]*visitor
	mu   sync.Mutex
	r    rate.Limit
	b    int
	idle time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:  make(map[string]*visitor),
		r:    r,
		b:    b,
		idle: 10 * time.Minute,
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	v, exists := i.ips[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Allow reports whether ip may make another request now.
func (i *IPRateLimiter) Allow(ip string) bool {
	return i.GetLimiter(ip).Allow()
}

// Prune forgets addresses that have been idle longer than the idle window
// and returns how many were dropped.
func (i *IPRateLimiter) Prune(now time.Time) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	dropped := 0
	for ip, v := range i.ips {
		if now.Sub(v.lastSeen) > i.idle {
			delete(i.ips, ip)
			dropped++
		}
	}
	return dropped
}

func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}
