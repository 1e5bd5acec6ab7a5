package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Request throttling for the lobby surface. Traffic is budgeted by what
// it costs the simulation side, not uniformly: a catalog read or a
// ready-state poll is cheap, while a matchmaking join can seat a faction
// and spin up an entire game tick loop, so joins get a budget an order
// of magnitude tighter than general API traffic.

// ThrottleClass names one such traffic budget.
type ThrottleClass struct {
	Name   string
	PerSec rate.Limit
	Burst  int
}

var (
	// ThrottleAPI covers catalog reads, ready polls, and game creation.
	ThrottleAPI = ThrottleClass{Name: "api", PerSec: 10, Burst: 20}
	// ThrottleMatchmaking covers joins, each of which may construct a Game.
	ThrottleMatchmaking = ThrottleClass{Name: "matchmaking", PerSec: 1, Burst: 3}
)

const throttleIdleEviction = 10 * time.Minute

// Throttle enforces one ThrottleClass per client address. Idle addresses
// are evicted by a janitor so a scan across many source IPs cannot grow
// the table without bound.
type Throttle struct {
	class ThrottleClass

	mu      sync.Mutex
	buckets map[string]*throttleBucket

	stopCh   chan struct{}
	stopOnce sync.Once
}

type throttleBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewThrottle starts a throttle (and its eviction janitor) for a class.
func NewThrottle(class ThrottleClass) *Throttle {
	t := &Throttle{
		class:   class,
		buckets: make(map[string]*throttleBucket),
		stopCh:  make(chan struct{}),
	}
	go t.evictIdle()
	return t
}

// Stop halts the eviction janitor.
func (t *Throttle) Stop() { t.stopOnce.Do(func() { close(t.stopCh) }) }

// Allow reports whether addr has budget left in this class.
func (t *Throttle) Allow(addr string) bool {
	t.mu.Lock()
	b, ok := t.buckets[addr]
	if !ok {
		b = &throttleBucket{lim: rate.NewLimiter(t.class.PerSec, t.class.Burst)}
		t.buckets[addr] = b
	}
	b.seen = time.Now()
	t.mu.Unlock()
	return b.lim.Allow()
}

// Middleware rejects over-budget requests with a 429 and a Retry-After.
func (t *Throttle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.Allow(clientIP(r)) {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (t *Throttle) evictIdle() {
	ticker := time.NewTicker(throttleIdleEviction / 2)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-throttleIdleEviction)
			t.mu.Lock()
			for addr, b := range t.buckets {
				if b.seen.Before(cutoff) {
					delete(t.buckets, addr)
				}
			}
			t.mu.Unlock()
		}
	}
}

// ConnCap bounds concurrent WebSocket sessions per client address, so a
// single host cannot hold every slot of the global connection budget.
type ConnCap struct {
	max int

	mu    sync.Mutex
	perIP map[string]int
}

func NewConnCap(max int) *ConnCap {
	return &ConnCap{max: max, perIP: make(map[string]int)}
}

// Acquire claims a connection slot for addr, reporting false at the cap.
func (c *ConnCap) Acquire(addr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.perIP[addr] >= c.max {
		return false
	}
	c.perIP[addr]++
	return true
}

// Release frees a slot claimed by Acquire.
func (c *ConnCap) Release(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.perIP[addr] <= 1 {
		delete(c.perIP, addr)
		return
	}
	c.perIP[addr]--
}

// clientIP resolves the originating address, trusting forwarding headers
// the way a deployment behind a single reverse proxy expects.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
