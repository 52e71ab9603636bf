package server

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// LimitReason describes why a connection attempt was rejected.
type LimitReason string

const (
	LimitReasonGlobal LimitReason = "global_limit"
	LimitReasonPerIP  LimitReason = "per_ip_limit"
	LimitReasonRate   LimitReason = "rate_limit"
)

const (
	dialSweepInterval = 5 * time.Minute
	dialBucketTTL     = 10 * time.Minute
)

// ConnectionLimits guards WebSocket intake with three independent
// checks: a per-IP dial rate, a global cap, and a per-IP cap.
type ConnectionLimits struct {
	global *globalLimiter
	perIP  *perIPLimiter
	dial   *dialRateLimiter
}

func NewConnectionLimits(globalMax int64, perIPMax int, dialsPerSecond float64, dialBurst int) *ConnectionLimits {
	return &ConnectionLimits{
		global: &globalLimiter{max: globalMax},
		perIP:  &perIPLimiter{ips: make(map[string]int), max: perIPMax},
		dial: &dialRateLimiter{
			buckets: make(map[string]*dialBucket),
			rate:    rate.Limit(dialsPerSecond),
			burst:   dialBurst,
			sweepAt: time.Now().Add(dialSweepInterval),
		},
	}
}

// Acquire claims a connection slot for the given IP. On rejection it
// reports which limit was hit and holds nothing.
func (l *ConnectionLimits) Acquire(ip string) (bool, LimitReason) {
	if !l.dial.allow(ip) {
		return false, LimitReasonRate
	}

	if !l.global.acquire() {
		return false, LimitReasonGlobal
	}

	if !l.perIP.acquire(ip) {
		l.global.release()
		return false, LimitReasonPerIP
	}

	return true, ""
}

// Release frees the slot held by a connection from the given IP.
func (l *ConnectionLimits) Release(ip string) {
	l.perIP.release(ip)
	l.global.release()
}

// Active returns the number of currently held connection slots.
func (l *ConnectionLimits) Active() int64 {
	return l.global.current.Load()
}

// globalLimiter caps total concurrent connections using lock-free counting.
type globalLimiter struct {
	current atomic.Int64
	max     int64
}

func (l *globalLimiter) acquire() bool {
	for {
		current := l.current.Load()
		if current >= l.max {
			return false
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

func (l *globalLimiter) release() {
	l.current.Add(-1)
}

// perIPLimiter caps concurrent connections per remote IP.
type perIPLimiter struct {
	mu  sync.Mutex
	ips map[string]int
	max int
}

func (l *perIPLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ips[ip] >= l.max {
		return false
	}
	l.ips[ip]++
	return true
}

func (l *perIPLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch count := l.ips[ip]; {
	case count == 1:
		delete(l.ips, ip)
	case count > 1:
		l.ips[ip] = count - 1
	}
}

// dialRateLimiter throttles connection attempts per IP with token
// buckets. Buckets idle beyond the TTL are dropped on the next sweep.
type dialRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*dialBucket
	rate    rate.Limit
	burst   int
	sweepAt time.Time
}

type dialBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (l *dialRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.After(l.sweepAt) {
		l.sweep(now)
		l.sweepAt = now.Add(dialSweepInterval)
	}

	bucket, ok := l.buckets[ip]
	if !ok {
		bucket = &dialBucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[ip] = bucket
	}
	bucket.lastSeen = now

	return bucket.limiter.Allow()
}

// sweep drops buckets idle beyond the TTL. Caller holds mu.
func (l *dialRateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-dialBucketTTL)
	for ip, bucket := range l.buckets {
		if bucket.lastSeen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}
