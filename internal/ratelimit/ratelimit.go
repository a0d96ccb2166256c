// Package ratelimit implements per-category token bucket rate limiting
// matching the broker's published request caps.
package ratelimit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Category identifies a group of endpoints sharing one request cap.
type Category string

const (
	// CategoryQuote covers /quote, /quote/ltp and /quote/ohlc.
	CategoryQuote Category = "quote"
	// CategoryHistorical covers /instruments/historical/*.
	CategoryHistorical Category = "historical"
	// CategoryOrder covers order and mutual fund order mutations.
	CategoryOrder Category = "order"
	// CategoryStandard covers every other endpoint.
	CategoryStandard Category = "standard"
)

// Default per-second caps published by the broker.
const (
	QuotePerSecond      = 1
	HistoricalPerSecond = 3
	OrderPerSecond      = 10
	StandardPerSecond   = 10

	// OrderPerDay is the broker's daily order mutation ceiling.
	OrderPerDay = 3000
)

// ErrDailyLimit is returned by Wait when a category's daily counter is
// exhausted. Callers are expected to surface it as a client-side input
// error rather than waiting for the next day.
var ErrDailyLimit = errors.New("ratelimit: daily request limit reached")

// Stats is a read-only snapshot of a category's bucket.
type Stats struct {
	Category        Category `json:"category"`
	PerSecond       int      `json:"per_second"`
	AvailableTokens float64  `json:"available_tokens"`
	TotalRequests   int64    `json:"total_requests"`
	BlockedRequests int64    `json:"blocked_requests"`
	DailyLimit      int64    `json:"daily_limit,omitempty"`
	RequestsToday   int64    `json:"requests_today,omitempty"`
}

type bucket struct {
	limiter   *rate.Limiter
	perSecond int

	mu         sync.Mutex
	total      int64
	blocked    int64
	dailyLimit int64 // 0 means unlimited
	dailyUsed  int64
	dailyDate  time.Time // UTC midnight of the day dailyUsed counts
}

// Limiter holds one token bucket per endpoint category. The zero value is
// not usable; construct with New.
type Limiter struct {
	mu      sync.RWMutex
	enabled bool
	buckets map[Category]*bucket
	now     func() time.Time
}

// New returns a limiter primed with the broker's default caps.
func New() *Limiter {
	return &Limiter{
		enabled: true,
		now:     time.Now,
		buckets: map[Category]*bucket{
			CategoryQuote:      newBucket(QuotePerSecond, 0),
			CategoryHistorical: newBucket(HistoricalPerSecond, 0),
			CategoryOrder:      newBucket(OrderPerSecond, OrderPerDay),
			CategoryStandard:   newBucket(StandardPerSecond, 0),
		},
	}
}

func newBucket(perSecond int, perDay int64) *bucket {
	return &bucket{
		limiter:    rate.NewLimiter(rate.Limit(perSecond), perSecond),
		perSecond:  perSecond,
		dailyLimit: perDay,
	}
}

// SetEnabled toggles limiting globally. Disabled limiters grant every
// acquisition immediately, including daily-capped ones.
func (l *Limiter) SetEnabled(enabled bool) {
	l.mu.Lock()
	l.enabled = enabled
	l.mu.Unlock()
}

// Enabled reports whether limiting is active.
func (l *Limiter) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

// Wait blocks until the category grants one token or ctx is cancelled.
// Unknown categories are treated as CategoryStandard. A category whose
// daily counter is exhausted fails immediately with ErrDailyLimit.
func (l *Limiter) Wait(ctx context.Context, cat Category) error {
	l.mu.RLock()
	enabled := l.enabled
	b, ok := l.buckets[cat]
	if !ok {
		b = l.buckets[CategoryStandard]
	}
	l.mu.RUnlock()

	if !enabled {
		return nil
	}

	if err := b.consumeDaily(l.now()); err != nil {
		return err
	}

	b.mu.Lock()
	b.total++
	blocked := b.limiter.Tokens() < 1
	if blocked {
		b.blocked++
	}
	b.mu.Unlock()

	// rate.Limiter queues waiters FIFO and never sleeps under our lock.
	return b.limiter.Wait(ctx)
}

// consumeDaily charges the daily counter, rolling it over on UTC date
// change. The token is charged before the bucket wait so a cancelled
// wait still counts against the day, matching the broker's accounting.
func (b *bucket) consumeDaily(now time.Time) error {
	if b.dailyLimit <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	day := now.UTC().Truncate(24 * time.Hour)
	if !day.Equal(b.dailyDate) {
		b.dailyDate = day
		b.dailyUsed = 0
	}
	if b.dailyUsed >= b.dailyLimit {
		return ErrDailyLimit
	}
	b.dailyUsed++
	return nil
}

// Stats returns a snapshot for one category.
func (l *Limiter) Stats(cat Category) Stats {
	l.mu.RLock()
	b, ok := l.buckets[cat]
	l.mu.RUnlock()
	if !ok {
		return Stats{Category: cat}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Category:        cat,
		PerSecond:       b.perSecond,
		AvailableTokens: b.limiter.Tokens(),
		TotalRequests:   b.total,
		BlockedRequests: b.blocked,
		DailyLimit:      b.dailyLimit,
		RequestsToday:   b.dailyUsed,
	}
}

// CategoryFor maps an endpoint path to its rate limit category. Order
// mutations cannot be told apart from reads by path alone, so callers
// pass CategoryOrder explicitly for those.
func CategoryFor(path string) Category {
	switch {
	case strings.HasPrefix(path, "/quote"):
		return CategoryQuote
	case strings.HasPrefix(path, "/instruments/historical"):
		return CategoryHistorical
	default:
		return CategoryStandard
	}
}
