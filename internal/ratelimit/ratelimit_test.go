package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitGrantsBurstImmediately(t *testing.T) {
	l := New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Standard allows 10/s with a burst of 10.
	for i := 0; i < StandardPerSecond; i++ {
		require.NoError(t, l.Wait(ctx, CategoryStandard))
	}
}

func TestWaitBlocksPastPerSecondCap(t *testing.T) {
	l := New()

	// Drain the single quote token.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.Wait(ctx, CategoryQuote))

	// The next acquisition must not complete inside 100ms.
	// x/time/rate fails fast when the deadline precedes the refill.
	shortCtx, shortCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer shortCancel()
	require.Error(t, l.Wait(shortCtx, CategoryQuote))
}

func TestWaitRefillsWithinOneSecond(t *testing.T) {
	l := New()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, CategoryQuote))
	require.NoError(t, l.Wait(ctx, CategoryQuote))
	elapsed := time.Since(start)

	// Second token arrives after the 1/s refill, not sooner.
	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond)
}

func TestDisabledLimiterGrantsEverything(t *testing.T) {
	l := New()
	l.SetEnabled(false)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		require.NoError(t, l.Wait(ctx, CategoryQuote))
	}
	assert.False(t, l.Enabled())
}

func TestDailyCounterExhaustion(t *testing.T) {
	b := newBucket(10, 2)
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

	require.NoError(t, b.consumeDaily(now))
	require.NoError(t, b.consumeDaily(now))
	assert.ErrorIs(t, b.consumeDaily(now), ErrDailyLimit)

	// Rolls over at the UTC date change.
	require.NoError(t, b.consumeDaily(now.Add(24*time.Hour)))
}

func TestDailyCounterUnlimitedByDefault(t *testing.T) {
	b := newBucket(10, 0)
	now := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, b.consumeDaily(now))
	}
}

func TestStatsSnapshot(t *testing.T) {
	l := New()
	ctx := context.Background()
	require.NoError(t, l.Wait(ctx, CategoryOrder))

	stats := l.Stats(CategoryOrder)
	assert.Equal(t, CategoryOrder, stats.Category)
	assert.Equal(t, OrderPerSecond, stats.PerSecond)
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, int64(OrderPerDay), stats.DailyLimit)
	assert.Equal(t, int64(1), stats.RequestsToday)
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, CategoryQuote, CategoryFor("/quote"))
	assert.Equal(t, CategoryQuote, CategoryFor("/quote/ltp"))
	assert.Equal(t, CategoryQuote, CategoryFor("/quote/ohlc"))
	assert.Equal(t, CategoryHistorical, CategoryFor("/instruments/historical/256265/day"))
	assert.Equal(t, CategoryStandard, CategoryFor("/instruments"))
	assert.Equal(t, CategoryStandard, CategoryFor("/user/profile"))
}

func TestWaitCancelledContext(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())

	// Drain the quote token, then cancel mid-wait.
	require.NoError(t, l.Wait(ctx, CategoryQuote))
	done := make(chan error, 1)
	go func() { done <- l.Wait(ctx, CategoryQuote) }()
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancellation")
	}
}
