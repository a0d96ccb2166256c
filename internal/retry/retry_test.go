package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")
var errFatal = errors.New("fatal")

func fastPolicy() Policy {
	return Policy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond, Exponential: true}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return nil
	}, func(error) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoNonRetryableInvokedExactlyOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return errFatal
	}, func(err error) bool { return !errors.Is(err, errFatal) })
	require.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUpToBudget(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return errTransient
	}, func(error) bool { return true })
	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 4, calls) // initial attempt + 3 retries
}

func TestDoRecoversMidway(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	}, func(error) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoNilRetryableNeverRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return errTransient
	}, nil)
	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestDoCancelledDuringBackoff(t *testing.T) {
	p := Policy{MaxRetries: 5, BaseDelay: time.Hour, Exponential: false}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, p, func(context.Context) error {
			return errTransient
		}, func(error) bool { return true })
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not abort the backoff sleep")
	}
}

func TestDelaySchedule(t *testing.T) {
	p := Policy{MaxRetries: 10, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Exponential: true}

	assert.Equal(t, 100*time.Millisecond, p.Delay(0))
	assert.Equal(t, 200*time.Millisecond, p.Delay(1))
	assert.Equal(t, 400*time.Millisecond, p.Delay(2))
	assert.Equal(t, 800*time.Millisecond, p.Delay(3))
	assert.Equal(t, time.Second, p.Delay(4))
	assert.Equal(t, time.Second, p.Delay(20))
}

func TestDelayFlat(t *testing.T) {
	p := Policy{MaxRetries: 3, BaseDelay: 250 * time.Millisecond, MaxDelay: time.Second, Exponential: false}
	assert.Equal(t, 250*time.Millisecond, p.Delay(0))
	assert.Equal(t, 250*time.Millisecond, p.Delay(5))
}
