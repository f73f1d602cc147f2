package utils

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoffEventuallySucceeds(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), BackoffConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}, func(int) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryWithBackoffStopsOnAbort(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), BackoffConfig{MaxAttempts: 5, InitialDelay: time.Millisecond}, func(int) error {
		calls++
		return ErrRetryAborted
	})
	require.ErrorIs(t, err, ErrRetryAborted)
	require.Equal(t, 1, calls)
}

func TestRetryWithBackoffHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, BackoffConfig{MaxAttempts: 5, InitialDelay: time.Hour}, func(int) error {
		return errors.New("down")
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestPaginationWindow(t *testing.T) {
	p := NewPagination(2, 3, 7)
	require.Equal(t, int64(3), p.Pages)

	start, end := p.Window(7)
	require.Equal(t, 3, start)
	require.Equal(t, 6, end)

	start, end = NewPagination(4, 3, 7).Window(7)
	require.Equal(t, 7, start)
	require.Equal(t, 7, end)

	huge := NewPagination(math.MaxInt, 20, 0)
	require.Equal(t, math.MaxInt, huge.Offset())
	start, end = huge.Window(0)
	require.Zero(t, start)
	require.Zero(t, end)

	start, end = NewPagination(math.MaxInt/3, 200, 5).Window(5)
	require.Equal(t, 5, start)
	require.Equal(t, 5, end)
}
