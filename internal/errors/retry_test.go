package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestRetryWithResult_RetriesLockedUntilSuccess(t *testing.T) {
	// Given: a function that is locked twice, then succeeds
	calls := 0
	fn := func() (string, error) {
		calls++
		if calls < 3 {
			return "", New(ErrCodeSnapshotLocked, "locked", nil)
		}
		return "loaded", nil
	}

	// When: retrying
	got, err := RetryWithResult(context.Background(), fastRetry(), fn)

	// Then: the third attempt wins
	require.NoError(t, err)
	assert.Equal(t, "loaded", got)
	assert.Equal(t, 3, calls)
}

func TestRetryWithResult_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	fn := func() (int, error) {
		calls++
		return 0, InconsistentSnapshotError("counts differ")
	}

	_, err := RetryWithResult(context.Background(), fastRetry(), fn)

	assert.True(t, errors.Is(err, ErrInconsistentSnapshot))
	assert.Equal(t, 1, calls)
}

func TestRetryWithResult_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	fn := func() (int, error) {
		calls++
		return 0, New(ErrCodeSnapshotLocked, "locked", nil)
	}

	_, err := RetryWithResult(context.Background(), fastRetry(), fn)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 retries")
	assert.True(t, errors.Is(err, ErrSnapshotLocked))
	assert.Equal(t, 4, calls)
}

func TestRetryWithResult_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RetryWithResult(ctx, fastRetry(), func() (int, error) { return 1, nil })

	assert.ErrorIs(t, err, context.Canceled)
}
