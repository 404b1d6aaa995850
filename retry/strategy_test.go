package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultStrategy(t *testing.T) {
	strategy := DefaultStrategy()

	assert.Equal(t, 5, strategy.MaxAttempts)
	assert.Equal(t, time.Second, strategy.BaseDelay)
	assert.Equal(t, 30*time.Second, strategy.MaxDelay)
	assert.Equal(t, 2.0, strategy.ExponentialBase)
}

func TestStrategy_CalculateRetryDelay(t *testing.T) {
	strategy := DefaultStrategy()

	tests := []struct {
		name          string
		attemptNumber int
		expectedDelay time.Duration
	}{
		{name: "Zero attempts - base delay", attemptNumber: 0, expectedDelay: time.Second},
		{name: "First retry doubles", attemptNumber: 1, expectedDelay: 2 * time.Second},
		{name: "Second retry", attemptNumber: 2, expectedDelay: 4 * time.Second},
		{name: "Fourth retry", attemptNumber: 4, expectedDelay: 16 * time.Second},
		{name: "Fifth retry - capped", attemptNumber: 5, expectedDelay: 30 * time.Second}, // 32s capped
		{name: "Large attempt number - still capped", attemptNumber: 100, expectedDelay: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedDelay, strategy.CalculateRetryDelay(tt.attemptNumber))
		})
	}
}

func TestStrategy_IsRetryable(t *testing.T) {
	strategy := Strategy{MaxAttempts: 3}

	assert.True(t, strategy.IsRetryable(0))
	assert.True(t, strategy.IsRetryable(2))
	assert.False(t, strategy.IsRetryable(3))
	assert.False(t, strategy.IsRetryable(10))
}

func TestStrategy_GetRetrySchedule(t *testing.T) {
	schedule := DefaultStrategy().GetRetrySchedule()

	assert.True(t, strings.HasPrefix(schedule, "Retry Schedule:\n"))
	assert.Contains(t, schedule, "Attempt 1: immediately")
	assert.Contains(t, schedule, "Attempt 2: after 2s")
	assert.Contains(t, schedule, "Attempt 5: after 16s")
	assert.NotContains(t, schedule, "Attempt 6")
}

func TestStrategy_Do(t *testing.T) {
	fast := Strategy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, ExponentialBase: 2.0}
	errBoom := errors.New("boom")

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		var retried []int
		err := fast.Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errBoom
			}
			return nil
		}, func(attempt int, _ time.Duration, err error) {
			retried = append(retried, attempt)
			assert.ErrorIs(t, err, errBoom)
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{1, 2}, retried)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		calls := 0
		err := fast.Do(context.Background(), func(context.Context) error {
			calls++
			return errBoom
		}, nil)

		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		slow := Strategy{MaxAttempts: 10, BaseDelay: time.Hour, MaxDelay: time.Hour, ExponentialBase: 1.0}
		ctx, cancel := context.WithCancel(context.Background())

		err := slow.Do(ctx, func(context.Context) error {
			cancel()
			return errBoom
		}, nil)

		assert.ErrorIs(t, err, context.Canceled)
	})
}
