package xrun

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Ticker
// ============================================================================

func TestTicker_Immediate(t *testing.T) {
	var n atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	err := Ticker(time.Hour, true, func(context.Context) error {
		n.Add(1)
		cancel()
		return nil
	})(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), n.Load())
}

func TestTicker_Ticks(t *testing.T) {
	var n atomic.Int32
	errDone := errors.New("done")
	err := Ticker(5*time.Millisecond, false, func(context.Context) error {
		if n.Add(1) == 3 {
			return errDone
		}
		return nil
	})(context.Background())

	assert.ErrorIs(t, err, errDone)
	assert.Equal(t, int32(3), n.Load())
}

func TestTicker_Invalid(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, Ticker(0, false, func(context.Context) error { return nil })(ctx), ErrInvalidInterval)
	assert.ErrorIs(t, Ticker(time.Second, false, nil)(ctx), ErrNilFunc)
}

func TestTicker_CanceledSkipsImmediate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Ticker(time.Second, true, func(context.Context) error {
		called = true
		return nil
	})(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

// ============================================================================
// Schedule
// ============================================================================

// justBeforeMinute 距下一个整分钟 5ms 的固定时钟
func justBeforeMinute() time.Time {
	return time.Date(2024, 9, 13, 10, 0, 59, 995_000_000, time.Local)
}

func TestSchedule_Runs(t *testing.T) {
	var n atomic.Int32
	errDone := errors.New("done")
	err := scheduleWithClock("* * * * *", func(context.Context) error {
		if n.Add(1) == 2 {
			return errDone
		}
		return nil
	}, justBeforeMinute)(context.Background())

	assert.ErrorIs(t, err, errDone)
	assert.Equal(t, int32(2), n.Load())
}

func TestSchedule_Canceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Schedule("@yearly", func(context.Context) error {
		t.Error("must not run")
		return nil
	})(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSchedule_Invalid(t *testing.T) {
	ctx := context.Background()

	err := Schedule("every day", func(context.Context) error { return nil })(ctx)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
	assert.Contains(t, err.Error(), "every day")

	assert.ErrorIs(t, Schedule("@daily", nil)(ctx), ErrNilFunc)
}

func TestParseSchedule(t *testing.T) {
	for _, expr := range []string{"0 3 * * *", "@daily", "@hourly", "@every 90m", "*/15 * * * *"} {
		_, err := ParseSchedule(expr)
		require.NoError(t, err, expr)
	}

	sched, err := ParseSchedule("0 3 * * *")
	require.NoError(t, err)
	from := time.Date(2024, 9, 13, 10, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2024, 9, 14, 3, 0, 0, 0, time.Local), sched.Next(from))

	for _, expr := range []string{"", "* * *", "61 * * * *", "@fortnightly"} {
		_, err := ParseSchedule(expr)
		assert.ErrorIs(t, err, ErrInvalidSchedule, expr)
	}
}
