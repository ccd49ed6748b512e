package network

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetrySucceeds(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, time.Hour, func(context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryDoesNotRetryClosedChannel(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		return ErrNotConnected
	})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, 1, calls)
}
