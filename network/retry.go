package network

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotConnected     = errors.New("channel not connected")
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// Retry calls fn up to attempts times, waiting backoff between calls. It
// gives up early when ctx is done.
func Retry(ctx context.Context, attempts int, backoff time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if errors.Is(err, ErrNotConnected) {
			return err
		}
		if i == attempts-1 {
			break
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(ctx.Err(), err)
		case <-timer.C:
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, err)
}
