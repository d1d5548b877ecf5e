package polish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"
)

// RetryPolicy retries transient failures with a linear backoff of Step, 2*Step, 3*Step...
type RetryPolicy struct {
	// MaxAttempts is the total number of calls, the first one included
	MaxAttempts int
	Step       time.Duration
	// Sleep waits for d or until ctx is done
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy makes at most three calls, waiting 2s then 4s between them
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Step: 2 * time.Second, Sleep: sleepContext}
}

// Backoff returns the wait before retry number n, starting at 1
func (p RetryPolicy) Backoff(n int) time.Duration {
	return time.Duration(n) * p.Step
}

// Do calls fn until it succeeds, fails with a non-transient error, or attempts run out
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if sleepErr := sleep(ctx, p.Backoff(attempt)); sleepErr != nil {
				return fmt.Errorf("retry interrupted: %w", errors.Join(sleepErr, err))
			}
		}

		err = fn(attempt + 1)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
	}

	return fmt.Errorf("connection failed after %d attempts: %w", attempts, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// transientFragments are connection-class markers in upstream error text
var transientFragments = []string{"ssl", "tls", "eof", "protocol", "connection reset", "connection refused", "broken pipe"}

// IsTransient reports whether err is a connection-class failure worth retrying
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	lower := strings.ToLower(err.Error())
	for _, fragment := range transientFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}
