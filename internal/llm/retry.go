package llm

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Retry defaults, used when NewRetryClient is given non-positive values.
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

// RetryClient wraps a Client with linear-backoff retries: the k-th retry
// waits k times the base delay before re-sending the request.
type RetryClient struct {
	inner       Client
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewRetryClient wraps inner with retry behavior. maxAttempts is the total
// number of tries, including the first.
func NewRetryClient(inner Client, maxAttempts int, baseDelay time.Duration) *RetryClient {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultRetryDelay
	}
	return &RetryClient{
		inner:       inner,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		sleep:       sleepContext,
	}
}

// Complete sends the request, retrying failures until the attempt budget
// runs out. A successful response is returned as-is, even when its content
// is empty.
func (c *RetryClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * c.baseDelay
			log.Printf("llm: attempt %d/%d failed, retrying in %s: %v",
				attempt-1, c.maxAttempts, delay, lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		resp, err := c.inner.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("completion failed after %d attempts: %w", c.maxAttempts, lastErr)
}

// sleepContext waits for d or until ctx is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
