package agent

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
)

// RetryPolicy bounds the delay schedule for retried gateway queries.
type RetryPolicy struct {
	BaseMs      int64
	MaxMs       int64
	MaxJitterMs int64
	MaxAttempts int
}

// DefaultRetryPolicy retries read calls three times with short,
// capped delays.
var DefaultRetryPolicy = RetryPolicy{
	BaseMs:      100,
	MaxMs:       2000,
	MaxJitterMs: 250,
	MaxAttempts: 3,
}

// retryDelay returns the delay before the given attempt using
// exponential backoff with deterministic jitter.
func retryDelay(method, requestID string, attempt int, policy RetryPolicy) time.Duration {
	// delay = base * 2^attempt, shift capped to avoid overflow
	factor := int64(1)
	if attempt > 0 {
		if attempt > 30 {
			factor = 1 << 30
		} else {
			factor = 1 << attempt
		}
	}

	delay := policy.BaseMs * factor
	if delay > policy.MaxMs {
		delay = policy.MaxMs
	}

	return time.Duration(delay+retryJitter(method, requestID, attempt, policy)) * time.Millisecond
}

// retryJitter derives jitter from a PRF over the call coordinates so the
// same attempt always waits the same amount.
func retryJitter(method, requestID string, attempt int, policy RetryPolicy) int64 {
	if policy.MaxJitterMs <= 0 {
		return 0
	}

	seed := fmt.Sprintf("%s:%s:%d", method, requestID, attempt)
	hash := sha256.Sum256([]byte(seed))
	basis := binary.BigEndian.Uint64(hash[:8])

	return int64(basis % uint64(policy.MaxJitterMs))
}
