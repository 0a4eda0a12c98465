package retry

import (
	"math"
	"net/http"
	"time"
)

/*
Policy holds the configuration for retry behavior of a single logical
request. A Policy is a value; copying it is how a per-call override is made.
*/
type Policy struct {
	// MaxAttempts is the total number of attempts, 1 meaning no retry.
	MaxAttempts   int
	InitialDelay  time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
	// RetryOnStatuses lists the HTTP statuses eligible for retry. Nil
	// selects DefaultRetryStatuses.
	RetryOnStatuses []int
}

/*
DefaultPolicy returns the client-wide retry configuration used when nothing
else is configured.
*/
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		BackoffFactor: 2.0,
		MaxDelay:      30 * time.Second,
	}
}

/*
NoRetry returns a policy that makes exactly one attempt.
*/
func NoRetry() Policy {
	policy := DefaultPolicy()
	policy.MaxAttempts = 1
	return policy
}

/*
DefaultRetryStatuses returns 408, 425, 429 and every 5xx status.
*/
func DefaultRetryStatuses() []int {
	statuses := []int{
		http.StatusRequestTimeout,
		http.StatusTooEarly,
		http.StatusTooManyRequests,
	}

	for code := 500; code <= 599; code++ {
		statuses = append(statuses, code)
	}

	return statuses
}

/*
Attempts returns MaxAttempts clamped to at least one.
*/
func (policy Policy) Attempts() int {
	if policy.MaxAttempts < 1 {
		return 1
	}
	return policy.MaxAttempts
}

/*
Delay returns the backoff before the attempt following attempt n (1-indexed):
min(InitialDelay * BackoffFactor^(n-1), MaxDelay). There is no jitter.
*/
func (policy Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	factor := policy.BackoffFactor
	if factor <= 0 {
		factor = 1
	}

	delay := float64(policy.InitialDelay) * math.Pow(factor, float64(attempt-1))

	if policy.MaxDelay > 0 && delay > float64(policy.MaxDelay) {
		return policy.MaxDelay
	}

	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(delay)
}

/*
RetryableStatus reports whether an HTTP status may be retried under this
policy.
*/
func (policy Policy) RetryableStatus(status int) bool {
	if policy.RetryOnStatuses == nil {
		return status == http.StatusRequestTimeout ||
			status == http.StatusTooEarly ||
			status == http.StatusTooManyRequests ||
			(status >= 500 && status <= 599)
	}

	for _, code := range policy.RetryOnStatuses {
		if code == status {
			return true
		}
	}

	return false
}
