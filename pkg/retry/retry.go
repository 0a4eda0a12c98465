/*
Package retry implements the attempt loop shared by every transport call:
bounded attempts, capped exponential backoff and sleeps that end as soon as
the caller's context does.
*/
package retry

import (
	"context"
	"time"
)

/*
Attempt performs a single try. It reports whether a failure may be retried;
the returned error is surfaced unchanged when no attempts remain.
*/
type Attempt func(ctx context.Context, attempt int) (retryable bool, err error)

/*
Notify is called before sleeping ahead of the next attempt.
*/
type Notify func(attempt int, delay time.Duration, err error)

/*
Do executes fn with exponential backoff between retryable failures. A
cancelled context ends the loop immediately with ctx.Err(), including while
sleeping between attempts.
*/
func Do(ctx context.Context, policy Policy, fn Attempt, notify Notify) error {
	attempts := policy.Attempts()

	for attempt := 1; ; attempt++ {
		retryable, err := fn(ctx, attempt)
		if err == nil {
			return nil
		}

		if !retryable || attempt >= attempts {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := policy.Delay(attempt)

		if notify != nil {
			notify(attempt, delay, err)
		}

		if err := Sleep(ctx, delay); err != nil {
			return err
		}
	}
}
