package retry

import (
	"context"
	"time"
)

/*
Sleep waits for d or until ctx is done, whichever comes first. It returns
ctx.Err() when the wait was cut short and always releases its timer.
*/
func Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
