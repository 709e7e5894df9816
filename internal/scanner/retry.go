package scanner

import "time"

// RetryPolicy decides, for the failures-th consecutive transient failure of a
// probe (1-indexed), whether to give up and how long to wait before the next
// attempt.
type RetryPolicy func(failures int) (giveUp bool, delay time.Duration)

// retryStep is the unit of the backoff schedule.
const retryStep = 100 * time.Millisecond

// retryCycle is the length of the repeating backoff pattern.
const retryCycle = 3

// DefaultRetryPolicy never gives up and waits 0, 100ms, 200ms, 0, 100ms, ...
// between attempts. A permanently unreachable host therefore keeps its task
// alive until the run context is canceled; see CappedRetryPolicy.
func DefaultRetryPolicy(failures int) (bool, time.Duration) {
	if failures < 1 {
		failures = 1
	}

	return false, time.Duration((failures-1)%retryCycle) * retryStep
}

// CappedRetryPolicy wraps next and gives up once maxAttempts failures have been
// seen. A maxAttempts of zero or less disables the cap and returns next as is.
func CappedRetryPolicy(maxAttempts int, next RetryPolicy) RetryPolicy {
	if next == nil {
		next = DefaultRetryPolicy
	}
	if maxAttempts <= 0 {
		return next
	}

	return func(failures int) (bool, time.Duration) {
		giveUp, delay := next(failures)
		if failures >= maxAttempts {
			return true, 0
		}

		return giveUp, delay
	}
}
