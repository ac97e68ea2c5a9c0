package rate

import "errors"

var (
	// ErrRateLimited signals that the refresh attempt budget is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable signals a redis connectivity failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
