package intercept

import "errors"

// Sentinel errors for interception.
var (
	ErrNilTransport = errors.New("intercept: transport is nil")
	ErrNoMorePages  = errors.New("intercept: no more pages")
)
