package intercept

import "context"

// Transport is the capability that actually performs a remote operation.
// It is the seam the cache layer wraps; whatever wire protocol it speaks
// passes through unmodified on cache misses.
//
// Contract:
// - Blocking: Invoke blocks the caller for the duration of the call.
// - Errors: an Invoke error means the remote operation itself failed; it is
//   returned to callers unchanged and its result is never cached.
// - Concurrency: implementations must be safe for concurrent use.
type Transport interface {
	Invoke(ctx context.Context, serviceID, operation string, params map[string]any) (map[string]any, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, serviceID, operation string, params map[string]any) (map[string]any, error)

// Invoke calls f.
func (f TransportFunc) Invoke(ctx context.Context, serviceID, operation string, params map[string]any) (map[string]any, error) {
	return f(ctx, serviceID, operation, params)
}

// Ensure TransportFunc implements Transport
var _ Transport = (TransportFunc)(nil)
