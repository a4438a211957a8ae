// Package worker defines the pluggable LM callable the agent manager
// dispatches chunk tasks to, and a deterministic stub implementation for
// tests and for hosts that haven't wired a real provider yet.
package worker

import "context"

// Worker answers one prompt against a named model tag. Implementations must
// be safe for concurrent invocation; the agent manager calls Query from
// multiple goroutines at once, bounded only by its configured concurrency.
// A Worker may return an error instead of panicking, but either is caught
// and encoded into a failed Result by the caller.
type Worker interface {
	Query(ctx context.Context, prompt, model string) (string, error)
}

// Func adapts a plain function to the Worker interface.
type Func func(ctx context.Context, prompt, model string) (string, error)

func (f Func) Query(ctx context.Context, prompt, model string) (string, error) {
	return f(ctx, prompt, model)
}
