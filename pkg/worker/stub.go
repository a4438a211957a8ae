package worker

import (
	"context"
	"fmt"
)

// Stub is a deterministic Worker that never calls out to a real model: it
// echoes back a fixed-shape response derived from the prompt length and
// model tag. Useful for driving the pipeline end-to-end in tests and for
// hosts that haven't wired a real provider yet.
type Stub struct {
	// Respond, when set, overrides the default echo behaviour.
	Respond func(ctx context.Context, prompt, model string) (string, error)
}

var _ Worker = (*Stub)(nil)

func (s *Stub) Query(ctx context.Context, prompt, model string) (string, error) {
	if s.Respond != nil {
		return s.Respond(ctx, prompt, model)
	}
	return fmt.Sprintf("[%s] processed %d characters", model, len(prompt)), nil
}
