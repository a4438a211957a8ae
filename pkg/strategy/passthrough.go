package strategy

import (
	"context"

	"github.com/ctxforge/ctxforge/pkg/aggregator"
	"github.com/ctxforge/ctxforge/pkg/ctxmodel"
	"github.com/ctxforge/ctxforge/pkg/estimator"
)

// passthroughStrategy is the sentinel strategy used when the router
// declines activation: one Chunk carrying the full input, one LM call,
// direct reply.
type passthroughStrategy struct{}

var _ Strategy = passthroughStrategy{}

func (passthroughStrategy) Decompose(_ context.Context, input Input, _ Config) []ctxmodel.Chunk {
	payload := totalInputBytes(input)

	return []ctxmodel.Chunk{{
		ID:              0,
		Kind:            ctxmodel.StrategyPassthrough,
		Payload:         payload,
		SizeBytes:       len(payload),
		EstimatedTokens: estimator.EstimateBytes(payload),
	}}
}

func (passthroughStrategy) Aggregate(_ []ctxmodel.Chunk, results []ctxmodel.Result) ctxmodel.AggregatedContent {
	return aggregator.Unwrap(results)
}
