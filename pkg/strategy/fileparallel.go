package strategy

import (
	"context"
	"os"

	"github.com/ctxforge/ctxforge/pkg/aggregator"
	"github.com/ctxforge/ctxforge/pkg/ctxmodel"
	"github.com/ctxforge/ctxforge/pkg/estimator"
)

// fileParallelStrategy treats each file in a multi-file bundle as one Chunk.
// A file that can't be read still gets a Chunk, with a nil Payload — the
// dispatcher recognizes that sentinel and turns it into a per-chunk failure
// instead of invoking the worker, preserving the "ids form 0..N-1 without
// gaps" invariant even when some files are missing.
type fileParallelStrategy struct{}

var _ Strategy = fileParallelStrategy{}

func (fileParallelStrategy) Decompose(_ context.Context, input Input, _ Config) []ctxmodel.Chunk {
	if len(input.Files) == 0 {
		return []ctxmodel.Chunk{emptyChunk(ctxmodel.StrategyFileParallel)}
	}

	chunks := make([]ctxmodel.Chunk, 0, len(input.Files))
	for i, path := range input.Files {
		payload, err := os.ReadFile(path)
		if err != nil {
			chunks = append(chunks, ctxmodel.Chunk{
				ID:         i,
				Kind:       ctxmodel.StrategyFileParallel,
				Payload:    nil,
				ParentPath: path,
			})
			continue
		}
		chunks = append(chunks, ctxmodel.Chunk{
			ID:              i,
			Kind:            ctxmodel.StrategyFileParallel,
			Payload:         payload,
			ParentPath:      path,
			SizeBytes:       len(payload),
			EstimatedTokens: estimator.EstimateBytes(payload),
		})
	}
	return chunks
}

// Aggregate emits a mapping from each file's identifier (its path) to its
// Result content.
func (fileParallelStrategy) Aggregate(chunks []ctxmodel.Chunk, results []ctxmodel.Result) ctxmodel.AggregatedContent {
	pathByID := make(map[int]string, len(chunks))
	for _, c := range chunks {
		pathByID[c.ID] = c.ParentPath
	}

	return aggregator.MergeMapping(results, func(chunkID int) string {
		return pathByID[chunkID]
	})
}
