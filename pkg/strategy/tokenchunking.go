package strategy

import (
	"context"

	"github.com/ctxforge/ctxforge/pkg/aggregator"
	"github.com/ctxforge/ctxforge/pkg/ctxmodel"
	"github.com/ctxforge/ctxforge/pkg/estimator"
)

// tokenChunkingStrategy splits the raw byte stream into contiguous windows
// of cfg.ChunkSize characters with cfg.Overlap characters of overlap,
// operating on codepoints rather than words so every window boundary
// lands on a valid rune.
type tokenChunkingStrategy struct{}

var _ Strategy = tokenChunkingStrategy{}

func (tokenChunkingStrategy) Decompose(_ context.Context, input Input, cfg Config) []ctxmodel.Chunk {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultConfig().ChunkSize
	}
	overlap := cfg.Overlap
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}

	// Operating on runes keeps every window boundary on a codepoint
	// boundary by construction — a byte-indexed window could otherwise
	// split a multi-byte UTF-8 sequence in half.
	runes := []rune(string(totalInputBytes(input)))
	total := len(runes)

	if total == 0 {
		return []ctxmodel.Chunk{emptyChunk(ctxmodel.StrategyTokenChunking)}
	}

	var chunks []ctxmodel.Chunk
	id := 0
	start := 0

	for start < total {
		end := start + chunkSize
		if end > total {
			end = total
		}

		payload := []byte(string(runes[start:end]))
		chunks = append(chunks, ctxmodel.Chunk{
			ID:              id,
			Kind:            ctxmodel.StrategyTokenChunking,
			Payload:         payload,
			SizeBytes:       len(payload),
			EstimatedTokens: estimator.EstimateBytes(payload),
		})
		id++

		if end >= total {
			break
		}

		nextStart := end - overlap
		if nextStart <= start {
			nextStart = start + 1
		}
		start = nextStart
	}

	return chunks
}

func (tokenChunkingStrategy) Aggregate(_ []ctxmodel.Chunk, results []ctxmodel.Result) ctxmodel.AggregatedContent {
	return aggregator.ConcatenateText(results)
}

// emptyChunk is the degenerate one-Chunk fallback every strategy's
// Decompose produces for empty input, so decomposition never has to
// return zero chunks or an error.
func emptyChunk(kind ctxmodel.StrategyTag) ctxmodel.Chunk {
	return ctxmodel.Chunk{ID: 0, Kind: kind, Payload: []byte{}, SizeBytes: 0}
}
