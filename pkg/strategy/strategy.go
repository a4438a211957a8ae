// Package strategy implements, for each StrategyTag, a pure pair of
// operations that turns an input into an ordered chunk list and reduces
// per-chunk Results back into one AggregatedContent.
//
// Strategies are looked up through a registry keyed by the closed
// ctxmodel.StrategyTag enum, so an unrecognised tag can never reach a
// strategy implementation in the first place.
package strategy

import (
	"context"

	"github.com/ctxforge/ctxforge/pkg/ctxmodel"
)

// Input is the material a strategy decomposes. Exactly one of Content,
// FilePath, or Files is meaningful for a given StrategyTag; callers (the
// pipeline) populate the field that matches the descriptor's origin.
type Input struct {
	Descriptor ctxmodel.ContextDescriptor
	Content    []byte   // in-memory content, or a single file's bytes already read
	FilePath   string   // set when Descriptor.Origin is file-path and it's a single file
	Files      []string // set for a multi-file bundle (file-parallel)
}

// Config carries the per-tag sizing knobs. Not every field applies to
// every tag; each strategy documents which it reads.
type Config struct {
	ChunkSize           int // chunkSize: characters for token-chunking, bytes for file-chunking/structural-decomp
	Overlap             int // token-chunking only
	RowsPerChunk        int // csv structural-decomp only; 0 means "derive from ChunkSize"
	Concurrency         int // file-parallel only, resolved by the router
	ContextWindowTokens int // informational; strategies may use it to size default ChunkSize
}

// DefaultConfig returns the baseline sizing knobs used when a caller
// doesn't override them.
func DefaultConfig() Config {
	return Config{
		ChunkSize:           50_000,
		Overlap:             0,
		ContextWindowTokens: 200_000,
	}
}

// Strategy is the pure pair of operations every StrategyTag implements.
// Decompose never errors: it falls back to one Chunk carrying the entire
// input in the worst case. Aggregate is given both the Chunks it produced
// (for kind-specific metadata like ParentPath) and the Results dispatched
// from them, paired by ChunkID.
type Strategy interface {
	Decompose(ctx context.Context, input Input, cfg Config) []ctxmodel.Chunk
	Aggregate(chunks []ctxmodel.Chunk, results []ctxmodel.Result) ctxmodel.AggregatedContent
}

// Registry maps each closed StrategyTag to its Strategy implementation.
func Registry() map[ctxmodel.StrategyTag]Strategy {
	return map[ctxmodel.StrategyTag]Strategy{
		ctxmodel.StrategyPassthrough:      passthroughStrategy{},
		ctxmodel.StrategyTokenChunking:    tokenChunkingStrategy{},
		ctxmodel.StrategyFileChunking:     fileChunkingStrategy{},
		ctxmodel.StrategyStructuralDecomp: structuralDecompStrategy{},
		ctxmodel.StrategyFileParallel:     fileParallelStrategy{},
	}
}

// totalInputBytes returns the byte slice a strategy should chunk: the
// Input's Content. FilePath and Files are not read here, so an Input with
// only those set yields nil.
func totalInputBytes(input Input) []byte {
	if input.Content != nil {
		return input.Content
	}
	return nil
}
