package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxforge/ctxforge/pkg/ctxmodel"
)

func TestDecide_EmptyInputPassesThrough(t *testing.T) {
	r := New(Config{Enabled: true}, nil)

	d := r.Decide(ctxmodel.ContextDescriptor{EstimatedTokens: 0, TotalBytes: 0})
	assert.Equal(t, ctxmodel.StrategyPassthrough, d.Tag)
}

func TestDecide_DisabledRouterPassesThrough(t *testing.T) {
	r := New(Config{Enabled: false}, nil)

	d := r.Decide(ctxmodel.ContextDescriptor{EstimatedTokens: 1_000_000, TotalBytes: 1_000_000})
	assert.Equal(t, ctxmodel.StrategyPassthrough, d.Tag)
}

func TestDecide_BelowThresholdsPassesThrough(t *testing.T) {
	r := New(Config{Enabled: true}, nil)

	d := r.Decide(ctxmodel.ContextDescriptor{
		EstimatedTokens: 10,
		TotalBytes:      11,
		DataKind:        ctxmodel.DataKindText,
	})
	assert.Equal(t, ctxmodel.StrategyPassthrough, d.Tag)
}

func TestDecide_FileCountThresholdWinsFileParallel(t *testing.T) {
	r := New(Config{Enabled: true, MaxConcurrentAgents: 8, FileCountThreshold: 5}, nil)

	d := r.Decide(ctxmodel.ContextDescriptor{
		EstimatedTokens: 100,
		TotalBytes:      100,
		FilesCount:      7,
	})
	require.Equal(t, ctxmodel.StrategyFileParallel, d.Tag)
	assert.Equal(t, 7, d.Concurrency)
}

func TestDecide_FileParallelConcurrencyBoundedByMax(t *testing.T) {
	r := New(Config{Enabled: true, MaxConcurrentAgents: 3, FileCountThreshold: 5}, nil)

	d := r.Decide(ctxmodel.ContextDescriptor{
		EstimatedTokens: 100,
		TotalBytes:      100,
		FilesCount:      20,
	})
	require.Equal(t, ctxmodel.StrategyFileParallel, d.Tag)
	assert.Equal(t, 3, d.Concurrency)
}

func TestDecide_StructuredJSONOverThresholdIsStructuralDecomp(t *testing.T) {
	r := New(Config{Enabled: true, TokenThreshold: 50_000}, nil)

	d := r.Decide(ctxmodel.ContextDescriptor{
		EstimatedTokens: 60_000,
		TotalBytes:      1_000_000,
		DataKind:        ctxmodel.DataKindJSON,
		HasStructure:    true,
	})
	assert.Equal(t, ctxmodel.StrategyStructuralDecomp, d.Tag)
}

func TestDecide_UnstructuredOverThresholdIsTokenChunking(t *testing.T) {
	r := New(Config{Enabled: true, TokenThreshold: 50_000}, nil)

	d := r.Decide(ctxmodel.ContextDescriptor{
		EstimatedTokens: 60_000,
		TotalBytes:      1_000_000,
		DataKind:        ctxmodel.DataKindText,
		HasStructure:    false,
		Origin:          ctxmodel.OriginContent,
	})
	assert.Equal(t, ctxmodel.StrategyTokenChunking, d.Tag)
}

func TestDecide_LargeSingleFileNoStructureBeyondLinesIsFileChunking(t *testing.T) {
	r := New(Config{Enabled: true, FileSizeKbThreshold: 100}, nil)

	d := r.Decide(ctxmodel.ContextDescriptor{
		EstimatedTokens: 100,
		TotalBytes:      200 * 1024,
		DataKind:        ctxmodel.DataKindLog,
		HasStructure:    true,
		Origin:          ctxmodel.OriginFilePath,
	})
	assert.Equal(t, ctxmodel.StrategyFileChunking, d.Tag)
}

func TestResolveOverride_UnknownTagFallsBackToTokenChunking(t *testing.T) {
	assert.Equal(t, ctxmodel.StrategyTokenChunking, ResolveOverride("bogus-strategy"))
	assert.Equal(t, ctxmodel.StrategyPassthrough, ResolveOverride("passthrough"))
}
