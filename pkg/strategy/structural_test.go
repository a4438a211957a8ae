package strategy

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxforge/ctxforge/pkg/ctxmodel"
)

func TestStructuralDecomp_JSONArraySplitsIntoGroups(t *testing.T) {
	content := []byte(`[{"a":1},{"b":2},{"c":3}]`)
	input := Input{
		Content:    content,
		Descriptor: ctxmodel.ContextDescriptor{DataKind: ctxmodel.DataKindJSON},
	}
	cfg := Config{ChunkSize: 10}

	chunks := structuralDecompStrategy{}.Decompose(context.Background(), input, cfg)

	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.Equal(t, i, c.ID)
		assert.Equal(t, ctxmodel.StrategyStructuralDecomp, c.Kind)
	}
}

func TestStructuralDecomp_JSONArrayAggregateConcatenatesInOrder(t *testing.T) {
	content := []byte(`[{"a":1},{"b":2},{"c":3}]`)
	input := Input{
		Content:    content,
		Descriptor: ctxmodel.ContextDescriptor{DataKind: ctxmodel.DataKindJSON},
	}
	cfg := Config{ChunkSize: 10}
	strat := structuralDecompStrategy{}
	chunks := strat.Decompose(context.Background(), input, cfg)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.Empty(t, c.ParentPath, "an array-rooted chunk must not carry a ParentPath")
	}

	results := make([]ctxmodel.Result, len(chunks))
	for i, c := range chunks {
		results[i] = ctxmodel.Result{ChunkID: c.ID, Content: fmt.Sprintf("out-%d", c.ID)}
	}

	agg := strat.Aggregate(chunks, results)
	require.Nil(t, agg.Mapping, "array-rooted JSON must concatenate, not merge into a mapping")
	for i := range chunks {
		assert.Contains(t, agg.Text, fmt.Sprintf("out-%d", i))
	}
}

func TestStructuralDecomp_JSONObjectEmitsOnePerKey(t *testing.T) {
	content := []byte(`{"alpha":"x","beta":"y"}`)
	input := Input{
		Content:    content,
		Descriptor: ctxmodel.ContextDescriptor{DataKind: ctxmodel.DataKindJSON},
	}
	cfg := Config{ChunkSize: 50_000}

	chunks := structuralDecompStrategy{}.Decompose(context.Background(), input, cfg)

	require.Len(t, chunks, 2)
	paths := []string{chunks[0].ParentPath, chunks[1].ParentPath}
	assert.ElementsMatch(t, []string{"/alpha", "/beta"}, paths)
}

func TestStructuralDecomp_JSONObjectAggregateMergesMapping(t *testing.T) {
	content := []byte(`{"alpha":"x","beta":"y"}`)
	input := Input{
		Content:    content,
		Descriptor: ctxmodel.ContextDescriptor{DataKind: ctxmodel.DataKindJSON},
	}
	cfg := Config{ChunkSize: 50_000}
	strat := structuralDecompStrategy{}
	chunks := strat.Decompose(context.Background(), input, cfg)

	results := make([]ctxmodel.Result, len(chunks))
	for i, c := range chunks {
		results[i] = ctxmodel.Result{ChunkID: c.ID, Content: "processed:" + c.ParentPath}
	}

	agg := strat.Aggregate(chunks, results)
	require.NotNil(t, agg.Mapping)
	assert.Equal(t, "processed:/alpha", agg.Mapping["/alpha"])
	assert.Equal(t, "processed:/beta", agg.Mapping["/beta"])
}

func TestStructuralDecomp_CSVRepeatsHeader(t *testing.T) {
	content := []byte("id,name\n1,a\n2,b\n3,c\n")
	input := Input{
		Content:    content,
		Descriptor: ctxmodel.ContextDescriptor{DataKind: ctxmodel.DataKindCSV},
	}
	cfg := Config{ChunkSize: 50_000, RowsPerChunk: 2}

	chunks := structuralDecompStrategy{}.Decompose(context.Background(), input, cfg)

	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.Contains(t, string(c.Payload), "id,name")
	}
}

func TestStructuralDecomp_LogSplitsOnTimestampBoundaries(t *testing.T) {
	content := []byte(
		"2024-01-01 00:00:00 [INFO] starting\n" +
			"2024-01-01 00:00:01 [INFO] continuing\n",
	)
	input := Input{
		Content:    content,
		Descriptor: ctxmodel.ContextDescriptor{DataKind: ctxmodel.DataKindLog},
	}
	cfg := Config{ChunkSize: 50_000}

	chunks := structuralDecompStrategy{}.Decompose(context.Background(), input, cfg)

	require.NotEmpty(t, chunks)
	var total int
	for _, c := range chunks {
		total += len(c.Payload)
	}
	assert.Equal(t, len(content), total)
}

func TestStructuralDecomp_CodeSplitsOnTopLevelDeclarations(t *testing.T) {
	content := []byte("func a() {\n\treturn\n}\n\nfunc b() {\n\treturn\n}\n")
	input := Input{
		Content:    content,
		Descriptor: ctxmodel.ContextDescriptor{DataKind: ctxmodel.DataKindCode},
	}
	cfg := Config{ChunkSize: 50_000}

	chunks := structuralDecompStrategy{}.Decompose(context.Background(), input, cfg)

	require.Len(t, chunks, 2)
}

func TestStructuralDecomp_EmptyInputFallsBackToSingleChunk(t *testing.T) {
	input := Input{Content: []byte{}, Descriptor: ctxmodel.ContextDescriptor{DataKind: ctxmodel.DataKindJSON}}
	cfg := DefaultConfig()

	chunks := structuralDecompStrategy{}.Decompose(context.Background(), input, cfg)

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].ID)
}

func TestStructuralDecomp_MalformedJSONFallsBackToOneOversizeChunk(t *testing.T) {
	content := []byte(`not json at all`)
	input := Input{Content: content, Descriptor: ctxmodel.ContextDescriptor{DataKind: ctxmodel.DataKindJSON}}
	cfg := Config{ChunkSize: 5}

	chunks := structuralDecompStrategy{}.Decompose(context.Background(), input, cfg)

	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].Oversize)
}
