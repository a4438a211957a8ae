package strategy

import (
	"bytes"
	"context"

	"github.com/ctxforge/ctxforge/pkg/aggregator"
	"github.com/ctxforge/ctxforge/pkg/ctxmodel"
	"github.com/ctxforge/ctxforge/pkg/estimator"
)

// fileChunkingStrategy takes a single file's bytes (Input.Content, already
// read by the caller) and emits line-aligned windows of
// at most cfg.ChunkSize bytes; a line that alone exceeds cfg.ChunkSize is
// emitted as its own oversize Chunk.
type fileChunkingStrategy struct{}

var _ Strategy = fileChunkingStrategy{}

func (fileChunkingStrategy) Decompose(_ context.Context, input Input, cfg Config) []ctxmodel.Chunk {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultConfig().ChunkSize
	}

	content := totalInputBytes(input)
	if len(content) == 0 {
		return []ctxmodel.Chunk{emptyChunk(ctxmodel.StrategyFileChunking)}
	}

	lines := splitKeepingLineEndings(content)

	var chunks []ctxmodel.Chunk
	var buf bytes.Buffer

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		payload := append([]byte(nil), buf.Bytes()...)
		chunks = append(chunks, newFileChunk(len(chunks), payload, input.FilePath, false))
		buf.Reset()
	}

	for _, line := range lines {
		if len(line) > chunkSize {
			flush()
			chunks = append(chunks, newFileChunk(len(chunks), line, input.FilePath, true))
			continue
		}
		if buf.Len()+len(line) > chunkSize {
			flush()
		}
		buf.Write(line)
	}
	flush()

	if len(chunks) == 0 {
		chunks = append(chunks, emptyChunk(ctxmodel.StrategyFileChunking))
	}
	return chunks
}

func newFileChunk(id int, payload []byte, parentPath string, oversize bool) ctxmodel.Chunk {
	return ctxmodel.Chunk{
		ID:              id,
		Kind:            ctxmodel.StrategyFileChunking,
		Payload:         payload,
		ParentPath:      parentPath,
		SizeBytes:       len(payload),
		EstimatedTokens: estimator.EstimateBytes(payload),
		Oversize:        oversize,
	}
}

// splitKeepingLineEndings splits content into lines, keeping the trailing
// "\n" attached to each line so concatenating the slices reconstructs the
// original byte stream exactly.
func splitKeepingLineEndings(content []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range content {
		if b == '\n' {
			lines = append(lines, content[start:i+1])
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
	}
	return lines
}

func (fileChunkingStrategy) Aggregate(_ []ctxmodel.Chunk, results []ctxmodel.Result) ctxmodel.AggregatedContent {
	return aggregator.ConcatenateText(results)
}
