package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ctxforge/ctxforge/pkg/aggregator"
	"github.com/ctxforge/ctxforge/pkg/ctxmodel"
	"github.com/ctxforge/ctxforge/pkg/estimator"
)

// structuralDecompStrategy dispatches decomposition on the input's DataKind,
// producing Chunks that preserve the input's logical record boundaries
// (JSON values, CSV rows, log lines, top-level code declarations) instead
// of cutting through them. Aggregate mirrors the dispatch: object-rooted
// JSON merges per-key results into a mapping, everything else concatenates
// in ascending chunk order.
type structuralDecompStrategy struct{}

var _ Strategy = structuralDecompStrategy{}

func (structuralDecompStrategy) Decompose(_ context.Context, input Input, cfg Config) []ctxmodel.Chunk {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultConfig().ChunkSize
	}

	content := totalInputBytes(input)
	if len(content) == 0 {
		return []ctxmodel.Chunk{emptyChunk(ctxmodel.StrategyStructuralDecomp)}
	}

	var chunks []ctxmodel.Chunk
	switch input.Descriptor.DataKind {
	case ctxmodel.DataKindJSON:
		chunks = decomposeJSON(content, chunkSize)
	case ctxmodel.DataKindCSV:
		rowsPerChunk := cfg.RowsPerChunk
		chunks = decomposeCSV(content, chunkSize, rowsPerChunk)
	case ctxmodel.DataKindLog:
		chunks = decomposeLog(content, chunkSize)
	case ctxmodel.DataKindCode:
		chunks = decomposeCode(content, chunkSize)
	}

	if len(chunks) == 0 {
		chunks = append(chunks, emptyChunk(ctxmodel.StrategyStructuralDecomp))
	}
	return chunks
}

func (structuralDecompStrategy) Aggregate(chunks []ctxmodel.Chunk, results []ctxmodel.Result) ctxmodel.AggregatedContent {
	if isObjectRootedJSON(chunks) {
		pathByID := make(map[int]string, len(chunks))
		for _, c := range chunks {
			pathByID[c.ID] = c.ParentPath
		}
		return aggregator.MergeMapping(results, func(chunkID int) string {
			return pathByID[chunkID]
		})
	}
	return aggregator.ConcatenateText(results)
}

// isObjectRootedJSON reports whether the chunk set came from a JSON object
// root: every chunk carries a non-empty ParentPath JSON pointer in that
// case, and none does for array-rooted JSON or the other structural kinds.
func isObjectRootedJSON(chunks []ctxmodel.Chunk) bool {
	if len(chunks) == 0 {
		return false
	}
	for _, c := range chunks {
		if c.Kind != ctxmodel.StrategyStructuralDecomp || c.ParentPath == "" {
			return false
		}
	}
	return true
}

func newStructuralChunk(id int, payload []byte, parentPath string, oversize bool) ctxmodel.Chunk {
	return ctxmodel.Chunk{
		ID:              id,
		Kind:            ctxmodel.StrategyStructuralDecomp,
		Payload:         payload,
		ParentPath:      parentPath,
		SizeBytes:       len(payload),
		EstimatedTokens: estimator.EstimateBytes(payload),
		Oversize:        oversize,
	}
}

// decomposeJSON dispatches on the root shape: an array groups consecutive
// elements until chunkSize serialised bytes are reached; an object emits
// one Chunk per top-level key, recursing into that key's value when it is
// an array whose serialised size exceeds chunkSize. An oversize value that
// is not an array becomes a single oversize Chunk.
func decomposeJSON(content []byte, chunkSize int) []ctxmodel.Chunk {
	var array []json.RawMessage
	if err := json.Unmarshal(content, &array); err == nil {
		// isRoot=true: an array root carries no ParentPath, so Aggregate
		// concatenates its chunks in id order instead of treating them as a
		// key-addressed mapping.
		return decomposeJSONArray(array, "", chunkSize, true)
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(content, &object); err == nil {
		var keys []string
		for k := range object {
			keys = append(keys, k)
		}
		sortStrings(keys)

		var chunks []ctxmodel.Chunk
		for _, key := range keys {
			val := object[key]
			pointer := "/" + key
			if len(val) <= chunkSize {
				chunks = append(chunks, newStructuralChunk(len(chunks), val, pointer, false))
				continue
			}

			var nestedArray []json.RawMessage
			if err := json.Unmarshal(val, &nestedArray); err == nil {
				nested := decomposeJSONArray(nestedArray, pointer, chunkSize, false)
				for _, n := range nested {
					n.ID = len(chunks)
					chunks = append(chunks, n)
				}
				continue
			}
			chunks = append(chunks, newStructuralChunk(len(chunks), val, pointer, true))
		}
		return chunks
	}

	// Malformed JSON: fall back to treating it as one oversize fragment
	// rather than failing decomposition.
	return []ctxmodel.Chunk{newStructuralChunk(0, content, "", true)}
}

// decomposeJSONArray groups consecutive array elements into Chunks of at
// most chunkSize serialised bytes. isRoot marks the top-level array case:
// its Chunks carry no ParentPath so Aggregate concatenates them in id order
// instead of reading the pointer as a mapping key. A nested array under an
// object key (isRoot=false) still carries its pointer, since that chunk set
// is part of an object-rooted result.
func decomposeJSONArray(elements []json.RawMessage, basePointer string, chunkSize int, isRoot bool) []ctxmodel.Chunk {
	var chunks []ctxmodel.Chunk
	var group [][]byte
	groupSize := 0
	startIdx := 0

	pointerFor := func(suffix string) string {
		if isRoot {
			return ""
		}
		return basePointer + suffix
	}

	flush := func(endIdx int) {
		if len(group) == 0 {
			return
		}
		payload := joinJSONArray(group)
		pointer := pointerFor(fmt.Sprintf("/%d-%d", startIdx, endIdx-1))
		chunks = append(chunks, newStructuralChunk(len(chunks), payload, pointer, len(payload) > chunkSize))
		group = nil
		groupSize = 0
	}

	for i, el := range elements {
		if len(el) > chunkSize {
			flush(i)
			pointer := pointerFor(fmt.Sprintf("/%d", i))
			chunks = append(chunks, newStructuralChunk(len(chunks), el, pointer, true))
			startIdx = i + 1
			continue
		}
		// Serialised size with el added: elements, one comma between each,
		// and the enclosing brackets.
		if len(group) > 0 && groupSize+len(el)+len(group)+2 > chunkSize {
			flush(i)
			startIdx = i
		}
		group = append(group, el)
		groupSize += len(el)
	}
	flush(len(elements))

	if len(chunks) == 0 {
		chunks = append(chunks, newStructuralChunk(0, []byte("[]"), pointerFor(""), false))
	}
	return chunks
}

func joinJSONArray(elements [][]byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, el := range elements {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(el)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// decomposeCSV emits Chunks of at most rowsPerChunk rows, repeating the
// header row as every Chunk's payload prefix.
func decomposeCSV(content []byte, chunkSize, rowsPerChunk int) []ctxmodel.Chunk {
	lines := splitKeepingLineEndings(content)
	if len(lines) == 0 {
		return nil
	}

	header := lines[0]
	rows := lines[1:]

	if rowsPerChunk <= 0 {
		rowsPerChunk = rowsPerChunkFor(header, rows, chunkSize)
	}

	var chunks []ctxmodel.Chunk
	for start := 0; start < len(rows); start += rowsPerChunk {
		end := min(start+rowsPerChunk, len(rows))

		var buf bytes.Buffer
		buf.Write(header)
		for _, r := range rows[start:end] {
			buf.Write(r)
		}
		payload := buf.Bytes()
		chunks = append(chunks, newStructuralChunk(len(chunks), payload, "", len(payload) > chunkSize))
	}

	if len(chunks) == 0 {
		chunks = append(chunks, newStructuralChunk(0, header, "", false))
	}
	return chunks
}

// rowsPerChunkFor derives a row count that keeps a header-plus-rows Chunk
// within chunkSize bytes, assuming roughly uniform row sizes.
func rowsPerChunkFor(header []byte, rows [][]byte, chunkSize int) int {
	if len(rows) == 0 {
		return 1
	}
	avgRow := 0
	sample := min(len(rows), 100)
	for _, r := range rows[:sample] {
		avgRow += len(r)
	}
	avgRow /= sample
	if avgRow == 0 {
		avgRow = 1
	}

	budget := chunkSize - len(header)
	if budget <= 0 {
		return 1
	}
	n := budget / avgRow
	if n < 1 {
		n = 1
	}
	return n
}

// decomposeLog splits on timestamp-prefixed line boundaries; each Chunk
// holds a contiguous range of lines, closed before a timestamped line that
// would take it past chunkSize. Lines without a timestamp stay with the
// preceding entry, so a Chunk can exceed chunkSize; it is then closed at
// once and flagged Oversize.
func decomposeLog(content []byte, chunkSize int) []ctxmodel.Chunk {
	lines := splitKeepingLineEndings(content)

	var chunks []ctxmodel.Chunk
	var buf bytes.Buffer

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		payload := append([]byte(nil), buf.Bytes()...)
		chunks = append(chunks, newStructuralChunk(len(chunks), payload, "", len(payload) > chunkSize))
		buf.Reset()
	}

	for _, line := range lines {
		if hasLeadingTimestampBytes(line) && buf.Len()+len(line) > chunkSize && buf.Len() > 0 {
			flush()
		}
		buf.Write(line)
		if buf.Len() > chunkSize {
			flush()
		}
	}
	flush()

	return chunks
}

func hasLeadingTimestampBytes(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return false
	}
	c := trimmed[0]
	if c < '0' || c > '9' {
		return false
	}
	digits := 0
	for i := 0; i < len(trimmed) && i < 20; i++ {
		switch b := trimmed[i]; {
		case b >= '0' && b <= '9':
			digits++
		case b == '-' || b == ':' || b == 'T' || b == '.' || b == ' ' || b == '/':
		default:
			return digits >= 6
		}
	}
	return digits >= 6
}

// decomposeCode splits on top-level declaration boundaries found by a
// bracket-balanced scan; a declaration that alone exceeds chunkSize falls
// back to line-aligned windows.
func decomposeCode(content []byte, chunkSize int) []ctxmodel.Chunk {
	decls := splitTopLevelDeclarations(content)

	var chunks []ctxmodel.Chunk
	for _, decl := range decls {
		if len(decl) <= chunkSize {
			chunks = append(chunks, newStructuralChunk(len(chunks), decl, "", false))
			continue
		}
		lines := splitKeepingLineEndings(decl)
		var buf bytes.Buffer
		flush := func() {
			if buf.Len() == 0 {
				return
			}
			payload := append([]byte(nil), buf.Bytes()...)
			chunks = append(chunks, newStructuralChunk(len(chunks), payload, "", true))
			buf.Reset()
		}
		for _, line := range lines {
			if buf.Len()+len(line) > chunkSize {
				flush()
			}
			buf.Write(line)
		}
		flush()
	}

	return chunks
}

// splitTopLevelDeclarations tracks brace/paren/bracket depth and ends a
// top-level declaration at each blank line reached at depth zero; spans
// not separated by a blank line stay in one declaration. This recognises C-family and brace-delimited code without
// parsing a specific grammar.
func splitTopLevelDeclarations(content []byte) [][]byte {
	lines := splitKeepingLineEndings(content)

	var decls [][]byte
	var current bytes.Buffer
	depth := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		decls = append(decls, append([]byte(nil), current.Bytes()...))
		current.Reset()
	}

	for _, line := range lines {
		for _, b := range line {
			switch b {
			case '{', '(', '[':
				depth++
			case '}', ')', ']':
				if depth > 0 {
					depth--
				}
			}
		}
		current.Write(line)
		blankLine := len(bytes.TrimSpace(line)) == 0
		if depth == 0 && blankLine && len(bytes.TrimSpace(current.Bytes())) > 0 {
			flush()
		}
	}
	flush()

	if len(decls) == 0 {
		decls = append(decls, content)
	}
	return decls
}
