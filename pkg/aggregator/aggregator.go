// Package aggregator implements the typed reduction rules every strategy's
// Aggregate method funnels its Results through, rather than re-implementing
// reduction logic: concatenate-with-headers, merge-mapping, an ordered
// sequence fallback, and a plain single-result unwrap.
//
// Since Result.Content is always a string, the choice of rule is a static
// property of the strategy/chunk kind that produced the Results, decided
// by each Strategy's Aggregate method rather than by inspecting content
// at runtime (see DESIGN.md).
package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ctxforge/ctxforge/pkg/ctxmodel"
)

// ConcatenateText implements the "every successful content is a string"
// rule: concatenate with a "\n\n" separator and a "[Chunk <id>]:\n" header
// per block, in ascending chunkId order. Failed chunks are skipped — their
// absence is tracked via the reply's counters and error list instead.
func ConcatenateText(results []ctxmodel.Result) ctxmodel.AggregatedContent {
	sorted := sortedByChunkID(results)

	var sb strings.Builder
	first := true
	for _, r := range sorted {
		if r.Error != nil {
			continue
		}
		if !first {
			sb.WriteString("\n\n")
		}
		first = false
		fmt.Fprintf(&sb, "[Chunk %d]:\n%s", r.ChunkID, r.Content)
	}

	return ctxmodel.AggregatedContent{Text: sb.String()}
}

// MergeMapping implements the mapping-merge rule for both the disjoint-key
// and colliding-key cases: keyFunc resolves each chunk's logical key (a
// JSON top-level key, a file identifier, ...). Disjoint keys simply
// populate distinct entries; colliding keys are resolved last-writer-wins
// in ascending chunkId order.
func MergeMapping(results []ctxmodel.Result, keyFunc func(chunkID int) string) ctxmodel.AggregatedContent {
	sorted := sortedByChunkID(results)

	mapping := make(map[string]string)
	for _, r := range sorted {
		if r.Error != nil {
			continue
		}
		mapping[keyFunc(r.ChunkID)] = r.Content
	}

	return ctxmodel.AggregatedContent{Mapping: mapping}
}

// OrderedSequence implements the fallback rule: an ordered sequence of raw
// successful contents, used when neither the string-concatenation nor the
// mapping-merge rule fits the strategy's output shape.
func OrderedSequence(results []ctxmodel.Result) ctxmodel.AggregatedContent {
	sorted := sortedByChunkID(results)

	seq := make([]string, 0, len(sorted))
	for _, r := range sorted {
		if r.Error != nil {
			continue
		}
		seq = append(seq, r.Content)
	}

	return ctxmodel.AggregatedContent{Sequence: seq}
}

// Unwrap implements passthrough's reduction: a single Chunk's Result,
// returned verbatim with no header decoration. Defined here (rather than
// inline in the passthrough strategy) so every typed rule lives in one
// place.
func Unwrap(results []ctxmodel.Result) ctxmodel.AggregatedContent {
	if len(results) == 0 {
		return ctxmodel.AggregatedContent{Text: ""}
	}
	return ctxmodel.AggregatedContent{Text: results[0].Content}
}

func sortedByChunkID(results []ctxmodel.Result) []ctxmodel.Result {
	sorted := make([]ctxmodel.Result, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ChunkID < sorted[j].ChunkID })
	return sorted
}
