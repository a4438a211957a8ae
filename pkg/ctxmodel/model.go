// Package ctxmodel holds the data model shared by every stage of the
// decomposition-dispatch-aggregation pipeline: the descriptor built from an
// input, the chunks a strategy produces from it, the tasks dispatched to the
// LM worker, and the results/reply the pipeline hands back.
package ctxmodel

import (
	"time"

	"github.com/ctxforge/ctxforge/pkg/ctxerr"
)

// Origin identifies where an input came from.
type Origin string

const (
	OriginFilePath Origin = "file-path"
	OriginContent  Origin = "in-memory-content"
)

// DataKind is the sniffed shape of an input's payload.
type DataKind string

const (
	DataKindJSON    DataKind = "json"
	DataKindCSV     DataKind = "csv"
	DataKindLog     DataKind = "log"
	DataKindCode    DataKind = "code"
	DataKindText    DataKind = "text"
	DataKindBinary  DataKind = "binary"
	DataKindUnknown DataKind = "unknown"
)

// ContextDescriptor summarises the size/shape of an input. It is built once
// per entry call and discarded after routing; estimatedTokens is
// deterministic given the same input bytes and the same estimator version
// (see pkg/estimator).
type ContextDescriptor struct {
	Origin          Origin
	TotalBytes      int64
	EstimatedTokens int
	DataKind        DataKind
	FilesCount      int // >=1 when the input is a multi-file bundle
	HasStructure    bool
}

// StrategyTag is the closed set of strategies the activation router may
// select. Passthrough is the sentinel used when the router declines
// activation.
type StrategyTag string

const (
	StrategyPassthrough      StrategyTag = "passthrough"
	StrategyTokenChunking    StrategyTag = "token-chunking"
	StrategyFileChunking     StrategyTag = "file-chunking"
	StrategyStructuralDecomp StrategyTag = "structural-decomp"
	StrategyFileParallel     StrategyTag = "file-parallel"
)

// Chunk is a self-describing, bounded sub-input produced by a strategy. A
// Chunk is immutable after emission; strategies never mutate one once they
// hand it to the caller.
type Chunk struct {
	ID              int
	Kind            StrategyTag
	Payload         []byte
	ParentPath      string // optional: file path or JSON pointer, carried into aggregation
	SizeBytes       int
	EstimatedTokens int
	Oversize        bool // true when a single logical record exceeded the configured chunk size
}

// TaskKind controls model selection for a dispatched ChunkTask (see
// pkg/agentmanager).
type TaskKind string

const (
	TaskExtract    TaskKind = "extract"
	TaskQuery      TaskKind = "query"
	TaskAnalyse    TaskKind = "analyse"
	TaskSynthesise TaskKind = "synthesise"
)

// ChunkTask wraps a Chunk with an optional user query and the task kind that
// drives model selection and prompt construction.
type ChunkTask struct {
	Chunk    Chunk
	Query    string
	TaskKind TaskKind
}

// ResultError is the error descriptor attached to a failed Result. It mirrors
// pkg/ctxerr.Error's taxonomy rather than redefining one: a Result's error
// kind is always one of ctxerr's stable Kind values.
type ResultError struct {
	Kind    ctxerr.Kind
	Message string
}

func (e *ResultError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Result is the output of dispatching exactly one ChunkTask. Exactly one
// Result is produced per dispatched ChunkTask, even on failure.
type Result struct {
	ChunkID        int
	Content        string
	ProcessingTime time.Duration
	ModelUsed      string
	Error          *ResultError
}

// ReplyError pairs a failed chunk with its error for AggregatedReply.Errors.
type ReplyError struct {
	ChunkID int
	Error   *ResultError
}

// AggregatedContent is the reduced content of an AggregatedReply. Exactly one
// of the fields is populated, matching the typed aggregation rule that
// produced it (see pkg/aggregator).
type AggregatedContent struct {
	Text     string            // concatenated-text rule
	Mapping  map[string]string // disjoint/collapsing-key mapping rule
	Sequence []string          // fallback ordered-sequence rule
}

// AggregatedReply is the final output of process(): the reduced content plus
// order-preserving counters and error provenance.
type AggregatedReply struct {
	DispatchID            string
	Aggregated            AggregatedContent
	ChunksProcessed       int
	ChunksFailed          int
	TotalProcessingMillis int64
	Errors                []ReplyError
	Warnings              []string
}
