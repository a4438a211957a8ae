// Package agentmanager dispatches an ordered sequence of Chunks to an
// injected LM worker with bounded concurrency, isolating per-task errors
// and timeouts so one failing chunk never aborts the others.
package agentmanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ctxforge/ctxforge/pkg/concurrent"
	"github.com/ctxforge/ctxforge/pkg/ctxerr"
	"github.com/ctxforge/ctxforge/pkg/ctxmodel"
	"github.com/ctxforge/ctxforge/pkg/worker"
)

// promptCap bounds how many characters of a chunk's payload are embedded in
// a prompt, independent of the chunk's own size.
const promptCap = 10_000

// DefaultTimeout is the per-task deadline applied when Dispatch's caller
// doesn't specify one.
const DefaultTimeout = 60 * time.Second

// DefaultMaxConcurrentAgents bounds how many tasks may be in flight at once
// when the caller doesn't override it.
const DefaultMaxConcurrentAgents = 8

// Manager dispatches ChunkTasks to a Worker with bounded concurrency.
type Manager struct {
	worker              worker.Worker
	maxConcurrentAgents int
	tracer              trace.Tracer
	logger              *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxConcurrentAgents overrides DefaultMaxConcurrentAgents.
func WithMaxConcurrentAgents(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxConcurrentAgents = n
		}
	}
}

// WithTracer sets a custom OpenTelemetry tracer; if not provided, tracing is
// a no-op.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) {
		m.tracer = t
	}
}

// WithLogger sets the structured logger used for per-task diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New builds a Manager around w, the injected LM worker callable.
func New(w worker.Worker, opts ...Option) *Manager {
	m := &Manager{
		worker:              w,
		maxConcurrentAgents: DefaultMaxConcurrentAgents,
		logger:              slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dispatch builds one ChunkTask per chunk, runs them through a bounded
// worker pool, and returns exactly one Result per chunk sorted by ChunkID
// ascending. Dispatch itself never returns an error: every failure mode is
// folded into a per-chunk Result.
func (m *Manager) Dispatch(ctx context.Context, chunks []ctxmodel.Chunk, query string, timeout time.Duration) []ctxmodel.Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	slots := concurrent.NewSlice[ctxmodel.Result]()
	for range chunks {
		slots.Append(ctxmodel.Result{})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.maxConcurrentAgents)

	for i, chunk := range chunks {
		task := buildTask(chunk, query)
		idx := i

		g.Go(func() error {
			result := m.runTask(gctx, task, timeout)
			slots.Set(idx, result)
			return nil
		})
	}

	// g.Wait's error is always nil: runTask never returns an error to the
	// errgroup, it only ever writes a Result (success or failure) into slots.
	_ = g.Wait()

	return slots.All()
}

func buildTask(chunk ctxmodel.Chunk, query string) ctxmodel.ChunkTask {
	kind := ctxmodel.TaskExtract
	if query != "" {
		kind = ctxmodel.TaskQuery
	}
	return ctxmodel.ChunkTask{Chunk: chunk, Query: query, TaskKind: kind}
}

// selectModel maps a task kind to a model tag, per the fixed extract/query
// to analyse/synthesise split: cheap extraction defaults to a lighter model,
// everything requiring synthesis or a user query gets a stronger one.
func selectModel(kind ctxmodel.TaskKind) string {
	switch kind {
	case ctxmodel.TaskAnalyse, ctxmodel.TaskSynthesise, ctxmodel.TaskQuery:
		return "sonnet"
	default:
		return "haiku"
	}
}

func buildPrompt(task ctxmodel.ChunkTask) string {
	payload := string(task.Chunk.Payload)
	if runes := []rune(payload); len(runes) > promptCap {
		payload = string(runes[:promptCap])
	}

	if task.Query != "" {
		return fmt.Sprintf(
			"Process this chunk of data to answer the following query:\n\nQuery: %s\n\nChunk %d:\n%s\n\nProvide a concise response focusing only on information relevant to the query.",
			task.Query, task.Chunk.ID, payload,
		)
	}
	return fmt.Sprintf(
		"Extract key information from this chunk:\n\nChunk %d:\n%s\n\nProvide a structured summary of the main points.",
		task.Chunk.ID, payload,
	)
}

func (m *Manager) runTask(ctx context.Context, task ctxmodel.ChunkTask, timeout time.Duration) (result ctxmodel.Result) {
	start := time.Now()
	chunkID := task.Chunk.ID

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("agentmanager: task panicked", "chunk_id", chunkID, "panic", r)
			result = failureResult(chunkID, time.Since(start), ctxerr.TaskFailure(chunkID, fmt.Errorf("panic: %v", r)))
		}
	}()

	if task.Chunk.Payload == nil {
		m.logger.Warn("agentmanager: skipping unreadable chunk", "chunk_id", chunkID, "path", task.Chunk.ParentPath)
		return failureResult(chunkID, time.Since(start), ctxerr.TaskFailure(chunkID, fmt.Errorf("source file unreadable: %s", task.Chunk.ParentPath)))
	}

	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	spanCtx, span := m.startSpan(taskCtx, "agentmanager.task", trace.WithAttributes(
		attribute.Int("chunk.id", chunkID),
		attribute.String("task.kind", string(task.TaskKind)),
	))
	defer span.End()

	model := selectModel(task.TaskKind)
	prompt := buildPrompt(task)

	content, err := m.worker.Query(spanCtx, prompt, model)
	elapsed := time.Since(start)

	switch {
	case errors.Is(spanCtx.Err(), context.DeadlineExceeded):
		span.SetStatus(codes.Error, "timeout")
		return failureResult(chunkID, elapsed, ctxerr.TaskTimeout(chunkID, spanCtx.Err()))
	case errors.Is(spanCtx.Err(), context.Canceled):
		span.SetStatus(codes.Error, "cancelled")
		return failureResult(chunkID, elapsed, ctxerr.Cancelled(chunkID, spanCtx.Err()))
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "task failed")
		return failureResult(chunkID, elapsed, ctxerr.TaskFailure(chunkID, err))
	}

	span.SetStatus(codes.Ok, "")
	return ctxmodel.Result{
		ChunkID:        chunkID,
		Content:        content,
		ProcessingTime: elapsed,
		ModelUsed:      model,
	}
}

func failureResult(chunkID int, elapsed time.Duration, cause *ctxerr.Error) ctxmodel.Result {
	return ctxmodel.Result{
		ChunkID:        chunkID,
		ProcessingTime: elapsed,
		Error:          &ctxmodel.ResultError{Kind: cause.Kind, Message: cause.Error()},
	}
}

func (m *Manager) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if m.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return m.tracer.Start(ctx, name, opts...)
}
