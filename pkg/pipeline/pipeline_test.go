package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxforge/ctxforge/pkg/ctxmodel"
	"github.com/ctxforge/ctxforge/pkg/router"
	"github.com/ctxforge/ctxforge/pkg/strategy"
	"github.com/ctxforge/ctxforge/pkg/worker"
)

func TestProcess_SmallContentPassesThrough(t *testing.T) {
	p := New(&worker.Stub{}, router.DefaultConfig(), nil)

	reply, err := p.Process(context.Background(), Input{Content: "hello world"}, Options{})

	require.NoError(t, err)
	assert.Equal(t, 1, reply.ChunksProcessed)
	assert.Equal(t, 0, reply.ChunksFailed)
	assert.NotEmpty(t, reply.DispatchID)
	assert.NotEmpty(t, reply.Aggregated.Text)
}

func TestProcess_LargeContentActivatesTokenChunking(t *testing.T) {
	cfg := router.DefaultConfig()
	cfg.TokenThreshold = 10
	p := New(&worker.Stub{}, cfg, nil)

	large := strings.Repeat("word ", 5000)
	reply, err := p.Process(context.Background(), Input{Content: large}, Options{
		StrategyConfig: strategy.Config{ChunkSize: 1000},
	})

	require.NoError(t, err)
	assert.Greater(t, reply.ChunksProcessed, 1)
}

func TestProcess_UnreadableFileReturnsInputUnreadable(t *testing.T) {
	p := New(&worker.Stub{}, router.DefaultConfig(), nil)

	_, err := p.Process(context.Background(), Input{FilePath: "/nonexistent/path.txt"}, Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "InputUnreadable")
}

func TestProcess_StrategyOverrideForcesTag(t *testing.T) {
	p := New(&worker.Stub{}, router.DefaultConfig(), nil)

	reply, err := p.Process(context.Background(), Input{Content: "tiny"}, Options{StrategyOverride: "token-chunking"})

	require.NoError(t, err)
	assert.Equal(t, 1, reply.ChunksProcessed)
}

func TestProcess_MultiFileBundleUsesFileParallel(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("contents of "+n), 0o644))
	}
	cfg := router.DefaultConfig()
	cfg.FileCountThreshold = 5
	p := New(&worker.Stub{}, cfg, nil)

	reply, err := p.Process(context.Background(), Input{Files: []string{dir}}, Options{})

	require.NoError(t, err)
	assert.Equal(t, 5, reply.ChunksProcessed)
	assert.Len(t, reply.Aggregated.Mapping, 5)
}

func TestProcess_FailedChunkSurfacesInReplyErrors(t *testing.T) {
	w := &worker.Stub{Respond: func(_ context.Context, _, _ string) (string, error) {
		return "", assertError{}
	}}
	p := New(w, router.DefaultConfig(), nil)

	reply, err := p.Process(context.Background(), Input{Content: "hello"}, Options{})

	require.NoError(t, err)
	assert.Equal(t, 1, reply.ChunksFailed)
	require.Len(t, reply.Errors, 1)
}

type assertError struct{}

func (assertError) Error() string { return "boom" }

func TestProcess_TotalProcessingMillisSumsPerTaskDurations(t *testing.T) {
	w := &worker.Stub{Respond: func(_ context.Context, _, _ string) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return "ok", nil
	}}
	cfg := router.DefaultConfig()
	cfg.TokenThreshold = 10
	p := New(w, cfg, nil)

	large := strings.Repeat("word ", 5000)
	reply, err := p.Process(context.Background(), Input{Content: large}, Options{
		StrategyConfig: strategy.Config{ChunkSize: 1000},
	})

	require.NoError(t, err)
	require.Greater(t, reply.ChunksProcessed, 1)
	// Bounded concurrency runs tasks overlapping, so the sum of per-task
	// durations must exceed what the wall-clock time for this call could
	// be if TotalProcessingMillis were measuring elapsed time instead.
	assert.GreaterOrEqual(t, reply.TotalProcessingMillis, int64(20*reply.ChunksProcessed))
}

func TestBuildReply_SumsPerTaskProcessingTime(t *testing.T) {
	results := []ctxmodel.Result{
		{ChunkID: 0, Content: "a", ProcessingTime: 30 * time.Millisecond},
		{ChunkID: 1, Content: "b", ProcessingTime: 45 * time.Millisecond},
	}

	reply := buildReply("dispatch-1", ctxmodel.AggregatedContent{Text: "a b"}, results, nil)

	assert.Equal(t, int64(75), reply.TotalProcessingMillis)
}

func TestBuildReply_PropagatesWarnings(t *testing.T) {
	reply := buildReply("dispatch-1", ctxmodel.AggregatedContent{Text: "x"}, nil, []string{"StrategyFailure: boom"})

	require.Len(t, reply.Warnings, 1)
	assert.Contains(t, reply.Warnings[0], "StrategyFailure")
}
