// Package pipeline wires the descriptor builder, activation router,
// strategy family, agent manager, and aggregator into the single entry
// operation a host calls: Process.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ctxforge/ctxforge/pkg/agentmanager"
	"github.com/ctxforge/ctxforge/pkg/bundle"
	"github.com/ctxforge/ctxforge/pkg/ctxerr"
	"github.com/ctxforge/ctxforge/pkg/ctxmodel"
	"github.com/ctxforge/ctxforge/pkg/descriptor"
	"github.com/ctxforge/ctxforge/pkg/router"
	"github.com/ctxforge/ctxforge/pkg/strategy"
	"github.com/ctxforge/ctxforge/pkg/worker"
)

// Input is exactly one of FilePath, Content, or Files — the three shapes
// an entry call may name.
type Input struct {
	FilePath string
	Content  string
	Files    []string
}

// Options carries the per-call overrides a host may supply.
type Options struct {
	Query               string
	StrategyOverride    string // optional StrategyTag override
	Timeout             time.Duration
	RouterConfig        router.Config
	StrategyConfig      strategy.Config
	MaxConcurrentAgents int
}

// Pipeline is the assembled entry point. Build one with New and reuse it
// across calls; it holds no per-call mutable state.
type Pipeline struct {
	router  *router.Router
	manager *agentmanager.Manager
	logger  *slog.Logger
}

// New builds a Pipeline around an injected LM worker and router config.
func New(w worker.Worker, routerCfg router.Config, logger *slog.Logger, mgrOpts ...agentmanager.Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		router:  router.New(routerCfg, logger),
		manager: agentmanager.New(w, mgrOpts...),
		logger:  logger,
	}
}

// Process is the core entry operation: descriptor → router → strategy →
// agent manager → aggregator → reply. The only error ever returned is
// ctxerr.InputUnreadable, raised when the input itself can't be read; every
// other failure is folded into the returned reply's error list.
func (p *Pipeline) Process(ctx context.Context, input Input, opts Options) (ctxmodel.AggregatedReply, error) {
	dispatchID := uuid.NewString()

	desc, strategyInput, err := resolve(ctx, input)
	if err != nil {
		if ce, ok := err.(*ctxerr.Error); ok {
			return ctxmodel.AggregatedReply{}, ce
		}
		return ctxmodel.AggregatedReply{}, ctxerr.InputUnreadable(err)
	}

	decision := p.decide(desc, opts)
	strat, ok := strategy.Registry()[decision.Tag]
	if !ok {
		strat = strategy.Registry()[ctxmodel.StrategyPassthrough]
		decision.Tag = ctxmodel.StrategyPassthrough
	}

	stratCfg := opts.StrategyConfig
	if decision.Concurrency > 0 {
		stratCfg.Concurrency = decision.Concurrency
	}

	var warnings []string
	chunks := strat.Decompose(ctx, strategyInput, stratCfg)
	if len(chunks) == 0 {
		cause := ctxerr.StrategyFailure(fmt.Errorf("strategy %q produced zero chunks for a non-empty input", decision.Tag))
		p.logger.Warn("pipeline: strategy produced zero chunks, falling back to passthrough",
			"strategy", decision.Tag, "dispatch_id", dispatchID, "error", cause)
		warnings = append(warnings, cause.Error())
		strat = strategy.Registry()[ctxmodel.StrategyPassthrough]
		chunks = strat.Decompose(ctx, strategyInput, stratCfg)
	}

	results := p.manager.Dispatch(ctx, chunks, opts.Query, opts.Timeout)
	aggregated := strat.Aggregate(chunks, results)

	return buildReply(dispatchID, aggregated, results, warnings), nil
}

func (p *Pipeline) decide(desc ctxmodel.ContextDescriptor, opts Options) router.Decision {
	if opts.StrategyOverride != "" {
		tag := router.ResolveOverride(opts.StrategyOverride)
		return router.Decision{Tag: tag}
	}
	return p.router.Decide(desc)
}

// resolve builds a ContextDescriptor and the matching strategy.Input for
// whichever of FilePath/Content/Files was populated.
func resolve(ctx context.Context, input Input) (ctxmodel.ContextDescriptor, strategy.Input, error) {
	switch {
	case len(input.Files) > 0:
		resolved, err := bundle.Resolve(ctx, input.Files, bundle.Options{})
		if err != nil {
			return ctxmodel.ContextDescriptor{}, strategy.Input{}, err
		}
		desc, err := descriptor.BuildFromFiles(resolved)
		if err != nil {
			return ctxmodel.ContextDescriptor{}, strategy.Input{}, err
		}
		return desc, strategy.Input{Descriptor: desc, Files: resolved}, nil

	case input.FilePath != "":
		desc, err := descriptor.BuildFromFile(input.FilePath)
		if err != nil {
			return ctxmodel.ContextDescriptor{}, strategy.Input{}, err
		}
		content, err := readFileContent(input.FilePath)
		if err != nil {
			return ctxmodel.ContextDescriptor{}, strategy.Input{}, err
		}
		return desc, strategy.Input{Descriptor: desc, Content: content, FilePath: input.FilePath}, nil

	default:
		desc := descriptor.BuildFromContent(input.Content)
		return desc, strategy.Input{Descriptor: desc, Content: []byte(input.Content)}, nil
	}
}

func readFileContent(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// buildReply tallies per-result counters and sums each Result's own
// ProcessingTime into TotalProcessingMillis. This is a sum of per-task
// durations, not the wall-clock time of the whole dispatch — bounded
// concurrency makes the latter strictly smaller than the former.
func buildReply(dispatchID string, aggregated ctxmodel.AggregatedContent, results []ctxmodel.Result, warnings []string) ctxmodel.AggregatedReply {
	reply := ctxmodel.AggregatedReply{
		DispatchID: dispatchID,
		Aggregated: aggregated,
		Warnings:   warnings,
	}

	var total time.Duration
	for _, r := range results {
		total += r.ProcessingTime
		if r.Error != nil {
			reply.ChunksFailed++
			reply.Errors = append(reply.Errors, ctxmodel.ReplyError{ChunkID: r.ChunkID, Error: r.Error})
			continue
		}
		reply.ChunksProcessed++
	}
	reply.TotalProcessingMillis = total.Milliseconds()

	return reply
}
