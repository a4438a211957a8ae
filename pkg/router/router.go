// Package router implements the activation router: given a
// ContextDescriptor, it decides whether decomposition is required and, if
// so, which StrategyTag to use. The decision procedure is evaluated in
// order; the first rule that fires wins.
package router

import (
	"cmp"
	"log/slog"

	"github.com/ctxforge/ctxforge/pkg/ctxmodel"
)

// Config holds the router's activation thresholds. Zero numeric fields are
// replaced by documented defaults in New; Enabled is used as given, so a
// Config that leaves it false declines activation (DefaultConfig sets it).
type Config struct {
	Enabled             bool
	TokenThreshold      int
	FileSizeKbThreshold int
	FileCountThreshold  int
	MaxConcurrentAgents int
	ContextWindowTokens int // not used for activation, only passed into strategy configs
}

// DefaultConfig returns the router's baseline activation thresholds.
func DefaultConfig() Config {
	return Config{
		Enabled:             true,
		TokenThreshold:      50_000,
		FileSizeKbThreshold: 100,
		FileCountThreshold:  5,
		MaxConcurrentAgents: 8,
		ContextWindowTokens: 200_000,
	}
}

// Decision is the router's output: a strategy tag plus any per-tag detail
// the strategy family needs that isn't already on the descriptor (currently
// only file-parallel's resolved concurrency).
type Decision struct {
	Tag         ctxmodel.StrategyTag
	Concurrency int
}

// Router evaluates the activation decision procedure against a Config.
// Router values are immutable and safe to share across dispatches.
type Router struct {
	cfg    Config
	logger *slog.Logger
}

// New builds a Router, filling unset Config fields with defaults via
// cmp.Or.
func New(cfg Config, logger *slog.Logger) *Router {
	defaults := DefaultConfig()

	cfg.TokenThreshold = cmp.Or(cfg.TokenThreshold, defaults.TokenThreshold)
	cfg.FileSizeKbThreshold = cmp.Or(cfg.FileSizeKbThreshold, defaults.FileSizeKbThreshold)
	cfg.FileCountThreshold = cmp.Or(cfg.FileCountThreshold, defaults.FileCountThreshold)
	cfg.MaxConcurrentAgents = cmp.Or(cfg.MaxConcurrentAgents, defaults.MaxConcurrentAgents)
	cfg.ContextWindowTokens = cmp.Or(cfg.ContextWindowTokens, defaults.ContextWindowTokens)

	if logger == nil {
		logger = slog.Default()
	}

	return &Router{cfg: cfg, logger: logger}
}

// Decide applies the activation decision procedure to a descriptor.
func (r *Router) Decide(d ctxmodel.ContextDescriptor) Decision {
	// Rule 1: declined activation.
	if !r.cfg.Enabled || d.EstimatedTokens == 0 || d.TotalBytes == 0 {
		r.logger.Debug("router: passthrough (declined)", "enabled", r.cfg.Enabled,
			"estimated_tokens", d.EstimatedTokens, "total_bytes", d.TotalBytes)
		return Decision{Tag: ctxmodel.StrategyPassthrough}
	}

	// Rule 2: multi-file bundle over threshold.
	if d.FilesCount >= r.cfg.FileCountThreshold {
		concurrency := min(d.FilesCount, r.cfg.MaxConcurrentAgents)
		r.logger.Debug("router: file-parallel", "files_count", d.FilesCount, "concurrency", concurrency)
		return Decision{Tag: ctxmodel.StrategyFileParallel, Concurrency: concurrency}
	}

	// Rule 3: structured payload over the token threshold.
	if d.HasStructure && isStructuralKind(d.DataKind) && d.EstimatedTokens >= r.cfg.TokenThreshold {
		r.logger.Debug("router: structural-decomp", "data_kind", d.DataKind, "estimated_tokens", d.EstimatedTokens)
		return Decision{Tag: ctxmodel.StrategyStructuralDecomp}
	}

	// Rule 4: over threshold by tokens or size, no (usable) structure.
	fileSizeKb := d.TotalBytes / 1024
	if d.EstimatedTokens >= r.cfg.TokenThreshold || fileSizeKb >= int64(r.cfg.FileSizeKbThreshold) {
		if !d.HasStructure {
			r.logger.Debug("router: token-chunking", "estimated_tokens", d.EstimatedTokens, "file_size_kb", fileSizeKb)
			return Decision{Tag: ctxmodel.StrategyTokenChunking}
		}
		if d.Origin == ctxmodel.OriginFilePath {
			r.logger.Debug("router: file-chunking", "file_size_kb", fileSizeKb)
			return Decision{Tag: ctxmodel.StrategyFileChunking}
		}
		r.logger.Debug("router: token-chunking (structured in-memory content, not single-file)")
		return Decision{Tag: ctxmodel.StrategyTokenChunking}
	}

	// Rule 5: below every threshold.
	return Decision{Tag: ctxmodel.StrategyPassthrough}
}

func isStructuralKind(kind ctxmodel.DataKind) bool {
	switch kind {
	case ctxmodel.DataKindJSON, ctxmodel.DataKindCSV, ctxmodel.DataKindLog, ctxmodel.DataKindCode:
		return true
	default:
		return false
	}
}

// DefaultOverrideTag is the fallback strategy used when a caller-supplied
// strategy override names an unrecognised tag — availability over failure.
const DefaultOverrideTag = ctxmodel.StrategyTokenChunking

// DefaultOverrideChunkChars is the chunk size (in characters) used alongside
// DefaultOverrideTag for an unrecognised override.
const DefaultOverrideChunkChars = 50_000

// ResolveOverride maps a caller-supplied strategy tag string to a known
// StrategyTag, falling back to DefaultOverrideTag for anything unrecognised
// rather than failing the call.
func ResolveOverride(tag string) ctxmodel.StrategyTag {
	switch ctxmodel.StrategyTag(tag) {
	case ctxmodel.StrategyPassthrough, ctxmodel.StrategyTokenChunking,
		ctxmodel.StrategyFileChunking, ctxmodel.StrategyStructuralDecomp,
		ctxmodel.StrategyFileParallel:
		return ctxmodel.StrategyTag(tag)
	default:
		return DefaultOverrideTag
	}
}
