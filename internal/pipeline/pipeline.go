// Package pipeline wires the enhancement stages: parse, analyze, build,
// optimize, validate, and optionally store. Each Enhance call runs the
// stages strictly sequentially; concurrent calls share nothing mutable but
// the store.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"promptforge/internal/analyzer"
	"promptforge/internal/builder"
	"promptforge/internal/llmclient"
	"promptforge/internal/optimizer"
	"promptforge/internal/parser"
	"promptforge/internal/store"
	"promptforge/internal/trace"
	"promptforge/internal/types"
	"promptforge/internal/validator"
)

// Options configures an Enhancer once at construction.
type Options struct {
	// Client is the model capability; nil forces fallback enhancement.
	Client llmclient.LLMClient
	// LLMTimeout bounds each model call.
	LLMTimeout time.Duration
	// ProjectRoot is the tree the context analyzer scans; empty skips
	// context analysis.
	ProjectRoot string
	Analyzer    analyzer.Options
	// Store is optional; Enhance works without persistence.
	Store  *store.Store
	Logger *trace.Logger
}

// Enhancer is the caller-facing pipeline API.
type Enhancer struct {
	opts      Options
	analyzer  *analyzer.Analyzer
	optimizer *optimizer.Optimizer
}

// New constructs the pipeline. Configuration is injected here rather than
// read from ambient state, so parallel pipelines can carry different
// clients.
func New(opts Options) *Enhancer {
	return &Enhancer{
		opts:      opts,
		analyzer:  analyzer.New(opts.Analyzer, opts.Logger),
		optimizer: optimizer.New(opts.Client, opts.LLMTimeout, opts.Logger),
	}
}

// Enhance turns a raw input into a validated structured prompt. Stage
// failures degrade internally (empty context, fallback enhancement); the
// call itself only fails on a nil receiver. The result always carries a
// validation consistent with its own field values.
func (e *Enhancer) Enhance(ctx context.Context, raw types.RawPromptInput) (*types.StructuredPrompt, error) {
	if e == nil {
		return nil, fmt.Errorf("pipeline: enhancer is nil")
	}

	parsed := parser.Parse(raw)

	pctx, err := e.analyzer.Analyze(ctx, e.opts.ProjectRoot, parsed.Content)
	if err != nil {
		// Analyzer contract: degraded scans yield empty contexts. Guard
		// anyway so a future error path cannot abort the pipeline.
		e.opts.Logger.Warn("context analysis failed", map[string]any{"error": err.Error()})
		pctx = types.PromptContext{}
	}

	p := builder.Build(parsed, pctx, raw, nil)
	p = e.optimizer.Optimize(ctx, p)
	p.Validation = validator.Validate(p)
	if !p.Validation.IsValid {
		e.opts.Logger.Info("prompt validated below threshold", map[string]any{
			"prompt_id": p.ID,
			"score":     p.Validation.Score,
		})
	}
	return p, nil
}

// EnhanceText is the string convenience over Enhance.
func (e *Enhancer) EnhanceText(ctx context.Context, content string) (*types.StructuredPrompt, error) {
	return e.Enhance(ctx, types.RawPromptInput{Content: content})
}

// Validate re-scores a record without touching storage.
func (e *Enhancer) Validate(p *types.StructuredPrompt) types.ValidationResult {
	return validator.Validate(p)
}

// Save persists p through the configured store.
func (e *Enhancer) Save(ctx context.Context, p *types.StructuredPrompt) (string, error) {
	if e == nil || e.opts.Store == nil {
		return "", fmt.Errorf("pipeline: no store configured")
	}
	return e.opts.Store.Save(ctx, p)
}

// Retrieve loads a stored record by id.
func (e *Enhancer) Retrieve(ctx context.Context, id string) (*types.StructuredPrompt, error) {
	if e == nil || e.opts.Store == nil {
		return nil, fmt.Errorf("pipeline: no store configured")
	}
	return e.opts.Store.Retrieve(ctx, id)
}

// Update applies a partial update and re-validates through the store.
func (e *Enhancer) Update(ctx context.Context, id string, u store.Update) (*types.StructuredPrompt, error) {
	if e == nil || e.opts.Store == nil {
		return nil, fmt.Errorf("pipeline: no store configured")
	}
	return e.opts.Store.ApplyUpdate(ctx, id, u)
}

// Search queries stored records.
func (e *Enhancer) Search(ctx context.Context, q store.Query) ([]*types.StructuredPrompt, error) {
	if e == nil || e.opts.Store == nil {
		return nil, fmt.Errorf("pipeline: no store configured")
	}
	return e.opts.Store.Search(ctx, q)
}

// Export renders p in the requested format.
func (e *Enhancer) Export(p *types.StructuredPrompt, format store.Format) (string, error) {
	return store.Export(p, format)
}
