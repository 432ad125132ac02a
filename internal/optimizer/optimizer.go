// Package optimizer rewrites the skeleton record's instruction and fills
// derived planning fields, through the model capability when available and
// a deterministic local rewrite otherwise. No failure in this stage ever
// reaches the caller; availability wins over fidelity.
package optimizer

import (
	"context"
	"strings"
	"time"
	"unicode"

	"promptforge/internal/builder"
	"promptforge/internal/llmclient"
	"promptforge/internal/trace"
	"promptforge/internal/types"
)

const DefaultTimeout = 30 * time.Second

// Optimizer holds the injected model client and policy. Construct once and
// share; there is no ambient global state, so parallel pipelines can carry
// different clients.
type Optimizer struct {
	client  llmclient.LLMClient
	timeout time.Duration
	log     *trace.Logger
}

// New builds an Optimizer. client may be nil, which forces the fallback
// path on every call. logger may be nil.
func New(client llmclient.LLMClient, timeout time.Duration, logger *trace.Logger) *Optimizer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Optimizer{client: client, timeout: timeout, log: logger}
}

// Optimize enhances the skeleton in place and returns it. The model call
// respects ctx and the configured timeout; any error, cancellation, or
// schema violation degrades to Fallback.
func (o *Optimizer) Optimize(ctx context.Context, skeleton *types.StructuredPrompt) *types.StructuredPrompt {
	if skeleton == nil {
		return nil
	}
	if o == nil || o.client == nil {
		return o.fallback(skeleton, "no model client configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	input := map[string]any{
		"instruction":      skeleton.Instruction,
		"workflow":         skeleton.Workflow,
		"success_criteria": skeleton.SuccessCriteria,
		"constraints":      skeleton.Constraints,
		"context": map[string]any{
			"project_overview": skeleton.Context.ProjectOverview,
			"technical_stack":  skeleton.Context.TechnicalStack,
			"relevant_files":   skeleton.Context.RelevantFiles,
		},
	}
	raw, err := o.client.GenerateJSON(callCtx, buildPrompt(string(skeleton.Workflow)), input)
	if err != nil {
		return o.fallback(skeleton, "model call failed: "+err.Error())
	}
	res := checkFields(raw)
	if !res.ok() {
		return o.fallback(skeleton, "schema violation: "+res.violation)
	}
	return o.merge(skeleton, res.fields)
}

// merge folds checked model fields into the skeleton. The model's
// instruction wins over the raw one; the workflow classification already
// assigned is preserved.
func (o *Optimizer) merge(p *types.StructuredPrompt, f enhancementFields) *types.StructuredPrompt {
	p.Instruction = strings.TrimSpace(f.Instruction)
	if len(f.SuccessCriteria) > 0 {
		p.SuccessCriteria = f.SuccessCriteria
	}
	if len(f.Constraints) > 0 {
		p.Constraints = mergeLists(p.Constraints, f.Constraints)
	}
	if len(f.ClarifyingQuestions) > 0 {
		p.ClarifyingQuestions = f.ClarifyingQuestions
	}
	if f.Complexity != "" {
		p.Complexity = f.Complexity
	} else {
		p.Complexity = estimateComplexity(p)
	}
	if len(f.SuggestedSteps) > 0 {
		p.SuggestedSteps = f.SuggestedSteps
	}
	p.Metadata.Fallback = false
	p.Metadata.Model = o.client.Name()
	return p
}

// fallback is the deterministic local rewrite: whitespace and casing
// normalization, template default criteria when the skeleton lacks any, and
// the metadata flag consumers use to spot heuristic-enhanced records.
func (o *Optimizer) fallback(p *types.StructuredPrompt, reason string) *types.StructuredPrompt {
	o.logWarn(p, reason)
	p.Instruction = normalizeInstruction(p.Instruction)
	if len(p.SuccessCriteria) == 0 {
		p.SuccessCriteria = append([]string(nil), builder.Lookup(p.Workflow).SuccessCriteria...)
	}
	if p.Complexity == "" {
		p.Complexity = estimateComplexity(p)
	}
	if len(p.SuggestedSteps) == 0 {
		p.SuggestedSteps = defaultSteps(p.Workflow)
	}
	p.Metadata.Fallback = true
	p.Metadata.Model = ""
	return p
}

func (o *Optimizer) logWarn(p *types.StructuredPrompt, reason string) {
	if o == nil {
		return
	}
	o.log.Warn("enhancement degraded to fallback", map[string]any{
		"prompt_id": p.ID,
		"workflow":  string(p.Workflow),
		"reason":    reason,
	})
}

// normalizeInstruction collapses whitespace runs, trims, and capitalizes
// the first letter.
func normalizeInstruction(s string) string {
	fields := strings.Fields(s)
	out := strings.Join(fields, " ")
	if out == "" {
		return out
	}
	runes := []rune(out)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// estimateComplexity is a coarse size heuristic over instruction length and
// captured requirements.
func estimateComplexity(p *types.StructuredPrompt) types.Complexity {
	n := len([]rune(p.Instruction))
	reqs := 0
	for _, in := range p.Inputs {
		if in.Label == "requirement" {
			reqs++
		}
	}
	switch {
	case n > 400 || reqs > 5:
		return types.ComplexityHigh
	case n > 120 || reqs > 2:
		return types.ComplexityMedium
	default:
		return types.ComplexityLow
	}
}

func defaultSteps(w types.WorkflowType) []string {
	switch w {
	case types.WorkflowBug:
		return []string{"Reproduce the reported behavior", "Locate the root cause", "Apply the fix", "Add a regression test"}
	case types.WorkflowFeature:
		return []string{"Review the relevant modules", "Implement the change", "Add tests", "Update documentation"}
	case types.WorkflowRefactor:
		return []string{"Characterize current behavior with tests", "Restructure incrementally", "Verify tests still pass"}
	case types.WorkflowDocumentation:
		return []string{"Audit current docs against behavior", "Draft the updates", "Verify examples run"}
	case types.WorkflowResearch:
		return []string{"Define evaluation criteria", "Survey the options", "Write up findings and a recommendation"}
	case types.WorkflowPRReview:
		return []string{"Read the diff file by file", "Check tests and edge cases", "Write up findings by severity"}
	default:
		return []string{"Clarify the request", "Carry it out", "Verify the result"}
	}
}

func mergeLists(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base))
	out := append([]string(nil), base...)
	for _, s := range base {
		seen[strings.ToLower(s)] = struct{}{}
	}
	for _, s := range extra {
		if _, dup := seen[strings.ToLower(s)]; dup {
			continue
		}
		seen[strings.ToLower(s)] = struct{}{}
		out = append(out, s)
	}
	return out
}
