package builder

import "promptforge/internal/types"

// Template holds the workflow-specific defaults applied when the caller
// supplies none. The map below covers every WorkflowType variant; Lookup
// falls back to the general template for anything unexpected.
type Template struct {
	SuccessCriteria     []string
	Constraints         []string
	ClarifyingQuestions []string
	OutputFormat        string
	OutputStructure     string
}

var templates = map[types.WorkflowType]Template{
	types.WorkflowFeature: {
		SuccessCriteria: []string{
			"Feature works as described in the instruction",
			"Existing functionality is unaffected",
			"New behavior is covered by tests",
		},
		Constraints: []string{
			"Follow existing code conventions and project structure",
		},
		ClarifyingQuestions: []string{
			"Are there UI or API consumers that need to opt in to the new behavior?",
		},
		OutputFormat:    "code",
		OutputStructure: "implementation with tests",
	},
	types.WorkflowBug: {
		SuccessCriteria: []string{
			"Reported behavior no longer reproduces",
			"Root cause is identified and addressed, not masked",
			"A regression test covers the failing case",
		},
		Constraints: []string{
			"Keep the change minimal and scoped to the defect",
		},
		ClarifyingQuestions: []string{
			"What are the exact reproduction steps and environment?",
		},
		OutputFormat:    "code",
		OutputStructure: "fix with regression test",
	},
	types.WorkflowRefactor: {
		SuccessCriteria: []string{
			"External behavior is unchanged",
			"Code is measurably simpler or better structured",
			"All existing tests still pass",
		},
		Constraints: []string{
			"No functional changes mixed into the refactor",
		},
		OutputFormat:    "code",
		OutputStructure: "refactored modules",
	},
	types.WorkflowDocumentation: {
		SuccessCriteria: []string{
			"Documentation is accurate against current behavior",
			"Examples are runnable as written",
		},
		Constraints: []string{
			"Match the project's existing documentation tone and format",
		},
		OutputFormat:    "markdown",
		OutputStructure: "headed sections with examples",
	},
	types.WorkflowResearch: {
		SuccessCriteria: []string{
			"Options are compared against explicit criteria",
			"A recommendation is stated with its trade-offs",
		},
		Constraints: []string{
			"Cite sources or experiments for each claim",
		},
		OutputFormat:    "markdown",
		OutputStructure: "findings, comparison, recommendation",
	},
	types.WorkflowPRReview: {
		SuccessCriteria: []string{
			"Every changed file is reviewed",
			"Findings are actionable and reference concrete lines",
		},
		Constraints: []string{
			"Distinguish blocking issues from style preferences",
		},
		OutputFormat:    "markdown",
		OutputStructure: "per-file findings with severity",
	},
	types.WorkflowGeneral: {
		SuccessCriteria: []string{
			"The request is satisfied as stated",
			"The result is verifiable",
		},
		OutputFormat:    "text",
		OutputStructure: "free-form response",
	},
}

// Lookup returns the template for a workflow type.
func Lookup(w types.WorkflowType) Template {
	if t, ok := templates[w]; ok {
		return t
	}
	return templates[types.WorkflowGeneral]
}
