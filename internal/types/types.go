package types

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

// MaxContentLen bounds the raw input content in runes. Longer input is
// truncated by the parser rather than rejected.
const MaxContentLen = 10000

// Store-level failure conditions. Matched with errors.Is.
var (
	ErrNotFound        = errors.New("prompt not found")
	ErrStaleValidation = errors.New("validation is stale; re-validate before saving")
)

// WorkflowType classifies the intent behind a raw instruction.
type WorkflowType string

const (
	WorkflowFeature       WorkflowType = "feature"
	WorkflowBug           WorkflowType = "bug"
	WorkflowRefactor      WorkflowType = "refactor"
	WorkflowDocumentation WorkflowType = "documentation"
	WorkflowResearch      WorkflowType = "research"
	WorkflowPRReview      WorkflowType = "pr_review"
	WorkflowGeneral       WorkflowType = "general"
)

// WorkflowTypes lists every valid variant. Template maps must cover all of them.
func WorkflowTypes() []WorkflowType {
	return []WorkflowType{
		WorkflowFeature, WorkflowBug, WorkflowRefactor, WorkflowDocumentation,
		WorkflowResearch, WorkflowPRReview, WorkflowGeneral,
	}
}

// ParseWorkflowType maps a free-form string onto a WorkflowType.
// Unrecognized values yield WorkflowGeneral and ok=false.
func ParseWorkflowType(s string) (WorkflowType, bool) {
	w := WorkflowType(strings.ToLower(strings.TrimSpace(s)))
	if w.Valid() {
		return w, true
	}
	return WorkflowGeneral, false
}

func (w WorkflowType) Valid() bool {
	switch w {
	case WorkflowFeature, WorkflowBug, WorkflowRefactor, WorkflowDocumentation,
		WorkflowResearch, WorkflowPRReview, WorkflowGeneral:
		return true
	}
	return false
}

// InputMetadata carries optional caller-supplied provenance for a raw input.
type InputMetadata struct {
	TaskID string   `json:"task_id,omitempty"`
	Author string   `json:"author,omitempty"`
	Origin string   `json:"origin,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// RawPromptInput is the unenhanced request. Immutable; consumed once by the
// parser.
type RawPromptInput struct {
	Content  string         `json:"content"`
	Type     WorkflowType   `json:"type,omitempty"`
	Metadata *InputMetadata `json:"metadata,omitempty"`
}

// RelevantFile ties a project file to a one-line relevance summary.
type RelevantFile struct {
	Path      string `json:"path"`
	Relevance string `json:"relevance"`
}

// PromptContext is a read-only snapshot of the target project, produced once
// by the analyzer and never mutated afterward.
type PromptContext struct {
	ProjectOverview string         `json:"project_overview,omitempty"`
	RelevantFiles   []RelevantFile `json:"relevant_files,omitempty"`
	Dependencies    []string       `json:"dependencies,omitempty"`
	TechnicalStack  []string       `json:"technical_stack,omitempty"`
	CurrentState    string         `json:"current_state,omitempty"`
}

// PromptInput is a labeled user-supplied parameter captured on the record.
type PromptInput struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// ExpectedOutput describes the desired deliverable.
type ExpectedOutput struct {
	Format    string `json:"format,omitempty"`
	Structure string `json:"structure,omitempty"`
}

// Severity grades a validation issue.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityBlocking Severity = "blocking"
)

// Issue is a single validation finding with remediation text.
type Issue struct {
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// ValidationResult scores a structured prompt for completeness and clarity.
// Fingerprint records the content hash the score was computed against so the
// store can reject saves over stale validations.
type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	Score       int      `json:"score"`
	Issues      []Issue  `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
}

// Complexity is the optimizer's effort estimate.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// PromptMetadata is record bookkeeping. Fallback marks heuristic-enhanced
// records so consumers can distinguish them from model-enhanced ones.
type PromptMetadata struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    string    `json:"author,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Fallback  bool      `json:"fallback,omitempty"`
	Model     string    `json:"model,omitempty"`
}

// StructuredPrompt is the canonical pipeline output and the unit of storage.
type StructuredPrompt struct {
	ID                  string           `json:"id"`
	Version             string           `json:"version"`
	Workflow            WorkflowType     `json:"workflow"`
	Instruction         string           `json:"instruction"`
	Context             PromptContext    `json:"context"`
	Inputs              []PromptInput    `json:"inputs,omitempty"`
	ExpectedOutput      ExpectedOutput   `json:"expected_output"`
	Validation          ValidationResult `json:"validation"`
	Metadata            PromptMetadata   `json:"metadata"`
	ClarifyingQuestions []string         `json:"clarifying_questions,omitempty"`
	SuccessCriteria     []string         `json:"success_criteria,omitempty"`
	Constraints         []string         `json:"constraints,omitempty"`
	Examples            []string         `json:"examples,omitempty"`
	Complexity          Complexity       `json:"complexity,omitempty"`
	SuggestedSteps      []string         `json:"suggested_steps,omitempty"`
}

// ContentFingerprint hashes every field the validator scores. A mutation to
// any of them changes the fingerprint and invalidates the stored score.
func (p *StructuredPrompt) ContentFingerprint() string {
	if p == nil {
		return ""
	}
	h := fnv.New64a()
	write := func(parts ...string) {
		for _, s := range parts {
			_, _ = h.Write([]byte(s))
			_, _ = h.Write([]byte{0})
		}
	}
	write(p.Instruction, string(p.Workflow))
	write(p.SuccessCriteria...)
	write("|")
	write(p.Constraints...)
	write("|")
	write(p.Examples...)
	write("|", p.ExpectedOutput.Format, p.ExpectedOutput.Structure)
	write(p.Context.ProjectOverview, p.Context.CurrentState)
	for _, f := range p.Context.RelevantFiles {
		write(f.Path)
	}
	write(p.Context.TechnicalStack...)
	return fmt.Sprintf("%016x", h.Sum64())
}

// ValidationCurrent reports whether the stored validation matches the
// record's current field values.
func (p *StructuredPrompt) ValidationCurrent() bool {
	if p == nil {
		return false
	}
	return p.Validation.Fingerprint != "" && p.Validation.Fingerprint == p.ContentFingerprint()
}

// Clone returns a deep copy so callers can mutate freely without aliasing
// store-held state.
func (p *StructuredPrompt) Clone() *StructuredPrompt {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Context.RelevantFiles = append([]RelevantFile(nil), p.Context.RelevantFiles...)
	cp.Context.Dependencies = append([]string(nil), p.Context.Dependencies...)
	cp.Context.TechnicalStack = append([]string(nil), p.Context.TechnicalStack...)
	cp.Inputs = append([]PromptInput(nil), p.Inputs...)
	cp.Validation.Issues = append([]Issue(nil), p.Validation.Issues...)
	cp.Validation.Suggestions = append([]string(nil), p.Validation.Suggestions...)
	cp.Metadata.Tags = append([]string(nil), p.Metadata.Tags...)
	cp.ClarifyingQuestions = append([]string(nil), p.ClarifyingQuestions...)
	cp.SuccessCriteria = append([]string(nil), p.SuccessCriteria...)
	cp.Constraints = append([]string(nil), p.Constraints...)
	cp.Examples = append([]string(nil), p.Examples...)
	cp.SuggestedSteps = append([]string(nil), p.SuggestedSteps...)
	return &cp
}
