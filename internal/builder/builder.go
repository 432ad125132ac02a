// Package builder assembles the unvalidated StructuredPrompt skeleton from
// parser output, project context, and a workflow template.
package builder

import (
	"time"

	"github.com/google/uuid"

	"promptforge/internal/parser"
	"promptforge/internal/types"
)

// Version is the structured prompt format version stamped on new records.
const Version = "1.0"

// Build assembles a skeleton record. The id and timestamps are assigned
// here; callers never supply their own id for new records. Validation is a
// neutral placeholder until the validator runs.
func Build(parsed parser.Parsed, pctx types.PromptContext, raw types.RawPromptInput, tmpl *Template) *types.StructuredPrompt {
	t := Lookup(parsed.Workflow)
	if tmpl != nil {
		t = *tmpl
	}
	now := time.Now().UTC()

	p := &types.StructuredPrompt{
		ID:          uuid.NewString(),
		Version:     Version,
		Workflow:    parsed.Workflow,
		Instruction: parsed.Content,
		Context:     pctx,
		ExpectedOutput: types.ExpectedOutput{
			Format:    t.OutputFormat,
			Structure: t.OutputStructure,
		},
		Metadata: types.PromptMetadata{
			CreatedAt: now,
			UpdatedAt: now,
			Tags:      parsed.Tags,
		},
		ClarifyingQuestions: append([]string(nil), t.ClarifyingQuestions...),
		SuccessCriteria:     append([]string(nil), t.SuccessCriteria...),
		Constraints:         append([]string(nil), t.Constraints...),
	}
	if raw.Metadata != nil {
		p.Metadata.Author = raw.Metadata.Author
		if raw.Metadata.TaskID != "" {
			p.Inputs = append(p.Inputs, types.PromptInput{Label: "task_id", Value: raw.Metadata.TaskID, Type: "string"})
		}
		if raw.Metadata.Origin != "" {
			p.Inputs = append(p.Inputs, types.PromptInput{Label: "origin", Value: raw.Metadata.Origin, Type: "string"})
		}
	}
	for _, req := range parsed.Requirements {
		p.Inputs = append(p.Inputs, types.PromptInput{Label: "requirement", Value: req, Type: "string"})
	}
	return p
}
