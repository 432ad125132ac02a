package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"promptforge/internal/types"
)

// Format selects an export representation.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps a user string onto a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("store: unknown export format %q", s)
	}
}

// Export renders p in the given format. It is a pure projection with no
// storage interaction. JSON and YAML serialize the full record; markdown is
// a lossy, presentation-only rendering that is never round-tripped.
func Export(p *types.StructuredPrompt, format Format) (string, error) {
	if p == nil {
		return "", fmt.Errorf("store: export nil prompt")
	}
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return "", fmt.Errorf("store: export json: %w", err)
		}
		return string(b), nil
	case FormatYAML:
		b, err := yaml.Marshal(p)
		if err != nil {
			return "", fmt.Errorf("store: export yaml: %w", err)
		}
		return string(b), nil
	case FormatMarkdown:
		return exportMarkdown(p), nil
	default:
		return "", fmt.Errorf("store: unknown export format %q", format)
	}
}

func exportMarkdown(p *types.StructuredPrompt) string {
	var b strings.Builder
	b.WriteString("# Enhanced Prompt\n\n")
	fmt.Fprintf(&b, "- Workflow: %s\n", p.Workflow)
	if p.Complexity != "" {
		fmt.Fprintf(&b, "- Complexity: %s\n", p.Complexity)
	}
	fmt.Fprintf(&b, "- Score: %d/100\n", p.Validation.Score)
	if p.Metadata.Fallback {
		b.WriteString("- Generated without model assistance (fallback)\n")
	}
	b.WriteString("\n## Instruction\n\n")
	b.WriteString(p.Instruction)
	b.WriteString("\n")

	if hasContext(p.Context) {
		b.WriteString("\n## Context\n\n")
		if p.Context.ProjectOverview != "" {
			b.WriteString(p.Context.ProjectOverview + "\n\n")
		}
		for _, f := range p.Context.RelevantFiles {
			fmt.Fprintf(&b, "- `%s` — %s\n", f.Path, f.Relevance)
		}
		if len(p.Context.TechnicalStack) > 0 {
			fmt.Fprintf(&b, "\nStack: %s\n", strings.Join(p.Context.TechnicalStack, ", "))
		}
	}
	if len(p.SuccessCriteria) > 0 {
		b.WriteString("\n## Success Criteria\n\n")
		for _, c := range p.SuccessCriteria {
			fmt.Fprintf(&b, "- [ ] %s\n", c)
		}
	}
	if len(p.Constraints) > 0 {
		b.WriteString("\n## Constraints\n\n")
		for _, c := range p.Constraints {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	if len(p.SuggestedSteps) > 0 {
		b.WriteString("\n## Suggested Steps\n\n")
		for i, s := range p.SuggestedSteps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
	}
	return b.String()
}

func hasContext(c types.PromptContext) bool {
	return c.ProjectOverview != "" || len(c.RelevantFiles) > 0 ||
		len(c.TechnicalStack) > 0 || c.CurrentState != ""
}
