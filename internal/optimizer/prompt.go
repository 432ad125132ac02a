package optimizer

import (
	"bytes"
	"fmt"
	"strings"
)

// promptField describes a single output field in the enhancement schema.
type promptField struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// enhancementFieldSpec is the data contract the model's output is checked
// against, field by field.
var enhancementFieldSpec = []promptField{
	{Name: "instruction", Type: "string", Required: true,
		Description: "Rewritten, clarified, human-actionable instruction."},
	{Name: "success_criteria", Type: "[]string", Required: false,
		Description: "Checkable statements that define done."},
	{Name: "constraints", Type: "[]string", Required: false,
		Description: "Restrictions the work must respect."},
	{Name: "clarifying_questions", Type: "[]string", Required: false,
		Description: "Questions whose answers would sharpen the instruction."},
	{Name: "complexity", Type: "string", Required: false,
		Description: "Effort estimate: low, medium, or high."},
	{Name: "suggested_steps", Type: "[]string", Required: false,
		Description: "Ordered implementation steps."},
}

// buildPrompt renders the sectioned enhancement prompt for the model.
func buildPrompt(workflow string) string {
	var buf bytes.Buffer
	writeSection(&buf, "PURPOSE",
		"Rewrite a raw development instruction into a clear, specific, actionable one and derive planning fields.")
	writeSection(&buf, "BACKGROUND",
		fmt.Sprintf("The instruction was classified as a %q workflow. Keep that classification; do not reinterpret the intent.", workflow))
	writeSection(&buf, "OUTPUT", formatFields(enhancementFieldSpec))
	writeSection(&buf, "RULES", formatList([]string{
		"Preserve every concrete detail from the original instruction.",
		"Do not invent file names or APIs not implied by the input.",
		"success_criteria must be independently checkable.",
		"complexity must be exactly one of: low, medium, high.",
	}))
	writeSection(&buf, "OUTPUT_FORMAT", "A single JSON object with the fields above. JSON only, no prose.")
	return strings.TrimSpace(buf.String()) + "\n"
}

func formatFields(fields []promptField) string {
	var buf strings.Builder
	for _, f := range fields {
		req := "optional"
		if f.Required {
			req = "required"
		}
		fmt.Fprintf(&buf, "- %s (%s, %s): %s\n", f.Name, f.Type, req, f.Description)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
