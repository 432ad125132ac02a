package optimizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"promptforge/internal/types"
)

// enhancementFields is the schema-conforming model output after checking.
type enhancementFields struct {
	Instruction         string
	SuccessCriteria     []string
	Constraints         []string
	ClarifyingQuestions []string
	Complexity          types.Complexity
	SuggestedSteps      []string
}

// schemaResult is a tagged result: either Ok fields or a violation detail.
// Violations route to the fallback path, never to a hard failure.
type schemaResult struct {
	fields    enhancementFields
	violation string
}

func (r schemaResult) ok() bool { return r.violation == "" }

func violationf(format string, args ...any) schemaResult {
	return schemaResult{violation: fmt.Sprintf(format, args...)}
}

// checkFields verifies the raw model output against the enhancement field
// contract, field by field.
func checkFields(raw json.RawMessage) schemaResult {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return violationf("output is not a JSON object: %v", err)
	}

	var out enhancementFields
	if err := stringField(obj, "instruction", &out.Instruction); err != nil {
		return violationf("%v", err)
	}
	if strings.TrimSpace(out.Instruction) == "" {
		return violationf("instruction is required and empty")
	}
	for name, dst := range map[string]*[]string{
		"success_criteria":     &out.SuccessCriteria,
		"constraints":          &out.Constraints,
		"clarifying_questions": &out.ClarifyingQuestions,
		"suggested_steps":      &out.SuggestedSteps,
	} {
		if err := stringListField(obj, name, dst); err != nil {
			return violationf("%v", err)
		}
	}

	var complexity string
	if err := stringField(obj, "complexity", &complexity); err != nil {
		return violationf("%v", err)
	}
	switch c := types.Complexity(strings.ToLower(strings.TrimSpace(complexity))); c {
	case "":
	case types.ComplexityLow, types.ComplexityMedium, types.ComplexityHigh:
		out.Complexity = c
	default:
		return violationf("complexity %q is not one of low|medium|high", complexity)
	}
	return schemaResult{fields: out}
}

func stringField(obj map[string]json.RawMessage, name string, dst *string) error {
	raw, present := obj[name]
	if !present || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("field %s is not a string", name)
	}
	return nil
}

func stringListField(obj map[string]json.RawMessage, name string, dst *[]string) error {
	raw, present := obj[name]
	if !present || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("field %s is not a string list", name)
	}
	var cleaned []string
	for _, s := range *dst {
		s = strings.TrimSpace(s)
		if s != "" {
			cleaned = append(cleaned, s)
		}
	}
	*dst = cleaned
	return nil
}
