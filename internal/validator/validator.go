// Package validator scores a structured prompt for completeness and
// clarity. Validate is pure and deterministic; the same record always
// yields the same result.
package validator

import (
	"strings"

	"promptforge/internal/types"
)

const (
	// AcceptanceThreshold is the minimum score for IsValid.
	AcceptanceThreshold = 60
	// minInstructionLen is the rune count below which an instruction is
	// considered one-line vagueness.
	minInstructionLen = 40
)

// concreteMarkers signal that the instruction pins down artifacts rather
// than intentions.
var concreteMarkers = []string{
	"file", "files", "function", "method", "class", "struct", "endpoint",
	"api", "route", "test", "tests", "error", "page", "button", "field",
	"column", "table", "config", "flag", "module", "package", "component",
	"query", "request", "response", "schema", "when", "must", "should",
}

// vagueWords are placeholder vocabulary that costs clarity points.
var vagueWords = []string{
	"something", "stuff", "things", "somehow", "whatever", "etc",
}

// Validate scores p with the additive 0-100 formula and emits one issue and
// one suggestion per missing contributor. A missing instruction is always
// blocking regardless of score.
func Validate(p *types.StructuredPrompt) types.ValidationResult {
	var res types.ValidationResult
	if p == nil {
		res.Issues = append(res.Issues, types.Issue{
			Description: "record is empty",
			Severity:    types.SeverityBlocking,
		})
		return res
	}

	instruction := strings.TrimSpace(p.Instruction)
	lower := strings.ToLower(instruction)

	addIssue := func(desc string, sev types.Severity, suggestion string) {
		res.Issues = append(res.Issues, types.Issue{Description: desc, Severity: sev})
		if suggestion != "" {
			res.Suggestions = append(res.Suggestions, suggestion)
		}
	}

	// Instruction clarity, up to 30.
	if instruction == "" {
		addIssue("instruction is missing", types.SeverityBlocking,
			"Provide an instruction describing what to do")
	} else {
		if len([]rune(instruction)) > minInstructionLen {
			res.Score += 10
		} else {
			addIssue("instruction is too short to be actionable", types.SeverityWarning,
				"Expand the instruction beyond a single vague line")
		}
		if containsAny(lower, concreteMarkers) {
			res.Score += 10
		} else {
			addIssue("instruction names no concrete artifact", types.SeverityWarning,
				"Name the files, functions, or endpoints involved")
		}
		if !containsAny(lower, vagueWords) {
			res.Score += 10
		} else {
			addIssue("instruction contains vague placeholder vocabulary", types.SeverityWarning,
				"Replace words like \"something\" or \"stuff\" with specifics")
		}
	}

	// Context completeness, up to 30.
	if len(p.Context.RelevantFiles) > 0 {
		res.Score += 10
	} else {
		addIssue("no relevant files in context", types.SeverityInfo,
			"Run the context analyzer against the project root")
	}
	if len(p.Context.TechnicalStack) > 0 {
		res.Score += 10
	} else {
		addIssue("technical stack is empty", types.SeverityInfo,
			"Add the project's languages and frameworks to the context")
	}
	if strings.TrimSpace(p.Context.CurrentState) != "" {
		res.Score += 10
	} else {
		addIssue("current state summary is empty", types.SeverityInfo,
			"Describe the project's current state")
	}

	// Structural quality, up to 20.
	if len(p.SuccessCriteria) > 0 {
		res.Score += 10
	} else {
		addIssue("no success criteria", types.SeverityWarning,
			"List checkable statements that define done")
	}
	if len(p.Constraints) > 0 {
		res.Score += 5
	} else {
		addIssue("no constraints", types.SeverityInfo,
			"State restrictions the work must respect")
	}
	if len(p.Examples) > 0 {
		res.Score += 5
	} else {
		addIssue("no examples", types.SeverityInfo,
			"Add an example of the desired outcome")
	}

	// Output specification, up to 20.
	if strings.TrimSpace(p.ExpectedOutput.Format) != "" {
		res.Score += 10
	} else {
		addIssue("expected output format is unset", types.SeverityWarning,
			"Set the deliverable format (code, markdown, json, ...)")
	}
	if strings.TrimSpace(p.ExpectedOutput.Structure) != "" {
		res.Score += 10
	} else {
		addIssue("expected output structure is unset", types.SeverityWarning,
			"Describe the deliverable's structure")
	}

	if res.Score > 100 {
		res.Score = 100
	}
	res.IsValid = res.Score >= AcceptanceThreshold && !hasBlocking(res.Issues)
	res.Fingerprint = p.ContentFingerprint()
	return res
}

func hasBlocking(issues []types.Issue) bool {
	for _, i := range issues {
		if i.Severity == types.SeverityBlocking {
			return true
		}
	}
	return false
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if containsWord(text, w) {
			return true
		}
	}
	return false
}

func containsWord(text, w string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], w)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(w)
		beforeOK := start == 0 || !isWordByte(text[start-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
