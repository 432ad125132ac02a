package validator

import (
	"reflect"
	"testing"

	"promptforge/internal/types"
)

func fullPrompt() *types.StructuredPrompt {
	return &types.StructuredPrompt{
		ID:          "p1",
		Workflow:    types.WorkflowFeature,
		Instruction: "Implement the dark mode toggle component in settings and update the theme config file",
		Context: types.PromptContext{
			RelevantFiles:  []types.RelevantFile{{Path: "ui/settings.tsx"}},
			TechnicalStack: []string{"TypeScript"},
			CurrentState:   "120 files indexed",
		},
		SuccessCriteria: []string{"toggle persists across sessions"},
		Constraints:     []string{"no new dependencies"},
		Examples:        []string{"settings > appearance > dark"},
		ExpectedOutput:  types.ExpectedOutput{Format: "code", Structure: "implementation with tests"},
	}
}

func TestValidate_FullRecordScores100(t *testing.T) {
	res := Validate(fullPrompt())
	if res.Score != 100 {
		t.Fatalf("score = %d, want 100", res.Score)
	}
	if !res.IsValid {
		t.Fatalf("IsValid = false: %+v", res.Issues)
	}
	if len(res.Issues) != 0 {
		t.Fatalf("issues = %v, want none", res.Issues)
	}
}

func TestValidate_ScoreStaysInRange(t *testing.T) {
	res := Validate(&types.StructuredPrompt{})
	if res.Score < 0 || res.Score > 100 {
		t.Fatalf("score = %d out of range", res.Score)
	}
}

func TestValidate_MissingInstructionIsBlocking(t *testing.T) {
	p := fullPrompt()
	p.Instruction = "   "
	res := Validate(p)
	if res.IsValid {
		t.Fatal("IsValid = true despite missing instruction")
	}
	blocking := false
	for _, i := range res.Issues {
		if i.Severity == types.SeverityBlocking {
			blocking = true
		}
	}
	if !blocking {
		t.Fatalf("no blocking issue: %v", res.Issues)
	}
	// All context/structure/output points still apply: 30 + 20 + 20.
	if res.Score != 70 {
		t.Fatalf("score = %d, want 70", res.Score)
	}
}

func TestValidate_AdditiveContributions(t *testing.T) {
	p := fullPrompt()
	base := Validate(p).Score

	p.SuccessCriteria = nil
	if got := Validate(p).Score; got != base-10 {
		t.Fatalf("without criteria: %d, want %d", got, base-10)
	}
	p.Constraints = nil
	if got := Validate(p).Score; got != base-15 {
		t.Fatalf("without constraints: %d, want %d", got, base-15)
	}
	p.Examples = nil
	if got := Validate(p).Score; got != base-20 {
		t.Fatalf("without examples: %d, want %d", got, base-20)
	}
	p.ExpectedOutput = types.ExpectedOutput{}
	if got := Validate(p).Score; got != base-40 {
		t.Fatalf("without output spec: %d, want %d", got, base-40)
	}
	p.Context = types.PromptContext{}
	if got := Validate(p).Score; got != base-70 {
		t.Fatalf("without context: %d, want %d", got, base-70)
	}
}

func TestValidate_VagueVocabularyCostsPoints(t *testing.T) {
	p := fullPrompt()
	clear := Validate(p).Score
	p.Instruction = "Implement something for the settings component config file and make stuff work"
	vague := Validate(p).Score
	if vague != clear-10 {
		t.Fatalf("vague score = %d, want %d", vague, clear-10)
	}
}

func TestValidate_ShortInstructionLosesLengthPoints(t *testing.T) {
	p := fullPrompt()
	p.Instruction = "Fix the config file"
	res := Validate(p)
	// Loses the length 10; keeps concrete 10 ("file") and non-vague 10.
	if res.Score != 90 {
		t.Fatalf("score = %d, want 90", res.Score)
	}
}

func TestValidate_IsPureAndIdempotent(t *testing.T) {
	p := fullPrompt()
	a := Validate(p)
	b := Validate(p)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("not idempotent:\n%+v\n%+v", a, b)
	}
}

func TestValidate_ThresholdGatesIsValid(t *testing.T) {
	p := &types.StructuredPrompt{
		Instruction: "Refactor the session handling module so the auth middleware tests stay green",
		Context: types.PromptContext{
			RelevantFiles:  []types.RelevantFile{{Path: "a.go"}},
			TechnicalStack: []string{"Go"},
		},
		SuccessCriteria: []string{"tests pass"},
	}
	// 10+10+10 clarity, 10+10 context, 10 criteria = 60.
	res := Validate(p)
	if res.Score != 60 {
		t.Fatalf("score = %d, want 60", res.Score)
	}
	if !res.IsValid {
		t.Fatal("IsValid = false at threshold")
	}
	p.SuccessCriteria = nil
	res = Validate(p)
	if res.Score != 50 || res.IsValid {
		t.Fatalf("score = %d IsValid = %v, want 50/false", res.Score, res.IsValid)
	}
}

func TestValidate_RecordsFingerprint(t *testing.T) {
	p := fullPrompt()
	res := Validate(p)
	if res.Fingerprint != p.ContentFingerprint() {
		t.Fatal("fingerprint mismatch")
	}
	p.SuccessCriteria = append(p.SuccessCriteria, "more")
	if res.Fingerprint == p.ContentFingerprint() {
		t.Fatal("fingerprint did not change with content")
	}
}
