package builder

import (
	"testing"

	"promptforge/internal/parser"
	"promptforge/internal/types"
)

func TestBuild_AssignsIDAndTimestamps(t *testing.T) {
	parsed := parser.Parsed{Workflow: types.WorkflowFeature, Content: "Add dark mode"}
	p := Build(parsed, types.PromptContext{}, types.RawPromptInput{}, nil)
	if p.ID == "" {
		t.Fatal("id not assigned")
	}
	if p.Version != Version {
		t.Fatalf("version = %q, want %q", p.Version, Version)
	}
	if p.Metadata.CreatedAt.IsZero() || !p.Metadata.CreatedAt.Equal(p.Metadata.UpdatedAt) {
		t.Fatalf("timestamps not initialized: %+v", p.Metadata)
	}
}

func TestBuild_UniqueIDs(t *testing.T) {
	parsed := parser.Parsed{Workflow: types.WorkflowGeneral, Content: "x"}
	a := Build(parsed, types.PromptContext{}, types.RawPromptInput{}, nil)
	b := Build(parsed, types.PromptContext{}, types.RawPromptInput{}, nil)
	if a.ID == b.ID {
		t.Fatalf("ids collide: %s", a.ID)
	}
}

func TestBuild_AppliesWorkflowTemplate(t *testing.T) {
	parsed := parser.Parsed{Workflow: types.WorkflowBug, Content: "Fix crash"}
	p := Build(parsed, types.PromptContext{}, types.RawPromptInput{}, nil)
	if len(p.SuccessCriteria) == 0 {
		t.Fatal("bug template criteria not applied")
	}
	if p.ExpectedOutput.Format == "" || p.ExpectedOutput.Structure == "" {
		t.Fatalf("expected output not templated: %+v", p.ExpectedOutput)
	}
}

func TestBuild_ExplicitTemplateWins(t *testing.T) {
	parsed := parser.Parsed{Workflow: types.WorkflowBug, Content: "Fix crash"}
	tmpl := &Template{SuccessCriteria: []string{"custom"}, OutputFormat: "json"}
	p := Build(parsed, types.PromptContext{}, types.RawPromptInput{}, tmpl)
	if len(p.SuccessCriteria) != 1 || p.SuccessCriteria[0] != "custom" {
		t.Fatalf("criteria = %v, want custom template", p.SuccessCriteria)
	}
	if p.ExpectedOutput.Format != "json" {
		t.Fatalf("format = %q, want json", p.ExpectedOutput.Format)
	}
}

func TestBuild_CapturesRequirementsAndMetadata(t *testing.T) {
	parsed := parser.Parsed{
		Workflow:     types.WorkflowFeature,
		Content:      "Add export",
		Requirements: []string{"support CSV output"},
	}
	raw := types.RawPromptInput{Metadata: &types.InputMetadata{TaskID: "T-42", Author: "dev"}}
	p := Build(parsed, types.PromptContext{}, raw, nil)
	if p.Metadata.Author != "dev" {
		t.Fatalf("author = %q", p.Metadata.Author)
	}
	labels := make(map[string]string)
	for _, in := range p.Inputs {
		labels[in.Label] = in.Value
	}
	if labels["task_id"] != "T-42" || labels["requirement"] != "support CSV output" {
		t.Fatalf("inputs = %v", p.Inputs)
	}
}

func TestLookup_CoversEveryWorkflowType(t *testing.T) {
	for _, w := range types.WorkflowTypes() {
		tmpl := Lookup(w)
		if len(tmpl.SuccessCriteria) == 0 {
			t.Errorf("workflow %q has no default success criteria", w)
		}
		if tmpl.OutputFormat == "" {
			t.Errorf("workflow %q has no output format", w)
		}
	}
}
