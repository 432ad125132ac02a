package optimizer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"promptforge/internal/llmclient"
	"promptforge/internal/types"
)

func skeleton() *types.StructuredPrompt {
	return &types.StructuredPrompt{
		ID:          "p1",
		Workflow:    types.WorkflowFeature,
		Instruction: "add dark   mode toggle",
	}
}

func TestOptimize_MergesModelOutput(t *testing.T) {
	fake := &llmclient.FakeClient{Payload: json.RawMessage(`{
		"instruction": "Add a dark mode toggle to the settings page",
		"success_criteria": ["toggle persists"],
		"constraints": ["no new deps"],
		"complexity": "medium",
		"suggested_steps": ["edit settings", "add test"]
	}`)}
	o := New(fake, time.Second, nil)
	p := o.Optimize(context.Background(), skeleton())

	if p.Instruction != "Add a dark mode toggle to the settings page" {
		t.Fatalf("instruction = %q", p.Instruction)
	}
	if p.Workflow != types.WorkflowFeature {
		t.Fatalf("workflow changed to %q", p.Workflow)
	}
	if p.Complexity != types.ComplexityMedium {
		t.Fatalf("complexity = %q", p.Complexity)
	}
	if p.Metadata.Fallback {
		t.Fatal("fallback flag set on model-enhanced record")
	}
	if p.Metadata.Model != "FakeLLM" {
		t.Fatalf("model = %q", p.Metadata.Model)
	}
}

func TestOptimize_ModelErrorDegradesToFallback(t *testing.T) {
	fake := &llmclient.FakeClient{Err: errors.New("boom")}
	o := New(fake, time.Second, nil)
	p := o.Optimize(context.Background(), skeleton())

	if !p.Metadata.Fallback {
		t.Fatal("fallback flag not set")
	}
	if len(p.SuccessCriteria) == 0 {
		t.Fatal("fallback did not apply template criteria")
	}
	if p.Instruction != "Add dark mode toggle" {
		t.Fatalf("instruction = %q, want normalized", p.Instruction)
	}
}

func TestOptimize_SchemaViolationDegradesToFallback(t *testing.T) {
	cases := []string{
		`"just a string"`,
		`{"instruction": 42}`,
		`{"instruction": ""}`,
		`{"instruction": "ok", "success_criteria": "not a list"}`,
		`{"instruction": "ok", "complexity": "extreme"}`,
	}
	for _, payload := range cases {
		fake := &llmclient.FakeClient{Payload: json.RawMessage(payload)}
		o := New(fake, time.Second, nil)
		p := o.Optimize(context.Background(), skeleton())
		if !p.Metadata.Fallback {
			t.Errorf("payload %s: fallback flag not set", payload)
		}
	}
}

func TestOptimize_CancellationTakesFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &llmclient.FakeClient{Payload: json.RawMessage(`{"instruction":"x"}`)}
	o := New(fake, time.Second, nil)
	p := o.Optimize(ctx, skeleton())
	if !p.Metadata.Fallback {
		t.Fatal("cancelled call did not fall back")
	}
	// Fully populated despite cancellation.
	if len(p.SuccessCriteria) == 0 || p.Complexity == "" {
		t.Fatalf("record half-populated: %+v", p)
	}
}

func TestOptimize_NilClientFallsBack(t *testing.T) {
	o := New(nil, time.Second, nil)
	p := o.Optimize(context.Background(), skeleton())
	if !p.Metadata.Fallback {
		t.Fatal("fallback flag not set")
	}
}

func TestOptimize_KeepsSkeletonCriteriaInFallback(t *testing.T) {
	o := New(nil, time.Second, nil)
	s := skeleton()
	s.SuccessCriteria = []string{"already there"}
	p := o.Optimize(context.Background(), s)
	if len(p.SuccessCriteria) != 1 || p.SuccessCriteria[0] != "already there" {
		t.Fatalf("criteria = %v", p.SuccessCriteria)
	}
}

func TestCheckFields_AcceptsMinimalObject(t *testing.T) {
	res := checkFields(json.RawMessage(`{"instruction":"do the thing properly"}`))
	if !res.ok() {
		t.Fatalf("violation: %s", res.violation)
	}
	if res.fields.Instruction != "do the thing properly" {
		t.Fatalf("instruction = %q", res.fields.Instruction)
	}
}

func TestNormalizeInstruction(t *testing.T) {
	got := normalizeInstruction("  fix   the\tlogin \n flow ")
	if got != "Fix the login flow" {
		t.Fatalf("got %q", got)
	}
}
