package parser

import (
	"strings"
	"testing"

	"promptforge/internal/types"
)

func TestParse_ClassifiesBugFromDefectVocabulary(t *testing.T) {
	out := Parse(types.RawPromptInput{Content: "Users can't login after password reset"})
	if out.Workflow != types.WorkflowBug {
		t.Fatalf("workflow = %q, want bug", out.Workflow)
	}
}

func TestParse_ClassifiesFeature(t *testing.T) {
	out := Parse(types.RawPromptInput{Content: "Add dark mode toggle to the settings page"})
	if out.Workflow != types.WorkflowFeature {
		t.Fatalf("workflow = %q, want feature", out.Workflow)
	}
}

func TestParse_DefectBeatsFeatureVocabulary(t *testing.T) {
	// "fix" and "add" both present; defect vocabulary is the stronger signal.
	out := Parse(types.RawPromptInput{Content: "Fix the crash and add a regression test; error persists"})
	if out.Workflow != types.WorkflowBug {
		t.Fatalf("workflow = %q, want bug", out.Workflow)
	}
}

func TestParse_ExplicitTypeHintWins(t *testing.T) {
	out := Parse(types.RawPromptInput{
		Content: "Fix the broken crash error",
		Type:    types.WorkflowDocumentation,
	})
	if out.Workflow != types.WorkflowDocumentation {
		t.Fatalf("workflow = %q, want documentation", out.Workflow)
	}
}

func TestParse_InvalidHintFallsBackToInference(t *testing.T) {
	out := Parse(types.RawPromptInput{Content: "Refactor the session handling", Type: "nonsense"})
	if out.Workflow != types.WorkflowRefactor {
		t.Fatalf("workflow = %q, want refactor", out.Workflow)
	}
}

func TestParse_UnclassifiableDefaultsToGeneral(t *testing.T) {
	out := Parse(types.RawPromptInput{Content: "hello there"})
	if out.Workflow != types.WorkflowGeneral {
		t.Fatalf("workflow = %q, want general", out.Workflow)
	}
}

func TestParse_Classification(t *testing.T) {
	cases := []struct {
		content string
		want    types.WorkflowType
	}{
		{"Document the new API endpoints in the readme", types.WorkflowDocumentation},
		{"Investigate whether we should compare caching strategies", types.WorkflowResearch},
		{"Please do a code review of the pull request", types.WorkflowPRReview},
		{"Clean up and simplify the config loader", types.WorkflowRefactor},
	}
	for _, tc := range cases {
		got := Parse(types.RawPromptInput{Content: tc.content}).Workflow
		if got != tc.want {
			t.Errorf("Parse(%q).Workflow = %q, want %q", tc.content, got, tc.want)
		}
	}
}

func TestParse_ExtractsRequirementsFromBullets(t *testing.T) {
	content := "Add export support.\n- support CSV output\n- support JSON output\n* keep ordering stable"
	out := Parse(types.RawPromptInput{Content: content})
	if len(out.Requirements) < 3 {
		t.Fatalf("requirements = %v, want at least the three bullets", out.Requirements)
	}
	found := false
	for _, r := range out.Requirements {
		if strings.Contains(r, "CSV") {
			found = true
		}
	}
	if !found {
		t.Fatalf("requirements %v missing CSV bullet", out.Requirements)
	}
}

func TestParse_TagsMergeMetadataAndDetected(t *testing.T) {
	out := Parse(types.RawPromptInput{
		Content:  "Fix login so the password check hits the database",
		Metadata: &types.InputMetadata{Tags: []string{"Urgent", "auth"}},
	})
	if len(out.Tags) == 0 || out.Tags[0] != "urgent" {
		t.Fatalf("tags = %v, want metadata tags first (lowercased)", out.Tags)
	}
	has := func(tag string) bool {
		for _, t := range out.Tags {
			if t == tag {
				return true
			}
		}
		return false
	}
	if !has("auth") || !has("database") {
		t.Fatalf("tags = %v, want detected auth and database tags", out.Tags)
	}
	// No duplicate "auth" even though supplied and detected.
	count := 0
	for _, tag := range out.Tags {
		if tag == "auth" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("auth tag appears %d times, want 1", count)
	}
}

func TestParse_BoundsContentLength(t *testing.T) {
	long := strings.Repeat("x", types.MaxContentLen+500)
	out := Parse(types.RawPromptInput{Content: long})
	if len([]rune(out.Content)) != types.MaxContentLen {
		t.Fatalf("content length = %d, want %d", len([]rune(out.Content)), types.MaxContentLen)
	}
}

func TestParse_IsDeterministic(t *testing.T) {
	raw := types.RawPromptInput{Content: "Fix the login error in the backend API server"}
	a := Parse(raw)
	b := Parse(raw)
	if a.Workflow != b.Workflow || strings.Join(a.Tags, ",") != strings.Join(b.Tags, ",") {
		t.Fatalf("parse not deterministic: %+v vs %+v", a, b)
	}
}
