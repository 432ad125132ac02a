package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptforge/internal/llmclient"
	"promptforge/internal/store"
	"promptforge/internal/types"
	"promptforge/internal/validator"
)

func newEnhancer(t *testing.T, client llmclient.LLMClient) *Enhancer {
	t.Helper()
	return New(Options{
		Client:     client,
		LLMTimeout: time.Second,
		Store:      store.New(filepath.Join(t.TempDir(), "prompts.json"), nil),
	})
}

func TestEnhance_ScoreConsistentWithOwnFields(t *testing.T) {
	e := newEnhancer(t, nil)
	p, err := e.EnhanceText(context.Background(), "Add dark mode toggle to the settings page component")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.GreaterOrEqual(t, p.Validation.Score, 0)
	assert.LessOrEqual(t, p.Validation.Score, 100)
	rescored := validator.Validate(p)
	assert.Equal(t, p.Validation.Score, rescored.Score)
}

func TestEnhance_FallbackGuarantee(t *testing.T) {
	e := newEnhancer(t, &llmclient.FakeClient{Err: errors.New("model down")})
	p, err := e.EnhanceText(context.Background(), "Add dark mode toggle")
	require.NoError(t, err, "no model error may escape the pipeline")

	assert.Equal(t, types.WorkflowFeature, p.Workflow)
	assert.NotEmpty(t, p.SuccessCriteria)
	assert.True(t, p.Metadata.Fallback)
}

func TestEnhance_ModelPathMergesFields(t *testing.T) {
	fake := &llmclient.FakeClient{Payload: json.RawMessage(`{
		"instruction": "Add a persistent dark mode toggle to the settings page",
		"success_criteria": ["toggle state survives restart"],
		"complexity": "low"
	}`)}
	e := newEnhancer(t, fake)
	p, err := e.EnhanceText(context.Background(), "Add dark mode toggle")
	require.NoError(t, err)

	assert.False(t, p.Metadata.Fallback)
	assert.Equal(t, "Add a persistent dark mode toggle to the settings page", p.Instruction)
	assert.Equal(t, types.ComplexityLow, p.Complexity)
	assert.Equal(t, 1, fake.Calls)
}

func TestEnhance_UsesProjectContext(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ui"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ui", "settings.ts"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ui", "theme.ts"), []byte("x"), 0o644))

	e := New(Options{ProjectRoot: root, LLMTimeout: time.Second})
	p, err := e.EnhanceText(context.Background(), "Update the settings theme handling")
	require.NoError(t, err)
	require.NotEmpty(t, p.Context.RelevantFiles)
	assert.Equal(t, "ui/settings.ts", p.Context.RelevantFiles[0].Path)
}

func TestEnhance_ExplicitTypeHintWins(t *testing.T) {
	e := newEnhancer(t, nil)
	p, err := e.Enhance(context.Background(), types.RawPromptInput{
		Content: "Fix the broken login crash",
		Type:    types.WorkflowResearch,
	})
	require.NoError(t, err)
	assert.Equal(t, types.WorkflowResearch, p.Workflow)
}

func TestEnhanceSaveRetrieve_EndToEnd(t *testing.T) {
	e := newEnhancer(t, nil)
	ctx := context.Background()
	p, err := e.EnhanceText(ctx, "Implement the audit log endpoint for admin actions with tests")
	require.NoError(t, err)

	id, err := e.Save(ctx, p)
	require.NoError(t, err)

	got, err := e.Retrieve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, p.Instruction, got.Instruction)
	assert.Equal(t, p.Validation.Score, got.Validation.Score)
}

func TestStaleValidationRejectedAfterManualEdit(t *testing.T) {
	e := newEnhancer(t, nil)
	ctx := context.Background()
	p, err := e.EnhanceText(ctx, "Implement the audit log endpoint for admin actions")
	require.NoError(t, err)
	id, err := e.Save(ctx, p)
	require.NoError(t, err)

	got, err := e.Retrieve(ctx, id)
	require.NoError(t, err)
	got.SuccessCriteria = append(got.SuccessCriteria, "sneaky extra criterion")
	_, err = e.Save(ctx, got)
	require.ErrorIs(t, err, types.ErrStaleValidation)

	// Re-validating clears the staleness.
	got.Validation = e.Validate(got)
	_, err = e.Save(ctx, got)
	require.NoError(t, err)
}

func TestEnhance_ConcurrentCallsAreIndependent(t *testing.T) {
	e := newEnhancer(t, nil)
	ctx := context.Background()
	var wg sync.WaitGroup
	results := make([]*types.StructuredPrompt, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := e.EnhanceText(ctx, "Fix the login error in the auth module")
			if err == nil {
				results[i] = p
			}
		}(i)
	}
	wg.Wait()
	ids := make(map[string]struct{})
	for _, p := range results {
		require.NotNil(t, p)
		ids[p.ID] = struct{}{}
	}
	assert.Len(t, ids, len(results), "each call must mint its own id")
}

func TestEnhance_CancelledContextStillReturnsRecord(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newEnhancer(t, &llmclient.FakeClient{Payload: json.RawMessage(`{"instruction":"x"}`)})
	p, err := e.Enhance(ctx, types.RawPromptInput{Content: "Add export support"})
	require.NoError(t, err)
	assert.True(t, p.Metadata.Fallback)
	assert.NotEmpty(t, p.SuccessCriteria)
}
