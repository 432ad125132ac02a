package llmclient

import (
	"context"
	"encoding/json"
)

// FakeClient returns a fixed JSON payload, or a fixed error, for offline use
// and tests.
type FakeClient struct {
	Payload json.RawMessage
	Err     error
	// Calls counts GenerateJSON invocations.
	Calls int
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	f.Calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.Payload) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return f.Payload, nil
}
