package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"promptforge/internal/trace"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns.
type Middleware func(LLMClient) LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner LLMClient, mws ...Middleware) LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// WithLogging traces request sizes and errors. logger may be nil.
func WithLogging(logger *trace.Logger) Middleware {
	return func(next LLMClient) LLMClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next LLMClient
	log  *trace.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	in, _ := json.Marshal(input)
	l.log.Debug("LLM request", map[string]any{"client": l.next.Name(), "bytes": len(prompt) + len(in)})
	raw, err := l.next.GenerateJSON(ctx, prompt, input)
	if err != nil {
		l.log.Warn("LLM error", map[string]any{"client": l.next.Name(), "error": err.Error()})
	}
	return raw, err
}

// WithRetry retries transient failures with a fixed backoff. Permanent
// errors and context cancellation are not retried.
func WithRetry(attempts int, backoff time.Duration) Middleware {
	if attempts < 1 {
		attempts = 1
	}
	return func(next LLMClient) LLMClient {
		return &retrying{next: next, attempts: attempts, backoff: backoff}
	}
}

type retrying struct {
	next     LLMClient
	attempts int
	backoff  time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	var lastErr error
	for i := 0; i < r.attempts; i++ {
		raw, err := r.next.GenerateJSON(ctx, prompt, input)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if IsPermanent(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if i == r.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.backoff):
		}
	}
	return nil, lastErr
}
