package evalengine

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// JudgeResponse is the parsed result of an LLM-as-judge call.
type JudgeResponse struct {
	Score        float64
	ResponseType ResponseType
	Raw          string
}

// Provider calls out to an LLM to judge a rendered prompt. Implementations
// wrap a transport (gRPC, HTTP, ...); Scouter ships a gRPC-backed one
// (provider_grpc.go).
type Provider interface {
	Judge(ctx context.Context, prompt string) (JudgeResponse, error)
}

// ProviderPool bounds in-flight calls to one named provider to a fixed
// concurrency cap and applies the task's retry budget on transport
// failures — a per-provider semaphore caps in-flight calls.
type ProviderPool struct {
	provider Provider
	sem      chan struct{}
	timeout  time.Duration
}

// NewProviderPool builds a pool over provider with the given concurrency
// cap (default 8) and per-call timeout.
func NewProviderPool(provider Provider, maxConcurrent int, timeout time.Duration) *ProviderPool {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ProviderPool{
		provider: provider,
		sem:      make(chan struct{}, maxConcurrent),
		timeout:  timeout,
	}
}

// Judge acquires a pool slot, applies the per-call timeout, and retries on
// transport failure up to maxRetries times (default 3).
func (p *ProviderPool) Judge(ctx context.Context, prompt string, maxRetries int) (JudgeResponse, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
	case <-ctx.Done():
		return JudgeResponse{}, ctx.Err()
	}

	var resp JudgeResponse
	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		r, err := p.provider.Judge(callCtx, prompt)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxRetries))
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return JudgeResponse{}, fmt.Errorf("llm judge call failed after retries: %w", err)
	}
	return resp, nil
}
