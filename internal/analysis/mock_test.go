package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sells-group/assortment-cli/internal/config"
	"github.com/sells-group/assortment-cli/internal/resilience"
	"github.com/sells-group/assortment-cli/pkg/anthropic"
)

// fakeClient implements anthropic.Client with a scripted handler.
type fakeClient struct {
	handler func(call int, req anthropic.CompletionRequest) (*anthropic.Completion, error)
	delay   time.Duration

	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	mu       sync.Mutex
	requests []anthropic.CompletionRequest
}

func (f *fakeClient) Complete(ctx context.Context, req anthropic.CompletionRequest) (*anthropic.Completion, error) {
	call := int(f.calls.Add(1))
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		prev := f.maxInFlight.Load()
		if cur <= prev || f.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.handler(call, req)
}

func userText(req anthropic.CompletionRequest) string {
	return req.User
}

func textResponse(text string) *anthropic.Completion {
	return &anthropic.Completion{
		Model: "test-model",
		Text:  text,
		Usage: anthropic.Usage{Input: 10, Output: 2},
	}
}

func rateLimited(after time.Duration) error {
	return &anthropic.APIError{StatusCode: 429, RetryAfter: after, Err: errors.New("too many requests")}
}

// memCache implements Cache in memory.
type memCache struct {
	mu      sync.Mutex
	entries map[string]string
	gets    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]string)}
}

func (m *memCache) GetCachedRecommendation(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memCache) SetCachedRecommendation(_ context.Context, key, reply string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = reply
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Anthropic: config.AnthropicConfig{
			Key:         "test-key",
			Model:       "test-model",
			MaxTokens:   256,
			Temperature: 0.2,
		},
		Analysis: config.AnalysisConfig{
			MaxConcurrent:      3,
			MaxRetries:         2,
			DefaultBackoffSecs: 20,
			BatchSize:          25,
		},
		Score: config.ScoreConfig{StrongAxisThreshold: 30, BonusPerAxis: 10},
	}
}

func newTestRunner(client anthropic.Client, opts ...Option) *Runner {
	opts = append([]Option{WithRetry(resilience.RateLimitPolicy(2, time.Millisecond))}, opts...)
	return NewRunner(client, testConfig(), opts...)
}

func requestFor(id string) Request {
	return Request{ProductID: id, Prompt: Prompt{System: "sys", User: "product " + id}}
}

func requestedID(req anthropic.CompletionRequest) string {
	return strings.TrimPrefix(userText(req), "product ")
}
