package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"CryptoInsight/internal/domain/service"
	"CryptoInsight/pkg/cache"
	applogger "CryptoInsight/pkg/logger"
	"CryptoInsight/pkg/metrics"

	"github.com/stretchr/testify/require"
)

// fakeGenerator answers each call through respond and records the requests it saw.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   []service.GenerateRequest
	ended   []string
	respond func(req service.GenerateRequest) (string, error)
}

func (f *fakeGenerator) Generate(_ context.Context, req service.GenerateRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return "", nil
	}
	return respond(req)
}

func (f *fakeGenerator) EndSession(id string) {
	f.mu.Lock()
	f.ended = append(f.ended, id)
	f.mu.Unlock()
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Calls() []service.GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.GenerateRequest(nil), f.calls...)
}

func replyWith(text string) func(service.GenerateRequest) (string, error) {
	return func(service.GenerateRequest) (string, error) { return text, nil }
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func newTestSynthesizer(t *testing.T, gen service.TextGenerator, clock *testClock) (*Synthesizer, *cache.MemoryCache) {
	t.Helper()
	opts := []cache.MemoryOption{cache.WithMemoryCleanup(0)}
	if clock != nil {
		opts = append(opts, cache.WithMemoryClock(clock.Now))
	}
	store := cache.NewMemoryCache(opts...)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	s := NewSynthesizer(gen, store, SynthesisTTL{Market: 5 * time.Minute, Conversational: time.Hour}, applogger.NewNop(), metrics.Nop{})
	return s, store
}
