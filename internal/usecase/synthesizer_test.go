package usecase

import (
	"errors"
	"testing"
	"time"

	"CryptoInsight/internal/domain/models"
	"CryptoInsight/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    map[string]any
		wantErr bool
	}{
		{name: "bare object", text: `{"a":1}`, want: map[string]any{"a": float64(1)}},
		{name: "json fence", text: "Here you go:\n```json\n{\"a\":\"x\"}\n```\nthanks", want: map[string]any{"a": "x"}},
		{name: "plain fence", text: "```\n{\"b\":true}\n```", want: map[string]any{"b": true}},
		{name: "shell fence before json fence", text: "Run this first:\n```bash\ncurl x\n```\nResult:\n```json\n{\"coinName\":\"Bitcoin\"}\n```", want: map[string]any{"coinName": "Bitcoin"}},
		{name: "javascript fence", text: "```javascript\n{\"d\":2}\n```", want: map[string]any{"d": float64(2)}},
		{name: "upper-case tag", text: "```JSON\n{\"e\":\"y\"}\n```", want: map[string]any{"e": "y"}},
		{name: "fence without object", text: "```bash\nls\n```", wantErr: true},
		{name: "surrounding whitespace", text: "  \n{\"c\":null}\n ", want: map[string]any{"c": nil}},
		{name: "prose only", text: "I cannot help with that", wantErr: true},
		{name: "array", text: `[1,2]`, wantErr: true},
		{name: "null", text: `null`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCacheKeyDependsOnAgentAndMessage(t *testing.T) {
	a := CacheKey("market_analyst", "hello")
	assert.Len(t, a, 32)
	assert.Equal(t, a, CacheKey("market_analyst", "hello"))
	assert.NotEqual(t, a, CacheKey("intent_classifier", "hello"))
	assert.NotEqual(t, a, CacheKey("market_analyst", "hello!"))
}

func TestStructuredCachesParsedOutput(t *testing.T) {
	gen := &fakeGenerator{respond: replyWith("```json\n{\"coinName\":\"Bitcoin\"}\n```")}
	s, store := newTestSynthesizer(t, gen, nil)

	req := SynthesisRequest{Agent: AgentAggregator, Instruction: "live data A", Message: "m", Class: ClassMarket}
	first, err := s.Structured(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", first["coinName"])

	// The instruction is not part of the key.
	req.Instruction = "live data B"
	second, err := s.Structured(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, gen.Calls(), 1)
	assert.Equal(t, 1, store.Len())
}

func TestStructuredParseFailureIsNotCached(t *testing.T) {
	gen := &fakeGenerator{respond: replyWith("sorry, no json today")}
	s, store := newTestSynthesizer(t, gen, nil)

	_, err := s.Structured(t.Context(), SynthesisRequest{Agent: AgentIntent, Message: "x", Class: ClassConversational})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrSynthesis)
	assert.Equal(t, 0, store.Len())

	gen.respond = replyWith(`{"type":"CHAT"}`)
	got, err := s.Structured(t.Context(), SynthesisRequest{Agent: AgentIntent, Message: "x", Class: ClassConversational})
	require.NoError(t, err)
	assert.Equal(t, "CHAT", got["type"])
	assert.Len(t, gen.Calls(), 2)
}

func TestStructuredBackendErrorWrapsSynthesis(t *testing.T) {
	gen := &fakeGenerator{respond: func(service.GenerateRequest) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	s, _ := newTestSynthesizer(t, gen, nil)

	_, err := s.Structured(t.Context(), SynthesisRequest{Agent: AgentTransaction, Message: "send"})
	assert.ErrorIs(t, err, models.ErrSynthesis)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNarrativeFallback(t *testing.T) {
	t.Run("backend error", func(t *testing.T) {
		gen := &fakeGenerator{respond: func(service.GenerateRequest) (string, error) { return "", errors.New("down") }}
		s, store := newTestSynthesizer(t, gen, nil)
		got := s.Narrative(t.Context(), SynthesisRequest{Agent: AgentAnalyst, Message: "m", Fallback: FallbackReport})
		assert.Equal(t, FallbackReport, got)
		assert.Equal(t, 0, store.Len())
	})
	t.Run("blank output", func(t *testing.T) {
		gen := &fakeGenerator{respond: replyWith("  \n ")}
		s, store := newTestSynthesizer(t, gen, nil)
		got := s.Narrative(t.Context(), SynthesisRequest{Agent: AgentChat, Message: "m", Fallback: FallbackChat})
		assert.Equal(t, FallbackChat, got)
		assert.Equal(t, 0, store.Len())
	})
}

func TestNarrativePassesSessionAndCaches(t *testing.T) {
	gen := &fakeGenerator{respond: replyWith("hello there")}
	s, _ := newTestSynthesizer(t, gen, nil)

	req := SynthesisRequest{Agent: AgentChat, Message: "hi", SessionID: "session-1", Class: ClassConversational}
	assert.Equal(t, "hello there", s.Narrative(t.Context(), req))
	assert.Equal(t, "hello there", s.Narrative(t.Context(), req))

	calls := gen.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "session-1", calls[0].SessionID)
}

func TestTTLClasses(t *testing.T) {
	clock := newTestClock()
	gen := &fakeGenerator{respond: replyWith(`{"ok":1}`)}
	s, _ := newTestSynthesizer(t, gen, clock)

	market := SynthesisRequest{Agent: AgentAggregator, Message: "btc", Class: ClassMarket}
	chat := SynthesisRequest{Agent: AgentChat, Message: "hi", Class: ClassConversational}

	_, err := s.Structured(t.Context(), market)
	require.NoError(t, err)
	s.Narrative(t.Context(), chat)
	require.Len(t, gen.Calls(), 2)

	clock.Advance(5*time.Minute - time.Second)
	_, err = s.Structured(t.Context(), market)
	require.NoError(t, err)
	assert.Len(t, gen.Calls(), 2, "market entry still live")

	clock.Advance(time.Second)
	_, err = s.Structured(t.Context(), market)
	require.NoError(t, err)
	assert.Len(t, gen.Calls(), 3, "market entry expired at its ttl")

	s.Narrative(t.Context(), chat)
	assert.Len(t, gen.Calls(), 3, "conversational entry outlives the market ttl")

	clock.Advance(time.Hour)
	s.Narrative(t.Context(), chat)
	assert.Len(t, gen.Calls(), 4)
}
