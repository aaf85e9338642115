package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"CryptoInsight/internal/domain/models"
	domrepo "CryptoInsight/internal/domain/repository"
	"CryptoInsight/internal/domain/service"
	"CryptoInsight/pkg/cache"
	applogger "CryptoInsight/pkg/logger"
)

// TTLClass selects how long a synthesized response stays cached.
type TTLClass string

const (
	ClassMarket         TTLClass = "market"
	ClassConversational TTLClass = "conversational"
)

// SynthesisTTL holds per-class cache lifetimes.
type SynthesisTTL struct {
	Market         time.Duration
	Conversational time.Duration
}

// SynthesisRequest is one model invocation.
type SynthesisRequest struct {
	Agent       string
	Instruction string
	// Message is the user-facing text. Together with Agent it forms the cache key;
	// volatile data belongs in Instruction.
	Message   string
	Schema    *service.Schema
	Class     TTLClass
	SessionID string
	Fallback  string
}

var fencedBlock = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)[ \\t]*\\n?(.*?)```")

// Synthesizer runs cache-checked generation against a text backend.
type Synthesizer struct {
	backend service.TextGenerator
	cache   cache.Store
	ttl     SynthesisTTL
	logger  *applogger.Logger
	metrics domrepo.Metrics
}

func NewSynthesizer(backend service.TextGenerator, store cache.Store, ttl SynthesisTTL, l *applogger.Logger, m domrepo.Metrics) *Synthesizer {
	if ttl.Market <= 0 {
		ttl.Market = 5 * time.Minute
	}
	if ttl.Conversational <= 0 {
		ttl.Conversational = time.Hour
	}
	return &Synthesizer{backend: backend, cache: store, ttl: ttl, logger: l.With(applogger.String("component", "synthesizer")), metrics: m}
}

// CacheKey is md5 over {"agent","message"}.
func CacheKey(agent, message string) string {
	return cache.HashJSON(struct {
		Agent   string `json:"agent"`
		Message string `json:"message"`
	}{agent, message})
}

func (s *Synthesizer) ttlFor(class TTLClass) time.Duration {
	if class == ClassMarket {
		return s.ttl.Market
	}
	return s.ttl.Conversational
}

// lookup returns the cached text for req, if any.
func (s *Synthesizer) lookup(req SynthesisRequest) (string, string, bool) {
	key := CacheKey(req.Agent, req.Message)
	text, err := cache.GetTyped[string](s.cache, key)
	hit := err == nil
	s.metrics.RecordCacheLookup(string(req.Class), hit)
	if hit {
		s.logger.Debug("cache hit", applogger.String("agent", req.Agent), applogger.String("key", key[:8]))
	}
	return key, text, hit
}

func (s *Synthesizer) call(ctx context.Context, req SynthesisRequest) (string, error) {
	start := time.Now()
	text, err := s.backend.Generate(ctx, service.GenerateRequest{
		Agent:       req.Agent,
		Instruction: req.Instruction,
		Message:     req.Message,
		Schema:      req.Schema,
		SessionID:   req.SessionID,
	})
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.RecordSynthesis(req.Agent, outcome, time.Since(start).Seconds())
	return text, err
}

// Structured returns the decoded JSON object produced for req. Backend and
// parse failures both wrap models.ErrSynthesis. Only parseable output is cached.
func (s *Synthesizer) Structured(ctx context.Context, req SynthesisRequest) (map[string]any, error) {
	key, cached, hit := s.lookup(req)
	if hit {
		if obj, err := ExtractJSON(cached); err == nil {
			return obj, nil
		}
		s.cache.Delete(key)
	}

	text, err := s.call(ctx, req)
	if err != nil {
		s.logger.Error("structured generation failed", applogger.String("agent", req.Agent), applogger.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", models.ErrSynthesis, req.Agent, err)
	}

	obj, err := ExtractJSON(text)
	if err != nil {
		s.logger.Error("structured output unparseable",
			applogger.String("agent", req.Agent),
			applogger.Int("length", len(text)),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("%w: %s: %v", models.ErrSynthesis, req.Agent, err)
	}

	s.cache.Set(key, text, s.ttlFor(req.Class))
	return obj, nil
}

// Narrative returns free text for req, or req.Fallback on any failure.
func (s *Synthesizer) Narrative(ctx context.Context, req SynthesisRequest) string {
	key, cached, hit := s.lookup(req)
	if hit {
		return cached
	}

	text, err := s.call(ctx, req)
	if err != nil || strings.TrimSpace(text) == "" {
		if err == nil {
			err = errors.New("empty response")
		}
		s.logger.Warn("narrative generation failed, using fallback", applogger.String("agent", req.Agent), applogger.Error(err))
		return req.Fallback
	}

	s.cache.Set(key, text, s.ttlFor(req.Class))
	return text
}

// ExtractJSON parses a JSON object from model text. A json-tagged fence wins,
// then any other fence in order, then the whole text.
func ExtractJSON(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)

	var tagged, other []string
	for _, m := range fencedBlock.FindAllStringSubmatch(text, -1) {
		if strings.EqualFold(m[1], "json") {
			tagged = append(tagged, m[2])
		} else {
			other = append(other, m[2])
		}
	}

	var firstErr error
	for _, candidate := range append(append(tagged, other...), text) {
		obj, err := decodeObject(candidate)
		if err == nil {
			return obj, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func decodeObject(candidate string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &obj); err != nil {
		return nil, fmt.Errorf("decode model json: %w", err)
	}
	if obj == nil {
		return nil, errors.New("decode model json: not an object")
	}
	return obj, nil
}
