package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CryptoInsight/internal/domain/service"
	applogger "CryptoInsight/pkg/logger"

	"google.golang.org/genai"
)

type generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Gemini is a TextGenerator backed by the Gemini API.
type Gemini struct {
	generate generateContentFunc
	model    string
	timeout  time.Duration
	history  *history[*genai.Content]
	logger   *applogger.Logger
}

// NewGemini dials the Gemini API with apiKey.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration, l *applogger.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newGemini(client.Models.GenerateContent, model, timeout, l), nil
}

func newGemini(fn generateContentFunc, model string, timeout time.Duration, l *applogger.Logger) *Gemini {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Gemini{
		generate: fn,
		model:    model,
		timeout:  timeout,
		history:  newHistory[*genai.Content](DefaultHistoryTurns),
		logger:   l.With(applogger.String("backend", "gemini")),
	}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Generate(ctx context.Context, req service.GenerateRequest) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cfg := &genai.GenerateContentConfig{}
	if req.Instruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.Instruction, genai.RoleUser)
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toGenaiSchema(req.Schema)
	}

	user := genai.NewContentFromText(req.Message, genai.RoleUser)
	contents := append(g.history.get(req.SessionID), user)

	resp, err := g.generate(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate (%s): %w", req.Agent, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini generate (%s): empty response", req.Agent)
	}

	g.history.append(req.SessionID, user, genai.NewContentFromText(text, genai.RoleModel))
	return text, nil
}

// EndSession forgets the conversation bound to sessionID.
func (g *Gemini) EndSession(sessionID string) {
	g.history.drop(sessionID)
	g.logger.Debug("conversation dropped", applogger.String("session", sessionID))
}

var _ service.TextGenerator = (*Gemini)(nil)
