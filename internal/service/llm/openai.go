package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CryptoInsight/internal/domain/service"
	applogger "CryptoInsight/pkg/logger"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type chatGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// OpenAI is a TextGenerator for any OpenAI-compatible chat endpoint.
type OpenAI struct {
	chat    chatGenerator
	timeout time.Duration
	history *history[*schema.Message]
	logger  *applogger.Logger
}

// OpenAIConfig selects the endpoint and model.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

func NewOpenAI(ctx context.Context, cfg OpenAIConfig, l *applogger.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	mc := &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		mc.MaxTokens = &maxTokens
	}
	cm, err := openai.NewChatModel(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return newOpenAI(cm, cfg.Timeout, l), nil
}

func newOpenAI(chat chatGenerator, timeout time.Duration, l *applogger.Logger) *OpenAI {
	return &OpenAI{
		chat:    chat,
		timeout: timeout,
		history: newHistory[*schema.Message](DefaultHistoryTurns),
		logger:  l.With(applogger.String("backend", "openai")),
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Generate(ctx context.Context, req service.GenerateRequest) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	instruction := req.Instruction
	if req.Schema != nil {
		instruction += schemaInstruction(req.Schema)
	}

	msgs := make([]*schema.Message, 0, 8)
	if instruction != "" {
		msgs = append(msgs, schema.SystemMessage(instruction))
	}
	msgs = append(msgs, o.history.get(req.SessionID)...)
	user := schema.UserMessage(req.Message)
	msgs = append(msgs, user)

	out, err := o.chat.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("openai generate (%s): %w", req.Agent, err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", fmt.Errorf("openai generate (%s): empty response", req.Agent)
	}
	text := strings.TrimSpace(out.Content)

	o.history.append(req.SessionID, user, schema.AssistantMessage(text, nil))
	return text, nil
}

func (o *OpenAI) EndSession(sessionID string) {
	o.history.drop(sessionID)
	o.logger.Debug("conversation dropped", applogger.String("session", sessionID))
}

var _ service.TextGenerator = (*OpenAI)(nil)
