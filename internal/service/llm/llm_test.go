package llm

import (
	"context"
	"errors"
	"testing"

	"CryptoInsight/internal/domain/service"
	applogger "CryptoInsight/pkg/logger"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

var testSchema = &service.Schema{
	Type: service.TypeObject,
	Properties: map[string]*service.Schema{
		"type":  {Type: service.TypeString, Enum: []string{"ANALYZE", "CHAT"}},
		"items": {Type: service.TypeArray, Items: &service.Schema{Type: service.TypeNumber}},
	},
	Required: []string{"type"},
}

func textResponse(s string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(s, genai.RoleModel)}},
	}
}

func TestToGenaiSchema(t *testing.T) {
	got := toGenaiSchema(testSchema)
	require.NotNil(t, got)
	assert.Equal(t, genai.TypeObject, got.Type)
	assert.Equal(t, []string{"type"}, got.Required)
	assert.Equal(t, genai.TypeString, got.Properties["type"].Type)
	assert.Equal(t, []string{"ANALYZE", "CHAT"}, got.Properties["type"].Enum)
	assert.Equal(t, genai.TypeNumber, got.Properties["items"].Items.Type)
	assert.Nil(t, toGenaiSchema(nil))
}

func TestSchemaInstructionEmbedsSchema(t *testing.T) {
	s := schemaInstruction(testSchema)
	assert.Contains(t, s, `"enum"`)
	assert.Contains(t, s, "ANALYZE")
}

func TestGeminiStructuredRequest(t *testing.T) {
	var gotCfg *genai.GenerateContentConfig
	g := newGemini(func(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		gotCfg = cfg
		assert.Equal(t, "gemini-2.5-flash", model)
		assert.Len(t, contents, 1)
		return textResponse(`{"type":"CHAT"}`), nil
	}, "", 0, applogger.NewNop())

	out, err := g.Generate(context.Background(), service.GenerateRequest{Agent: "intent_classifier", Instruction: "classify", Message: "hi", Schema: testSchema})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"CHAT"}`, out)
	require.NotNil(t, gotCfg)
	assert.Equal(t, "application/json", gotCfg.ResponseMIMEType)
	assert.NotNil(t, gotCfg.ResponseSchema)
	assert.NotNil(t, gotCfg.SystemInstruction)
}

func TestGeminiSessionHistory(t *testing.T) {
	var lens []int
	g := newGemini(func(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		lens = append(lens, len(contents))
		return textResponse("reply"), nil
	}, "m", 0, applogger.NewNop())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := g.Generate(ctx, service.GenerateRequest{Message: "q", SessionID: "session-1"})
		require.NoError(t, err)
	}
	_, err := g.Generate(ctx, service.GenerateRequest{Message: "q"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5, 1}, lens)

	g.EndSession("session-1")
	_, err = g.Generate(ctx, service.GenerateRequest{Message: "q", SessionID: "session-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, lens[len(lens)-1])
}

func TestGeminiErrors(t *testing.T) {
	g := newGemini(func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return nil, errors.New("quota")
	}, "m", 0, applogger.NewNop())
	_, err := g.Generate(context.Background(), service.GenerateRequest{Message: "q"})
	assert.ErrorContains(t, err, "quota")

	g = newGemini(func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return textResponse("   "), nil
	}, "m", 0, applogger.NewNop())
	_, err = g.Generate(context.Background(), service.GenerateRequest{Message: "q", SessionID: "s"})
	assert.ErrorContains(t, err, "empty")
	assert.Equal(t, 0, g.history.sessions(), "failed turns are not remembered")
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "m", 0, applogger.NewNop())
	assert.Error(t, err)
}

type fakeChat struct {
	calls [][]*schema.Message
	reply string
	err   error
}

func (f *fakeChat) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func TestOpenAIStructuredAppendsSchema(t *testing.T) {
	fc := &fakeChat{reply: "```json\n{\"type\":\"CHAT\"}\n```"}
	o := newOpenAI(fc, 0, applogger.NewNop())

	out, err := o.Generate(context.Background(), service.GenerateRequest{Instruction: "classify", Message: "hello", Schema: testSchema})
	require.NoError(t, err)
	assert.Contains(t, out, `"CHAT"`)

	require.Len(t, fc.calls, 1)
	msgs := fc.calls[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "JSON schema")
	assert.Equal(t, schema.User, msgs[1].Role)
}

func TestOpenAISessionHistoryAndEnd(t *testing.T) {
	fc := &fakeChat{reply: "sure"}
	o := newOpenAI(fc, 0, applogger.NewNop())
	ctx := context.Background()

	_, _ = o.Generate(ctx, service.GenerateRequest{Instruction: "be nice", Message: "one", SessionID: "s"})
	_, _ = o.Generate(ctx, service.GenerateRequest{Instruction: "be nice", Message: "two", SessionID: "s"})
	assert.Len(t, fc.calls[1], 4)
	assert.Equal(t, schema.Assistant, fc.calls[1][2].Role)

	o.EndSession("s")
	_, _ = o.Generate(ctx, service.GenerateRequest{Instruction: "be nice", Message: "three", SessionID: "s"})
	assert.Len(t, fc.calls[2], 2)
}

func TestOpenAIError(t *testing.T) {
	o := newOpenAI(&fakeChat{err: errors.New("down")}, 0, applogger.NewNop())
	_, err := o.Generate(context.Background(), service.GenerateRequest{Message: "x"})
	assert.ErrorContains(t, err, "down")
}

func TestHistoryIsBounded(t *testing.T) {
	h := newHistory[int](3)
	h.append("a", 1, 2)
	h.append("a", 3, 4)
	assert.Equal(t, []int{2, 3, 4}, h.get("a"))
	h.append("", 9)
	assert.Nil(t, h.get(""))
	assert.Equal(t, 1, h.sessions())
}
