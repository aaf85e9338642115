package llm

import (
	"encoding/json"
	"strings"

	"CryptoInsight/internal/domain/service"

	"google.golang.org/genai"
)

var genaiTypes = map[service.SchemaType]genai.Type{
	service.TypeObject:  genai.TypeObject,
	service.TypeArray:   genai.TypeArray,
	service.TypeString:  genai.TypeString,
	service.TypeNumber:  genai.TypeNumber,
	service.TypeInteger: genai.TypeInteger,
}

// toGenaiSchema converts the neutral schema into the Gemini response schema.
func toGenaiSchema(s *service.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genaiTypes[s.Type],
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
		Items:       toGenaiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toGenaiSchema(p)
		}
	}
	return out
}

// schemaInstruction renders a schema as an instruction suffix for backends
// without native structured output.
func schemaInstruction(s *service.Schema) string {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\nRespond ONLY with a single JSON object that validates against this JSON schema. ")
	sb.WriteString("Do not add commentary.\n")
	sb.Write(b)
	return sb.String()
}
