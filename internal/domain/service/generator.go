package service

import "context"

// SchemaType is the JSON type of a schema node.
type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
)

// Schema is a backend-neutral description of the expected structured output.
type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// GenerateRequest is one call to a text-generation backend.
type GenerateRequest struct {
	Agent       string
	Instruction string
	Message     string
	// Schema, when set, asks the backend for JSON matching it.
	Schema *Schema
	// SessionID binds the call to a conversation; empty means stateless.
	SessionID string
}

// TextGenerator is a text-generation backend.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// EndSession drops any conversation memory held for the token.
	EndSession(sessionID string)
	Name() string
}
