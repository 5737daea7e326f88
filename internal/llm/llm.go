// Package llm talks to hosted language models that return JSON shaped by a schema.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Generator produces a JSON document for a system prompt and a user prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is a single schema-constrained generation.
type Request struct {
	System          string
	Prompt          string
	Schema          *Schema
	MaxOutputTokens int
}

// Schema types
const (
	TypeObject = "object"
	TypeArray  = "array"
	TypeString = "string"
)

// Schema is the subset of JSON Schema the prompts need.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	MinItems    int                `json:"minItems,omitempty"`
	MaxItems    int                `json:"maxItems,omitempty"`
}

// String renders the schema as indented JSON for inclusion in prompts.
func (s *Schema) String() string {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// APIError is a non-2xx answer from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API request failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// ErrNoContent is returned when a provider answers without any text.
var ErrNoContent = errors.New("no content in response")

// ExtractJSON returns the outermost JSON object in text, tolerating code fences
// and surrounding prose.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}") + 1
	if start == -1 || end <= start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return text[start:end], nil
}
