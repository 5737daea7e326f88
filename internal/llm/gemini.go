package llm

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

// Gemini implements Generator with the Gemini API's native response schemas.
type Gemini struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

// NewGemini returns a Generator for the given Gemini API key and model.
func NewGemini(apiKey, model string) *Gemini {
	return &Gemini{
		apiKey: apiKey,
		model:  model,
	}
}

// sdk returns the shared SDK client, creating it on first use.
func (c *Gemini) sdk(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	c.client = client
	return client, nil
}

// Generate calls GenerateContent with a JSON response schema.
func (c *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	client, err := c.sdk(ctx)
	if err != nil {
		return "", err
	}

	temperature := float32(0.3)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    toGenaiSchema(req.Schema),
		Temperature:       &temperature,
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}

	result, err := client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: %w", ErrNoContent)
	}

	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("gemini: %w", ErrNoContent)
	}

	return ExtractJSON(text)
}

// toGenaiSchema converts a Schema into the SDK representation.
func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
	}

	switch s.Type {
	case TypeObject:
		out.Type = genai.TypeObject
	case TypeArray:
		out.Type = genai.TypeArray
	default:
		out.Type = genai.TypeString
	}

	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
		// Keep field order stable in the model's output.
		out.PropertyOrdering = s.Required
	}
	if s.Items != nil {
		out.Items = toGenaiSchema(s.Items)
	}
	if s.MinItems > 0 {
		out.MinItems = int64Ptr(int64(s.MinItems))
	}
	if s.MaxItems > 0 {
		out.MaxItems = int64Ptr(int64(s.MaxItems))
	}
	return out
}

func int64Ptr(v int64) *int64 {
	return &v
}
