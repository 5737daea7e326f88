package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// Groq implements Generator using Groq's OpenAI-compatible Chat Completions API
// in JSON mode.
type Groq struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGroq returns a Generator that uses the Groq API with the given API key and model.
func NewGroq(apiKey, model string) *Groq {
	return &Groq{
		apiKey:  apiKey,
		model:   model,
		baseURL: groqBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithBaseURL points the client at another OpenAI-compatible endpoint.
func (c *Groq) WithBaseURL(baseURL string) *Groq {
	c.baseURL = baseURL
	return c
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Generate sends system and user messages to Groq and returns the JSON reply.
func (c *Groq) Generate(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("groq: API key not set")
	}

	system := req.System
	if req.Schema != nil {
		system += "\n\nRespond with a single JSON object that matches this JSON schema:\n" + req.Schema.String()
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: req.Prompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		MaxTokens:      req.MaxOutputTokens,
		Temperature:    0.3,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", &APIError{Provider: "groq", StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("groq: %w", ErrNoContent)
	}

	return ExtractJSON(out.Choices[0].Message.Content)
}
