// Package speech synthesizes narration audio through Groq's speech endpoint.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pep299/clarify/internal/content"
	"github.com/pep299/clarify/internal/guard"
	"github.com/pep299/clarify/internal/llm"
)

const (
	groqBaseURL = "https://api.groq.com/openai/v1"

	// ContentType of the audio Speak returns.
	ContentType = "audio/mpeg"
)

// Voice selects the provider model and voice for one language.
type Voice struct {
	Model string
	Voice string
}

// DefaultVoices returns the voices for every supported narration language.
func DefaultVoices() map[string]Voice {
	return map[string]Voice{
		"en": {Model: "playai-tts", Voice: "Celeste-PlayAI"},
		"ar": {Model: "playai-tts-arabic", Voice: "Khalid-PlayAI"},
	}
}

// Audio is a synthesized clip.
type Audio struct {
	Data        []byte
	ContentType string
}

// Speaker converts text to speech.
type Speaker struct {
	apiKey     string
	baseURL    string
	voices     map[string]Voice
	httpClient *http.Client
}

// NewSpeaker creates a Speaker. A nil voices map uses DefaultVoices.
func NewSpeaker(apiKey string, voices map[string]Voice) *Speaker {
	if voices == nil {
		voices = DefaultVoices()
	}
	return &Speaker{
		apiKey:  apiKey,
		baseURL: groqBaseURL,
		voices:  voices,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithBaseURL points the speaker at another OpenAI-compatible endpoint.
func (s *Speaker) WithBaseURL(baseURL string) *Speaker {
	s.baseURL = baseURL
	return s
}

type speechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

// Speak validates text and returns MP3 audio. An empty lang means English.
// Provider rejections come back as *llm.APIError.
func (s *Speaker) Speak(ctx context.Context, text, lang string) (*Audio, error) {
	if lang == "" {
		lang = content.English
	}
	if err := guard.ValidateSpeechInput(text, lang); err != nil {
		return nil, err
	}
	if s.apiKey == "" {
		return nil, fmt.Errorf("speech: API key not set")
	}

	voice, ok := s.voices[lang]
	if !ok {
		return nil, fmt.Errorf("speech: no voice configured for %s", lang)
	}

	body, err := json.Marshal(speechRequest{
		Model:          voice.Model,
		Voice:          voice.Voice,
		Input:          text,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &llm.APIError{Provider: "groq", StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	return &Audio{Data: data, ContentType: ContentType}, nil
}

// NeedsBrowserFallback reports whether err is the provider refusing service
// until its terms are accepted. Clients should narrate locally instead.
func NeedsBrowserFallback(err error) bool {
	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Body), "terms acceptance")
}
