// Package assistant turns source text into simplified, translated and
// glossed content using a language model.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pep299/clarify/internal/cache"
	"github.com/pep299/clarify/internal/content"
	"github.com/pep299/clarify/internal/guard"
	"github.com/pep299/clarify/internal/llm"
	"github.com/pep299/clarify/internal/logger"
)

// Cache operation names
const (
	OpSimplify     = "simplify"
	OpTranslate    = "translate"
	OpExplainTerms = "explain-terms"
)

// ErrInvalidOutput is returned when the model answers with JSON that does not
// satisfy the expected shape.
var ErrInvalidOutput = errors.New("model returned invalid output")

// Service runs the three content operations.
type Service struct {
	generator llm.Generator
	cache     *cache.Manager
	logger    logger.Logger
}

// New creates a Service. cache may be nil to disable result caching.
func New(generator llm.Generator, cacheManager *cache.Manager, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		generator: generator,
		cache:     cacheManager,
		logger:    log,
	}
}

// Simplify produces a summary, key points and an ELI5 explanation of text.
func (s *Service) Simplify(ctx context.Context, text string) (*content.SimplifiedContent, error) {
	if err := guard.ValidateSimplifyInput(text); err != nil {
		return nil, err
	}

	key := cache.GenerateKey(OpSimplify, text)
	var result content.SimplifiedContent
	if s.lookup(ctx, key, &result) {
		return &result, nil
	}

	if err := s.generate(ctx, simplifyRequest(text), &result); err != nil {
		return nil, fmt.Errorf("simplifying text: %w", err)
	}
	if err := checkSimplified(&result, minBulletPoints, maxBulletPoints); err != nil {
		return nil, err
	}

	s.store(ctx, OpSimplify, key, &result)
	return &result, nil
}

// Translate renders simplified content in the target language.
func (s *Service) Translate(ctx context.Context, c *content.SimplifiedContent, lang string) (*content.SimplifiedContent, error) {
	if err := guard.ValidateTranslateInput(c, lang); err != nil {
		return nil, err
	}
	// Tags such as "ar-SA" share the base language's prompt and cache entry.
	l, _ := content.LookupLanguage(lang)
	lang = l.Code

	key := cache.GenerateKey(OpTranslate, lang, fingerprint(c))
	var result content.SimplifiedContent
	if s.lookup(ctx, key, &result) {
		return &result, nil
	}

	if err := s.generate(ctx, translateRequest(c, lang), &result); err != nil {
		return nil, fmt.Errorf("translating content: %w", err)
	}
	if err := checkSimplified(&result, 1, guard.MaxBulletPoints); err != nil {
		return nil, err
	}

	s.store(ctx, OpTranslate, key, &result)
	return &result, nil
}

// ExplainTerms picks the hardest terms in the content and defines them in
// lang. Unknown languages fall back to English.
func (s *Service) ExplainTerms(ctx context.Context, c *content.SimplifiedContent, originalText, lang string) ([]content.KeyTerm, error) {
	if err := guard.ValidateExplainInput(c, originalText); err != nil {
		return nil, err
	}
	if l, ok := content.LookupLanguage(lang); ok {
		lang = l.Code
	} else {
		lang = content.English
	}

	key := cache.GenerateKey(OpExplainTerms, lang, fingerprint(c), originalText)
	var terms []content.KeyTerm
	if s.lookup(ctx, key, &terms) {
		return terms, nil
	}

	var out struct {
		Terms []content.KeyTerm `json:"terms"`
	}
	if err := s.generate(ctx, explainRequest(c, originalText, lang), &out); err != nil {
		return nil, fmt.Errorf("explaining terms: %w", err)
	}

	terms, err := checkTerms(out.Terms)
	if err != nil {
		return nil, err
	}

	s.store(ctx, OpExplainTerms, key, terms)
	return terms, nil
}

func (s *Service) generate(ctx context.Context, req llm.Request, v interface{}) error {
	raw, err := s.generator.Generate(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, key string, v interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.GetJSON(ctx, key, v)
	if err == nil {
		s.logger.Debug(ctx, "cache hit: %s", key)
		return true
	}
	if !cache.IsMiss(err) {
		s.logger.Warn(ctx, "cache read failed for %s: %v", key, err)
	}
	return false
}

func (s *Service) store(ctx context.Context, op, key string, v interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, op, key, v); err != nil {
		s.logger.Warn(ctx, "cache write failed for %s: %v", key, err)
	}
}

// checkSimplified trims the fields in place and enforces the bullet bounds.
// Extra bullets are dropped rather than rejected.
func checkSimplified(c *content.SimplifiedContent, minBullets, maxBullets int) error {
	c.Summary = strings.TrimSpace(c.Summary)
	c.ELI5 = strings.TrimSpace(c.ELI5)
	if c.Summary == "" || c.ELI5 == "" {
		return fmt.Errorf("%w: missing summary or eli5", ErrInvalidOutput)
	}

	points := make([]string, 0, len(c.BulletPoints))
	for _, point := range c.BulletPoints {
		if point = strings.TrimSpace(point); point != "" {
			points = append(points, point)
		}
	}
	if len(points) < minBullets {
		return fmt.Errorf("%w: %d bullet points", ErrInvalidOutput, len(points))
	}
	if len(points) > maxBullets {
		points = points[:maxBullets]
	}
	c.BulletPoints = points
	return nil
}

func checkTerms(terms []content.KeyTerm) ([]content.KeyTerm, error) {
	out := make([]content.KeyTerm, 0, len(terms))
	for _, t := range terms {
		t.Term = strings.TrimSpace(t.Term)
		t.Definition = strings.TrimSpace(t.Definition)
		if t.Term == "" || t.Definition == "" {
			continue
		}
		out = append(out, t)
	}
	if len(out) < minKeyTerms {
		return nil, fmt.Errorf("%w: %d key terms", ErrInvalidOutput, len(out))
	}
	if len(out) > maxKeyTerms {
		out = out[:maxKeyTerms]
	}
	return out, nil
}

// fingerprint is a stable encoding of content for cache keys.
func fingerprint(c *content.SimplifiedContent) string {
	data, _ := json.Marshal(c)
	return string(data)
}
