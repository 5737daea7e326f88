// Package guard validates text before it reaches a model and screens it for
// prompt-injection phrasing.
package guard

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pep299/clarify/internal/content"
)

// Input limits, counted in code points.
const (
	MinSimplifyLength   = 100
	MaxSimplifyLength   = 150000
	MaxSummaryLength    = 10000
	MaxELI5Length       = 10000
	MaxBulletPoints     = 20
	MaxBulletLength     = 1000
	MaxSpeechLength     = 10000
	MaxOriginalTextSize = MaxSimplifyLength
)

// ValidationError is returned when caller input is rejected.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

var (
	ignorePattern    = regexp.MustCompile(`(?i)ignore\s+(previous|above|all)\s+(instructions?|prompts?|rules?)`)
	disregardPattern = regexp.MustCompile(`(?i)disregard\s+(previous|above|all)\s+(instructions?|prompts?|rules?)`)
	forgetPattern    = regexp.MustCompile(`(?i)forget\s+(previous|above|all)\s+(instructions?|prompts?|rules?)`)
	systemPattern    = regexp.MustCompile(`(?i)system\s*:\s*`)
	assistantPattern = regexp.MustCompile(`(?i)assistant\s*:\s*`)
	userPattern      = regexp.MustCompile(`(?i)user\s*:\s*`)
	imStartPattern   = regexp.MustCompile(`(?i)<\|im_start\|>`)
	imEndPattern     = regexp.MustCompile(`(?i)<\|im_end\|>`)
	headerPattern    = regexp.MustCompile(`(?i)###\s*instruction`)
	youAreNowPattern = regexp.MustCompile(`(?i)you\s+are\s+now`)
	pretendPattern   = regexp.MustCompile(`(?i)pretend\s+to\s+be`)
	actAsPattern     = regexp.MustCompile(`(?i)act\s+as\s+a`)
)

// PatternSet is a group of injection heuristics.
type PatternSet []*regexp.Regexp

var (
	// FullPatterns screen raw text submitted for simplification.
	FullPatterns = PatternSet{
		ignorePattern, disregardPattern, forgetPattern,
		systemPattern, assistantPattern, userPattern,
		imStartPattern, imEndPattern, headerPattern,
		youAreNowPattern, pretendPattern, actAsPattern,
	}

	// TranslatePatterns screen model-produced content sent back for translation.
	TranslatePatterns = PatternSet{
		ignorePattern, disregardPattern,
		systemPattern, assistantPattern, imStartPattern,
	}

	// SpeechPatterns screen narration text.
	SpeechPatterns = PatternSet{
		ignorePattern, systemPattern, assistantPattern,
	}
)

// Detect reports whether any pattern in the set matches text.
func (s PatternSet) Detect(text string) bool {
	for _, p := range s {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// DetectPromptInjection checks text against the full pattern set.
func DetectPromptInjection(text string) bool {
	return FullPatterns.Detect(text)
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}

// ValidateSimplifyInput checks raw text before simplification.
func ValidateSimplifyInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return invalid("Valid text is required")
	}
	if length(text) < MinSimplifyLength {
		return invalid("Text must be at least %d characters", MinSimplifyLength)
	}
	if length(text) > MaxSimplifyLength {
		return invalid("Text exceeds maximum length of %d characters", MaxSimplifyLength)
	}
	if FullPatterns.Detect(text) {
		return invalid("Invalid input detected. Please provide educational content only.")
	}
	return nil
}

// ValidateContent checks the shape limits of simplified or translated content.
func ValidateContent(c *content.SimplifiedContent) error {
	if c == nil {
		return invalid("Invalid content format")
	}
	if length(c.Summary) > MaxSummaryLength || length(c.ELI5) > MaxELI5Length {
		return invalid("Invalid content format")
	}
	if c.BulletPoints == nil || len(c.BulletPoints) > MaxBulletPoints {
		return invalid("Invalid content format")
	}
	for _, point := range c.BulletPoints {
		if length(point) > MaxBulletLength {
			return invalid("Invalid content format")
		}
	}
	return nil
}

// ValidateTranslateInput checks a translation request.
func ValidateTranslateInput(c *content.SimplifiedContent, targetLanguage string) error {
	if c == nil || strings.TrimSpace(targetLanguage) == "" {
		return invalid("Content and target language are required")
	}
	if err := ValidateContent(c); err != nil {
		return err
	}
	if !content.IsTranslationTarget(targetLanguage) {
		return invalid("Unsupported language")
	}
	if TranslatePatterns.Detect(c.Joined()) {
		return invalid("Invalid input detected")
	}
	return nil
}

// ValidateExplainInput checks a key-term request. The original text is optional.
func ValidateExplainInput(c *content.SimplifiedContent, originalText string) error {
	if c == nil {
		return invalid("No content provided")
	}
	if err := ValidateContent(c); err != nil {
		return err
	}
	if length(originalText) > MaxOriginalTextSize {
		return invalid("Text exceeds maximum length of %d characters", MaxOriginalTextSize)
	}
	if TranslatePatterns.Detect(c.Joined()) || FullPatterns.Detect(originalText) {
		return invalid("Invalid input detected")
	}
	return nil
}

// ValidateSpeechInput checks narration text and language.
func ValidateSpeechInput(text, lang string) error {
	if text == "" {
		return invalid("Valid text is required")
	}
	if length(text) > MaxSpeechLength {
		return invalid("Text exceeds maximum length of %d characters", MaxSpeechLength)
	}
	if !content.SupportsSpeech(lang) {
		return invalid("Unsupported language for TTS")
	}
	if SpeechPatterns.Detect(text) {
		return invalid("Invalid input detected")
	}
	return nil
}
