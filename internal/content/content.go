// Package content defines the shapes exchanged between the API, the LLM
// prompts and the exporters.
package content

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// SimplifiedContent is the summary, key points and ELI5 produced for a text.
// Translations use the same shape.
type SimplifiedContent struct {
	Summary      string   `json:"summary"`
	BulletPoints []string `json:"bulletPoints"`
	ELI5         string   `json:"eli5"`
}

// KeyTerm is a difficult word with a one-sentence definition.
type KeyTerm struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Language is a supported output language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// English is the source language of every simplification.
const English = "en"

var languages = []Language{
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "it", Name: "Italian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "zh", Name: "Chinese"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
	{Code: "ar", Name: "Arabic"},
	{Code: "hi", Name: "Hindi"},
	{Code: "ru", Name: "Russian"},
}

// speechLanguages are the languages with a hosted voice.
var speechLanguages = []string{"en", "ar"}

// Languages returns every supported language, English first.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// TranslationTargets returns the languages content can be translated into.
func TranslationTargets() []Language {
	out := make([]Language, 0, len(languages)-1)
	for _, l := range languages {
		if l.Code != English {
			out = append(out, l)
		}
	}
	return out
}

// SpeechLanguages returns the language codes with text-to-speech voices.
func SpeechLanguages() []string {
	out := make([]string, len(speechLanguages))
	copy(out, speechLanguages)
	return out
}

// LookupLanguage resolves a language code or BCP 47 tag ("es-MX") to a supported language.
func LookupLanguage(code string) (Language, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Language{}, false
	}

	base := strings.ToLower(code)
	if tag, err := language.Parse(code); err == nil {
		if b, conf := tag.Base(); conf != language.No {
			base = b.String()
		}
	}

	for _, l := range languages {
		if l.Code == base {
			return l, true
		}
	}
	return Language{}, false
}

// LanguageName returns the English name for code, or English when unknown.
func LanguageName(code string) string {
	if l, ok := LookupLanguage(code); ok {
		return l.Name
	}
	return "English"
}

// IsTranslationTarget reports whether code is a supported non-English language.
func IsTranslationTarget(code string) bool {
	l, ok := LookupLanguage(code)
	return ok && l.Code != English
}

// SupportsSpeech reports whether code has a text-to-speech voice.
func SupportsSpeech(code string) bool {
	for _, c := range speechLanguages {
		if c == code {
			return true
		}
	}
	return false
}

// ReadAloudText builds the narration used for text-to-speech.
func ReadAloudText(c SimplifiedContent) string {
	return fmt.Sprintf("Summary: %s. \n\nKey points: %s. \n\nSimple explanation: %s",
		c.Summary, strings.Join(c.BulletPoints, ". "), c.ELI5)
}

// Joined concatenates every field, used for length and injection checks.
func (c SimplifiedContent) Joined() string {
	return c.Summary + " " + strings.Join(c.BulletPoints, " ") + " " + c.ELI5
}

// ExportFilename returns the download name for an export in the given language.
func ExportFilename(code, ext string) string {
	return fmt.Sprintf("simplified-content-%s.%s", strings.ToLower(LanguageName(code)), ext)
}
