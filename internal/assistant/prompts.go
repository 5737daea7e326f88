package assistant

import (
	"fmt"
	"strings"

	"github.com/pep299/clarify/internal/content"
	"github.com/pep299/clarify/internal/llm"
)

const (
	simplifyMaxTokens  = 3000
	translateMaxTokens = 3000
	explainMaxTokens   = 1500

	minBulletPoints = 3
	maxBulletPoints = 7
	minKeyTerms     = 3
	maxKeyTerms     = 10
)

const simplifySystemPrompt = `You are a world-class accessibility assistant that helps students with learning differences like ADHD and dyslexia understand complex topics.

Your goal is to reduce cognitive load by transforming complex text into clear, focused content that is simple and easy to understand.

Please provide:
1. A concise summary (2-4 sentences capturing the main ideas)
2. Key bullet points (3-7 points highlighting the most important information)
3. An ELI5 (Explain Like I'm 5) version using simple, everyday language

Be clear, direct, and remove unnecessary complexity while preserving the core meaning. Keep outputs reasonably concise for text-to-speech compatibility (aim for under 8,000 characters total when possible).`

const translateSystemPrompt = `You are a professional translator specializing in accessibility content.

Your task is to translate simplified content while maintaining the same clarity and simplicity.

Instructions:
- Translate all three sections (Summary, Key Points, ELI5) into the target language
- Keep the same structure and level of simplicity
- Maintain accessibility-friendly language
- Preserve the meaning and tone
- Aim to keep similar length to the original
%s
Keep translations clear and concise for text-to-speech compatibility (aim for under 8,000 characters total when possible).`

const rtlInstruction = "- For Arabic, ensure proper right-to-left text formatting\n"

const explainSystemPrompt = `You are an accessibility assistant helping students with learning differences like ADHD and dyslexia.

Your task is to identify the most important complex or specialized terms from educational text that a student might struggle with, and provide simple, clear definitions.

Instructions:
1. Identify 3-10 key terms that are complex, technical, or specialized
2. Focus on terms that would break a student's focus if they had to look them up
3. Provide definitions that are:
   - One sentence long
   - Use simple, everyday language
   - Assume no prior knowledge
   - Help maintain reading flow
4. Both the term and its definition MUST be in the target language
5. Return the terms in order of importance (most critical first)`

func simplifiedSchema(bulletDescription string, minItems, maxItems int) *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"summary": {Type: llm.TypeString, Description: "A concise 2-3 sentence summary of the main ideas"},
			"bulletPoints": {
				Type:        llm.TypeArray,
				Description: bulletDescription,
				Items:       &llm.Schema{Type: llm.TypeString},
				MinItems:    minItems,
				MaxItems:    maxItems,
			},
			"eli5": {Type: llm.TypeString, Description: `An "Explain Like I'm 5" version - simple language that anyone can understand`},
		},
		Required: []string{"summary", "bulletPoints", "eli5"},
	}
}

var (
	simplifySchema  = simplifiedSchema("Key bullet points highlighting the most important information", minBulletPoints, maxBulletPoints)
	translateSchema = simplifiedSchema("Translated bullet points", 0, 0)

	keyTermsSchema = &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"terms": {
				Type:        llm.TypeArray,
				Description: "The most important complex terms that students might not understand",
				MinItems:    minKeyTerms,
				MaxItems:    maxKeyTerms,
				Items: &llm.Schema{
					Type: llm.TypeObject,
					Properties: map[string]*llm.Schema{
						"term":       {Type: llm.TypeString, Description: "A complex or specialized term from the text"},
						"definition": {Type: llm.TypeString, Description: "A simple, student-friendly definition in one sentence"},
					},
					Required: []string{"term", "definition"},
				},
			},
		},
		Required: []string{"terms"},
	}
)

func simplifyRequest(text string) llm.Request {
	return llm.Request{
		System:          simplifySystemPrompt,
		Prompt:          "Text to simplify:\n" + text,
		Schema:          simplifySchema,
		MaxOutputTokens: simplifyMaxTokens,
	}
}

func translateRequest(c *content.SimplifiedContent, lang string) llm.Request {
	rtl := ""
	if lang == "ar" {
		rtl = rtlInstruction
	}

	points := make([]string, len(c.BulletPoints))
	for i, point := range c.BulletPoints {
		points[i] = fmt.Sprintf("%d. %s", i+1, point)
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Target Language: %s\n\n", content.LanguageName(lang))
	prompt.WriteString("Original content to translate:\n")
	fmt.Fprintf(&prompt, "Summary: %s\n\n", c.Summary)
	fmt.Fprintf(&prompt, "Key Points:\n%s\n\n", strings.Join(points, "\n"))
	fmt.Fprintf(&prompt, "ELI5: %s", c.ELI5)

	return llm.Request{
		System:          fmt.Sprintf(translateSystemPrompt, rtl),
		Prompt:          prompt.String(),
		Schema:          translateSchema,
		MaxOutputTokens: translateMaxTokens,
	}
}

func explainRequest(c *content.SimplifiedContent, originalText, lang string) llm.Request {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Target Language: %s\n\n", content.LanguageName(lang))
	fmt.Fprintf(&prompt, "Original text:\n%s\n\n", originalText)
	prompt.WriteString("Simplified content:\n")
	fmt.Fprintf(&prompt, "Summary: %s\n", c.Summary)
	fmt.Fprintf(&prompt, "Key Points: %s\n", strings.Join(c.BulletPoints, ". "))
	fmt.Fprintf(&prompt, "ELI5: %s", c.ELI5)

	return llm.Request{
		System:          explainSystemPrompt,
		Prompt:          prompt.String(),
		Schema:          keyTermsSchema,
		MaxOutputTokens: explainMaxTokens,
	}
}
