package guard

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxSanitizedLength caps extracted document text.
const MaxSanitizedLength = 100000

var (
	scriptRe     = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	jsProtocolRe = regexp.MustCompile(`(?i)javascript:`)
	handlerRe    = regexp.MustCompile(`(?i)on\w+\s*=`)
	controlRe    = regexp.MustCompile(`[\x00-\x1F\x7F-\x9F]`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// SanitizeText strips markup and control characters from extracted text and
// collapses it to a single line of at most MaxSanitizedLength code points.
func SanitizeText(text string) string {
	text = norm.NFC.String(text)
	text = scriptRe.ReplaceAllString(text, "")
	text = tagRe.ReplaceAllString(text, "")
	text = jsProtocolRe.ReplaceAllString(text, "")
	text = handlerRe.ReplaceAllString(text, "")
	// Line breaks become spaces before control characters are dropped so words stay apart.
	text = spaceRe.ReplaceAllString(text, " ")
	text = controlRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) > MaxSanitizedLength {
		text = string(runes[:MaxSanitizedLength])
	}
	return text
}
