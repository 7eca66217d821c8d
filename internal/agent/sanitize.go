package agent

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const (
	maxInputLength      = 4000
	maxRefinementLength = 500
)

// injectionPatterns match phrasing that tries to override the assistant's
// instructions. Matches are removed, not rejected: the rest of the message
// is usually a legitimate travel request.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(?:all\s+|any\s+)?(?:previous|prior|above|earlier)\s+(?:instructions|prompts|rules|messages)`),
	regexp.MustCompile(`(?i)disregard\s+(?:all\s+|any\s+)?(?:previous|prior|your)\s+(?:instructions|prompts|rules)`),
	regexp.MustCompile(`(?i)forget\s+(?:all\s+|everything\s+)?(?:previous|prior|your)\s+(?:instructions|rules|training)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(?:a|an|in)\b`),
	regexp.MustCompile(`(?i)(?:act|behave|respond)\s+as\s+(?:if\s+you\s+are\s+)?(?:a\s+)?(?:different|new)\s+(?:ai|assistant|persona|character)`),
	regexp.MustCompile(`(?i)reveal\s+(?:your\s+)?(?:system\s+prompt|instructions)`),
	regexp.MustCompile(`(?i)\bsystem\s*prompt\s*:`),
	regexp.MustCompile(`(?i)\bdeveloper\s+mode\b`),
	regexp.MustCompile(`(?i)\bjailbreak\b`),
}

var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

type sanitizeResult struct {
	text              string
	injectionDetected bool
	flags             []string
}

// sanitizeInput strips control characters, caps length, and removes
// instruction-override phrasing from user-supplied text.
func sanitizeInput(text string, maxLength int) sanitizeResult {
	if maxLength <= 0 {
		maxLength = maxInputLength
	}

	cleaned := controlChars.ReplaceAllString(text, "")
	if len(cleaned) > maxLength {
		cleaned = cleaned[:maxLength]
	}

	var flags []string
	for _, pattern := range injectionPatterns {
		if matches := pattern.FindAllString(cleaned, -1); len(matches) > 0 {
			flags = append(flags, matches...)
			cleaned = pattern.ReplaceAllString(cleaned, "")
		}
	}

	cleaned = strings.TrimSpace(cleaned)

	result := sanitizeResult{
		text:              cleaned,
		injectionDetected: len(flags) > 0,
		flags:             flags,
	}
	if result.injectionDetected {
		zap.L().Warn("possible prompt injection neutralized", zap.Strings("flags", result.flags))
	}
	return result
}

// wrapUserContent fences user text in XML-like tags so prompts can tell the
// model to treat it as data. Embedded closing tags are stripped first.
func wrapUserContent(text, tag string) string {
	if tag == "" {
		tag = "user_input"
	}
	text = strings.ReplaceAll(text, "</"+tag+">", "")
	text = strings.ReplaceAll(text, "<"+tag+">", "")
	return "<" + tag + ">\n" + text + "\n</" + tag + ">"
}
