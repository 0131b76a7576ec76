package model

import (
	"regexp"
	"strings"
)

// UnknownModel is used when no model name is available
const UnknownModel = "unknown"

// parenQualifier matches "(preview)" style qualifiers, ASCII or full-width
var parenQualifier = regexp.MustCompile(`\s*[(（][^)）]*[)）]\s*`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeName canonicalizes a raw model identifier.
// "gpt-4o (preview): v2" -> "gpt-4o:v2", "" -> "unknown", "x:  " -> "x"
func NormalizeName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return UnknownModel
	}

	head, tail, hasTail := strings.Cut(name, ":")
	head = parenQualifier.ReplaceAllString(head, " ")
	head = strings.TrimSpace(whitespaceRun.ReplaceAllString(head, " "))
	if head == "" {
		head = UnknownModel
	}
	if !hasTail {
		return head
	}

	tail = strings.TrimSpace(tail)
	if tail == "" {
		return head
	}
	return head + ":" + tail
}
