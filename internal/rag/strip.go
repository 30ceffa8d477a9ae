package rag

import (
	"regexp"
	"strings"
)

var (
	parentheticalRef = regexp.MustCompile(`(?i)\(\s*ref:\s*\[\s*\d+\s*\]\s*\)`)
	bracketedRef     = regexp.MustCompile(`\[\s*\d+\s*\]`)
	extraWhitespace  = regexp.MustCompile(`\s{2,}`)
)

// StripReferences removes citation artifacts the chat model tends to emit
// despite the prompt asking it not to: "(ref: [1])" parentheticals, bare
// "[1]" markers, and the doubled whitespace they leave behind.
func StripReferences(text string) string {
	text = parentheticalRef.ReplaceAllString(text, "")
	text = bracketedRef.ReplaceAllString(text, "")
	text = extraWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
