// Package document holds the plain-text document model and the chunking
// logic that prepares documents for lexical indexing.
package document

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Document is an already-extracted plain-text document. File-format parsing
// (PDF, Word) happens upstream; the analyzer only ever sees text.
type Document struct {
	ID        string
	Name      string
	Text      string
	WordCount int
	CharCount int
}

// New cleans the raw text and wraps it with a fresh identity.
func New(name, rawText string) Document {
	text := CleanText(rawText)
	return Document{
		ID:        uuid.NewString(),
		Name:      name,
		Text:      text,
		WordCount: len(strings.Fields(text)),
		CharCount: len(text),
	}
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	specialChars  = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:()\-'"]+`)
)

// CleanText normalizes extracted text: whitespace runs collapse to a single
// space and anything that is not a letter, digit or basic punctuation is
// dropped. Letters and digits of any script are kept.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = specialChars.ReplaceAllString(text, " ")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
