package document

import "strings"

// Span is a bounded slice of a document's text, the unit of retrieval.
// Offsets are byte positions into the cleaned text.
type Span struct {
	Text      string
	Start     int
	End       int
	WordCount int
}

// sentenceLookback bounds how far Chunk searches backwards from the hard
// boundary for a sentence terminator before giving up and cutting mid-text.
const sentenceLookback = 100

// Chunker splits cleaned text into overlapping, sentence-boundary-aware spans.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk is a pure function over the input text. Empty and whitespace-only
// spans are dropped. Each span starts strictly after the previous one, so the
// loop always terminates regardless of size/overlap combinations.
func (c *Chunker) Chunk(text string) []Span {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	step := c.size - c.overlap
	if step < 1 {
		step = 1
	}

	var spans []Span
	start := 0
	lastStart := -1
	for start < len(text) {
		end := start + c.size
		if end >= len(text) {
			end = len(text)
		} else {
			// Prefer the nearest sentence terminator before the hard boundary.
			limit := end - sentenceLookback
			if limit < start {
				limit = start
			}
			for i := end - 1; i > limit; i-- {
				if text[i] == '.' || text[i] == '!' || text[i] == '?' {
					end = i + 1
					break
				}
			}
		}

		// Trimming can collapse different raw starts onto the same offset;
		// only emit spans that advance past the previous one.
		if span, ok := trimSpan(text, start, end); ok && span.Start > lastStart {
			spans = append(spans, span)
			lastStart = span.Start
		}

		next := start + step
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return spans
}

// trimSpan shrinks [start,end) to its non-whitespace core and reports whether
// anything remains.
func trimSpan(text string, start, end int) (Span, bool) {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	if start >= end {
		return Span{}, false
	}
	spanText := text[start:end]
	return Span{
		Text:      spanText,
		Start:     start,
		End:       end,
		WordCount: len(strings.Fields(spanText)),
	}, true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
