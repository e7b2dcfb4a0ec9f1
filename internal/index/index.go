// Package index implements the lexical retrieval engine: a TF-IDF vector
// space over document chunks with cosine-similarity search.
package index

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"docanalyzer/internal/document"

	"github.com/rs/zerolog"
)

// Chunk is an indexed span with its retrieval identity. Immutable once added;
// owned by the index until its document is removed.
type Chunk struct {
	ID         int64
	DocumentID string
	Document   string
	Text       string
	Start      int
	End        int
	WordCount  int
}

// Result pairs a chunk with its similarity score for a query.
type Result struct {
	Chunk Chunk
	Score float64
}

// Statistics describes the current index contents.
type Statistics struct {
	TotalChunks    int
	TotalDocuments int
	VocabularySize int
	Ready          bool
	Documents      []string
}

var ErrNoChunks = errors.New("document has no usable chunks")

// NoContextMessage is returned by ContextForQuery when nothing matches.
const NoContextMessage = "No relevant context found in the uploaded documents."

// LexicalIndex maintains the vocabulary, the weighted chunk rows and the
// parallel chunk metadata. Rows and metadata always stay the same length.
// Not safe for concurrent mutation; callers serialize access.
type LexicalIndex struct {
	vec    *vectorizer
	rows   []vector
	chunks []Chunk
	nextID int64
	log    zerolog.Logger
}

func New(log zerolog.Logger) *LexicalIndex {
	return &LexicalIndex{
		vec: newVectorizer(5000),
		log: log,
	}
}

// AddDocument indexes the spans of one document. The first document fits the
// vocabulary; later documents are transformed against the existing vocabulary
// so previously assigned rows and chunk ids stay valid. Terms first seen in
// later documents are dropped — a deliberate tradeoff that avoids refitting.
// On failure nothing is mutated.
func (x *LexicalIndex) AddDocument(docID, docName string, spans []document.Span) error {
	texts := make([]string, 0, len(spans))
	kept := make([]document.Span, 0, len(spans))
	for _, s := range spans {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		texts = append(texts, s.Text)
		kept = append(kept, s)
	}
	if len(texts) == 0 {
		return ErrNoChunks
	}

	if !x.vec.fitted {
		if err := x.vec.fit(texts); err != nil {
			x.vec.reset()
			return fmt.Errorf("fit vocabulary: %w", err)
		}
	}

	rows := make([]vector, len(texts))
	for i, t := range texts {
		rows[i] = x.vec.transformVec(t)
	}

	for i, s := range kept {
		x.nextID++
		x.chunks = append(x.chunks, Chunk{
			ID:         x.nextID,
			DocumentID: docID,
			Document:   docName,
			Text:       s.Text,
			Start:      s.Start,
			End:        s.End,
			WordCount:  s.WordCount,
		})
		x.rows = append(x.rows, rows[i])
	}

	x.log.Debug().
		Str("document", docName).
		Int("chunks", len(kept)).
		Int("vocabulary", x.vec.vocabularySize()).
		Msg("document indexed")
	return nil
}

// RemoveDocument drops every chunk belonging to the document and reports
// whether anything was removed. The vocabulary is not refitted unless the
// index becomes empty, in which case the next add performs a fresh fit.
func (x *LexicalIndex) RemoveDocument(docID string) bool {
	chunks := x.chunks[:0]
	rows := x.rows[:0]
	removed := 0
	for i, c := range x.chunks {
		if c.DocumentID == docID {
			removed++
			continue
		}
		chunks = append(chunks, c)
		rows = append(rows, x.rows[i])
	}
	if removed == 0 {
		return false
	}
	x.chunks = chunks
	x.rows = rows
	if len(x.chunks) == 0 {
		x.Clear()
	}
	x.log.Debug().Str("document_id", docID).Int("removed", removed).Msg("document removed from index")
	return true
}

// Clear resets the index to its pristine state, vocabulary included.
func (x *LexicalIndex) Clear() {
	x.rows = nil
	x.chunks = nil
	x.vec.reset()
}

// Search ranks chunks by cosine similarity against the query. The query is
// transformed with the existing vocabulary and never triggers a refit. An
// empty index yields an empty result, not an error.
func (x *LexicalIndex) Search(query string, topK int, minScore float64) []Result {
	if !x.vec.fitted || strings.TrimSpace(query) == "" || topK <= 0 {
		return nil
	}
	qv := x.vec.transformVec(query)

	results := make([]Result, 0, len(x.chunks))
	for i, row := range x.rows {
		score := dot(qv, row)
		if score >= minScore && score > 0 {
			results = append(results, Result{Chunk: x.chunks[i], Score: score})
		}
	}
	// Stable sort keeps original chunk order on score ties.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// ContextForQuery assembles a bounded context string for the completion call.
// Matched chunks are prefixed with their source document; a chunk that would
// overflow the budget is truncated instead of dropped when at least 100
// characters of it fit.
func (x *LexicalIndex) ContextForQuery(query string, maxContextLength int) string {
	results := x.Search(query, 5, 0.05)
	if len(results) == 0 {
		return NoContextMessage
	}

	var parts []string
	total := 0
	for _, r := range results {
		formatted := fmt.Sprintf("[From %s]: %s", r.Chunk.Document, r.Chunk.Text)
		if total+len(formatted) > maxContextLength {
			remaining := maxContextLength - total - 20
			if remaining > 100 {
				parts = append(parts, formatted[:remaining]+"...")
			}
			break
		}
		parts = append(parts, formatted)
		total += len(formatted)
	}

	context := strings.Join(parts, "\n\n")
	return fmt.Sprintf("Relevant information from documents (confidence: %.2f):\n\n%s",
		results[0].Score, context)
}

// Statistics reports index contents for the status surface.
func (x *LexicalIndex) Statistics() Statistics {
	if !x.vec.fitted {
		return Statistics{}
	}
	// Dedupe by id, not display name; distinct documents may share a filename.
	seen := make(map[string]struct{})
	var names []string
	for _, c := range x.chunks {
		if _, ok := seen[c.DocumentID]; ok {
			continue
		}
		seen[c.DocumentID] = struct{}{}
		names = append(names, c.Document)
	}
	return Statistics{
		TotalChunks:    len(x.chunks),
		TotalDocuments: len(names),
		VocabularySize: x.vec.vocabularySize(),
		Ready:          true,
		Documents:      names,
	}
}
