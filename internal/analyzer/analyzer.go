// Package analyzer wires chunking, lexical retrieval, persistence and the AI
// gateway into the document analysis service the CLI drives.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docanalyzer/internal/ai"
	"docanalyzer/internal/config"
	"docanalyzer/internal/document"
	"docanalyzer/internal/index"
	"docanalyzer/internal/mindmap"
	"docanalyzer/internal/storage"

	"github.com/rs/zerolog"
)

var (
	ErrNoDocuments   = errors.New("no documents have been added")
	ErrEmptyDocument = errors.New("document contains no usable text")
)

// chatHistoryLimit is how many persisted turns are replayed into a question.
const chatHistoryLimit = 6

// Service owns the in-memory retrieval state and its persisted mirror. All
// mutations go through the store first so a crash never loses documents; the
// index is rebuilt from the store on startup via Restore.
type Service struct {
	chunker   *document.Chunker
	index     *index.LexicalIndex
	assistant *ai.Assistant
	builder   *mindmap.Builder
	store     storage.Store
	log       zerolog.Logger

	topK       int
	minScore   float64
	maxContext int
}

func New(cfg *config.Config, gateway ai.Gateway, store storage.Store, log zerolog.Logger) *Service {
	return &Service{
		chunker:    document.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap),
		index:      index.New(log),
		assistant:  ai.NewAssistant(gateway, cfg.AI.Personality),
		builder:    mindmap.NewBuilder(gateway, log),
		store:      store,
		log:        log,
		topK:       cfg.Retrieval.TopK,
		minScore:   cfg.Retrieval.MinScore,
		maxContext: cfg.Retrieval.MaxContextLength,
	}
}

// OnProgress forwards mind map generation progress to fn.
func (s *Service) OnProgress(fn mindmap.ProgressFunc) {
	s.builder.OnProgress(fn)
}

// Restore rebuilds the lexical index from the persisted documents.
func (s *Service) Restore(ctx context.Context) error {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	s.index.Clear()
	for _, doc := range docs {
		spans := s.chunker.Chunk(doc.Text)
		if err := s.index.AddDocument(doc.ID, doc.Name, spans); err != nil {
			s.log.Warn().Err(err).Str("document", doc.Name).Msg("skipping document during restore")
		}
	}
	return nil
}

// AddDocument cleans, chunks, indexes and persists one document. Adding a
// document invalidates the analysis cache since cached results describe a
// different document set.
func (s *Service) AddDocument(ctx context.Context, name, rawText string) (storage.DocumentRecord, error) {
	doc := document.New(name, rawText)
	if strings.TrimSpace(doc.Text) == "" {
		return storage.DocumentRecord{}, ErrEmptyDocument
	}

	spans := s.chunker.Chunk(doc.Text)
	if err := s.index.AddDocument(doc.ID, doc.Name, spans); err != nil {
		return storage.DocumentRecord{}, fmt.Errorf("failed to index document: %w", err)
	}

	record := storage.DocumentRecord{
		ID:        doc.ID,
		Name:      doc.Name,
		Text:      doc.Text,
		WordCount: doc.WordCount,
		CharCount: doc.CharCount,
	}
	if err := s.store.SaveDocument(ctx, record); err != nil {
		s.index.RemoveDocument(doc.ID)
		return storage.DocumentRecord{}, fmt.Errorf("failed to persist document: %w", err)
	}
	if err := s.store.ClearAnalyses(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate analysis cache")
	}

	s.log.Info().Str("document", doc.Name).Int("chunks", len(spans)).Msg("document added")
	return record, nil
}

// RemoveDocument drops a document from the store and the index. Reports
// whether the document existed.
func (s *Service) RemoveDocument(ctx context.Context, id string) (bool, error) {
	existed, err := s.store.DeleteDocument(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}
	s.index.RemoveDocument(id)
	if existed {
		if err := s.store.ClearAnalyses(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to invalidate analysis cache")
		}
	}
	return existed, nil
}

// Search returns the most relevant chunks for a query, bounded by the
// configured top-k and score floor.
func (s *Service) Search(query string) []index.Result {
	return s.index.Search(query, s.topK, s.minScore)
}

// Ask answers a question against the indexed documents, replaying recent
// conversation turns. Both sides of the exchange are persisted.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	if s.index.Statistics().TotalDocuments == 0 {
		return "", ErrNoDocuments
	}

	docContext := s.index.ContextForQuery(question, s.maxContext)

	var history []ai.Message
	msgs, err := s.store.RecentMessages(ctx, chatHistoryLimit)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load chat history")
	}
	for _, m := range msgs {
		history = append(history, ai.Message{Role: m.Role, Content: m.Content})
	}

	answer, err := s.assistant.ChatWithDocument(ctx, question, docContext, history)
	if err != nil {
		return "", err
	}

	if err := s.store.AppendMessage(ctx, "user", question); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist question")
	}
	if err := s.store.AppendMessage(ctx, "assistant", answer); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist answer")
	}
	return answer, nil
}

// ClearHistory drops the persisted conversation so the next question starts
// without prior context.
func (s *Service) ClearHistory(ctx context.Context) error {
	return s.store.ClearMessages(ctx)
}

// Analyze runs a canned analysis over the whole document set. Results are
// cached per (document set, analysis type, personality); cached reports
// whether the answer came from the cache.
func (s *Service) Analyze(ctx context.Context, analysisType string) (result string, cached bool, err error) {
	if !ai.ValidAnalysisType(analysisType) {
		return "", false, fmt.Errorf("unknown analysis type: %s", analysisType)
	}

	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		return "", false, ErrNoDocuments
	}

	ids := make([]string, 0, len(docs))
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
		texts = append(texts, doc.Text)
	}
	hash := storage.DocumentSetHash(ids)
	personality := s.assistant.Personality().Key

	prior, ok, lookupErr := s.store.CachedAnalysis(ctx, hash, analysisType, personality)
	if lookupErr != nil {
		s.log.Warn().Err(lookupErr).Msg("failed to read analysis cache")
	} else if ok {
		s.log.Debug().Str("type", analysisType).Msg("analysis served from cache")
		return prior, true, nil
	}

	result, err = s.assistant.AnalyzeDocument(ctx, strings.Join(texts, "\n\n"), analysisType)
	if err != nil {
		return "", false, err
	}
	if err := s.store.SaveAnalysis(ctx, hash, analysisType, personality, result); err != nil {
		s.log.Warn().Err(err).Msg("failed to cache analysis")
	}
	return result, false, nil
}

// GenerateMindMap builds a validated outline over all indexed documents.
func (s *Service) GenerateMindMap(ctx context.Context) (*mindmap.Outline, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	titles := make([]string, 0, len(docs))
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		titles = append(titles, doc.Name)
		texts = append(texts, doc.Text)
	}
	return s.builder.Generate(ctx, strings.Join(texts, "\n\n"), titles)
}

// ExportMindMap renders an outline in the requested format.
func (s *Service) ExportMindMap(o *mindmap.Outline, format string) (string, error) {
	switch format {
	case "mermaid":
		return mindmap.ToMermaid(o), nil
	case "markdown", "md":
		return mindmap.ToMarkdown(o), nil
	default:
		return "", fmt.Errorf("unknown export format: %s (want mermaid or markdown)", format)
	}
}

// Statistics reports the current retrieval index state.
func (s *Service) Statistics() index.Statistics {
	return s.index.Statistics()
}
