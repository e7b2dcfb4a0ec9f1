package storage

import (
	"context"
	"time"
)

// DocumentRecord is the persisted form of one uploaded document. The cleaned
// text is kept so the in-memory lexical index can be rebuilt on startup.
type DocumentRecord struct {
	ID        string
	Name      string
	Text      string
	WordCount int
	CharCount int
	AddedAt   time.Time
}

// ChatMessage is one turn of the document conversation.
type ChatMessage struct {
	ID        int64
	Role      string
	Content   string
	CreatedAt time.Time
}

// Store combines document, chat and analysis-cache persistence.
type Store interface {
	DocumentStore
	ChatStore
	AnalysisCache
	Close() error
}

// DocumentStore persists uploaded document metadata.
type DocumentStore interface {
	// SaveDocument upserts a document record.
	SaveDocument(ctx context.Context, doc DocumentRecord) error

	// GetDocument retrieves a document by id.
	GetDocument(ctx context.Context, id string) (DocumentRecord, error)

	// ListDocuments returns all documents ordered by insertion time.
	ListDocuments(ctx context.Context) ([]DocumentRecord, error)

	// DeleteDocument removes a document; reports whether it existed.
	DeleteDocument(ctx context.Context, id string) (bool, error)
}

// ChatStore persists the question/answer history.
type ChatStore interface {
	// AppendMessage records one conversation turn.
	AppendMessage(ctx context.Context, role, content string) error

	// RecentMessages returns up to limit most recent turns, oldest first.
	RecentMessages(ctx context.Context, limit int) ([]ChatMessage, error)

	// ClearMessages drops the whole history.
	ClearMessages(ctx context.Context) error
}

// AnalysisCache stores completed analyses keyed by document-set hash,
// analysis type and personality, so repeating a request is free.
type AnalysisCache interface {
	// CachedAnalysis looks up a prior result; ok is false on a miss.
	CachedAnalysis(ctx context.Context, docsHash, analysisType, personality string) (result string, ok bool, err error)

	// SaveAnalysis upserts a completed analysis.
	SaveAnalysis(ctx context.Context, docsHash, analysisType, personality, result string) error

	// ClearAnalyses invalidates the whole cache.
	ClearAnalyses(ctx context.Context) error
}
