package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_DocumentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := DocumentRecord{
		ID:        "doc-1",
		Name:      "report.pdf",
		Text:      "quarterly results were strong",
		WordCount: 4,
		CharCount: 29,
		AddedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Name, got.Name)
	assert.Equal(t, doc.Text, got.Text)
	assert.Equal(t, doc.WordCount, got.WordCount)
	assert.Equal(t, doc.CharCount, got.CharCount)
}

func TestSQLiteStore_SaveDocumentUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, DocumentRecord{ID: "doc-1", Name: "old.txt", WordCount: 1}))
	require.NoError(t, store.SaveDocument(ctx, DocumentRecord{ID: "doc-1", Name: "new.txt", WordCount: 2}))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "new.txt", docs[0].Name)
	assert.Equal(t, 2, docs[0].WordCount)
}

func TestSQLiteStore_ListDocumentsOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveDocument(ctx, DocumentRecord{ID: "b", Name: "second", AddedAt: base.Add(time.Hour)}))
	require.NoError(t, store.SaveDocument(ctx, DocumentRecord{ID: "a", Name: "first", AddedAt: base}))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "first", docs[0].Name)
	assert.Equal(t, "second", docs[1].Name)
}

func TestSQLiteStore_DeleteDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, DocumentRecord{ID: "doc-1", Name: "a.txt"}))

	existed, err := store.DeleteDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.DeleteDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSQLiteStore_ChatHistoryWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendMessage(ctx, "user", "first question"))
	require.NoError(t, store.AppendMessage(ctx, "assistant", "first answer"))
	require.NoError(t, store.AppendMessage(ctx, "user", "second question"))
	require.NoError(t, store.AppendMessage(ctx, "assistant", "second answer"))

	msgs, err := store.RecentMessages(ctx, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "second question", msgs[0].Content)
	assert.Equal(t, "second answer", msgs[1].Content)

	all, err := store.RecentMessages(ctx, 100)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "first question", all[0].Content)

	require.NoError(t, store.ClearMessages(ctx))
	msgs, err = store.RecentMessages(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSQLiteStore_AnalysisCache(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	hash := DocumentSetHash([]string{"doc-1", "doc-2"})

	_, ok, err := store.CachedAnalysis(ctx, hash, "summary", "general")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveAnalysis(ctx, hash, "summary", "general", "the summary"))

	result, ok, err := store.CachedAnalysis(ctx, hash, "summary", "general")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "the summary", result)

	// Same documents, different personality: separate entry.
	_, ok, err = store.CachedAnalysis(ctx, hash, "summary", "lawyer")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveAnalysis(ctx, hash, "summary", "general", "revised summary"))
	result, ok, err = store.CachedAnalysis(ctx, hash, "summary", "general")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "revised summary", result)

	require.NoError(t, store.ClearAnalyses(ctx))
	_, ok, err = store.CachedAnalysis(ctx, hash, "summary", "general")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocumentSetHash_OrderIndependent(t *testing.T) {
	h1 := DocumentSetHash([]string{"a", "b", "c"})
	h2 := DocumentSetHash([]string{"c", "a", "b"})
	h3 := DocumentSetHash([]string{"a", "b"})

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}
