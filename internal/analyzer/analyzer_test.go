package analyzer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"docanalyzer/internal/ai"
	"docanalyzer/internal/config"
	"docanalyzer/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.AI.Personality = "general"
	cfg.Chunking.Size = 200
	cfg.Chunking.Overlap = 50
	cfg.Retrieval.TopK = 3
	cfg.Retrieval.MinScore = 0.05
	cfg.Retrieval.MaxContextLength = 2000
	return cfg
}

func newTestService(t *testing.T, gateway ai.Gateway) (*Service, storage.Store) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(testConfig(), gateway, store, zerolog.Nop()), store
}

const catDoc = `Cats are independent animals. They sleep most of the day.
Cats purr when they are content. A cat can jump several times its own height.`

const dogDoc = `Dogs are loyal companions. They need daily walks and play.
Dogs bark to communicate. Training a dog takes patience and consistency.`

func TestService_AddAndSearch(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockGateway())
	ctx := context.Background()

	catRec, err := svc.AddDocument(ctx, "cats.txt", catDoc)
	require.NoError(t, err)
	assert.NotEmpty(t, catRec.ID)
	assert.Greater(t, catRec.WordCount, 0)

	_, err = svc.AddDocument(ctx, "dogs.txt", dogDoc)
	require.NoError(t, err)

	results := svc.Search("why do cats purr")
	require.NotEmpty(t, results)
	assert.Equal(t, "cats.txt", results[0].Chunk.Document)

	stats := svc.Statistics()
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.True(t, stats.Ready)
}

func TestService_AddDocumentEmptyText(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockGateway())

	_, err := svc.AddDocument(context.Background(), "blank.txt", "   \n\t  ")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestService_RemoveDocument(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockGateway())
	ctx := context.Background()

	rec, err := svc.AddDocument(ctx, "cats.txt", catDoc)
	require.NoError(t, err)

	existed, err := svc.RemoveDocument(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, 0, svc.Statistics().TotalDocuments)

	existed, err = svc.RemoveDocument(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestService_Restore(t *testing.T) {
	mock := ai.NewMockGateway()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	first := New(testConfig(), mock, store, zerolog.Nop())
	_, err = first.AddDocument(ctx, "cats.txt", catDoc)
	require.NoError(t, err)

	// A fresh service over the same store starts empty until restored.
	second := New(testConfig(), mock, store, zerolog.Nop())
	assert.Equal(t, 0, second.Statistics().TotalDocuments)

	require.NoError(t, second.Restore(ctx))
	assert.Equal(t, 1, second.Statistics().TotalDocuments)
	assert.NotEmpty(t, second.Search("purr"))
}

func TestService_AskPersistsConversation(t *testing.T) {
	mock := ai.NewMockGateway(ai.MockStep{Content: "Cats purr when content."})
	svc, store := newTestService(t, mock)
	ctx := context.Background()

	_, err := svc.AddDocument(ctx, "cats.txt", catDoc)
	require.NoError(t, err)

	answer, err := svc.Ask(ctx, "Why do cats purr?")
	require.NoError(t, err)
	assert.Equal(t, "Cats purr when content.", answer)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "system", calls[0].Messages[0].Role)
	assert.Contains(t, calls[0].Messages[0].Content, "cats.txt")

	msgs, err := store.RecentMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
}

func TestService_AskReplaysHistory(t *testing.T) {
	mock := ai.NewMockGateway(
		ai.MockStep{Content: "first answer"},
		ai.MockStep{Content: "second answer"},
	)
	svc, _ := newTestService(t, mock)
	ctx := context.Background()

	_, err := svc.AddDocument(ctx, "cats.txt", catDoc)
	require.NoError(t, err)

	_, err = svc.Ask(ctx, "first question")
	require.NoError(t, err)
	_, err = svc.Ask(ctx, "follow-up question")
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 2)
	var contents []string
	for _, m := range calls[1].Messages {
		contents = append(contents, m.Content)
	}
	assert.Contains(t, contents, "first question")
	assert.Contains(t, contents, "first answer")
}

func TestService_AskWithoutDocuments(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockGateway())

	_, err := svc.Ask(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestService_AnalyzeCaching(t *testing.T) {
	mock := ai.NewMockGateway(ai.MockStep{Content: "A fine summary."})
	svc, _ := newTestService(t, mock)
	ctx := context.Background()

	_, err := svc.AddDocument(ctx, "cats.txt", catDoc)
	require.NoError(t, err)

	result, cached, err := svc.Analyze(ctx, ai.AnalysisSummary)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "A fine summary.", result)

	// Second run hits the cache, no new completion call.
	result, cached, err = svc.Analyze(ctx, ai.AnalysisSummary)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "A fine summary.", result)
	assert.Len(t, mock.Calls(), 1)
}

func TestService_AnalyzeCacheInvalidatedByAdd(t *testing.T) {
	mock := ai.NewMockGateway(
		ai.MockStep{Content: "summary of one document"},
		ai.MockStep{Content: "summary of two documents"},
	)
	svc, _ := newTestService(t, mock)
	ctx := context.Background()

	_, err := svc.AddDocument(ctx, "cats.txt", catDoc)
	require.NoError(t, err)
	_, _, err = svc.Analyze(ctx, ai.AnalysisSummary)
	require.NoError(t, err)

	_, err = svc.AddDocument(ctx, "dogs.txt", dogDoc)
	require.NoError(t, err)

	result, cached, err := svc.Analyze(ctx, ai.AnalysisSummary)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "summary of two documents", result)
	assert.Len(t, mock.Calls(), 2)
}

func TestService_ClearHistory(t *testing.T) {
	mock := ai.NewMockGateway(
		ai.MockStep{Content: "first answer"},
		ai.MockStep{Content: "second answer"},
	)
	svc, store := newTestService(t, mock)
	ctx := context.Background()

	_, err := svc.AddDocument(ctx, "cats.txt", catDoc)
	require.NoError(t, err)
	_, err = svc.Ask(ctx, "first question")
	require.NoError(t, err)

	require.NoError(t, svc.ClearHistory(ctx))
	msgs, err := store.RecentMessages(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// The next question starts fresh: system prompt plus the question only.
	_, err = svc.Ask(ctx, "second question")
	require.NoError(t, err)
	calls := mock.Calls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[1].Messages, 2)
}

// faultyCacheStore simulates a corrupted analysis cache table.
type faultyCacheStore struct {
	storage.Store
}

func (f *faultyCacheStore) CachedAnalysis(context.Context, string, string, string) (string, bool, error) {
	return "", false, errors.New("cache table corrupted")
}

func TestService_AnalyzeSurvivesCacheLookupFailure(t *testing.T) {
	mock := ai.NewMockGateway(ai.MockStep{Content: "fresh summary"})
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	svc := New(testConfig(), mock, &faultyCacheStore{Store: store}, zerolog.Nop())
	ctx := context.Background()

	_, err = svc.AddDocument(ctx, "cats.txt", catDoc)
	require.NoError(t, err)

	result, cached, err := svc.Analyze(ctx, ai.AnalysisSummary)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "fresh summary", result)
}

func TestService_AnalyzeUnknownType(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockGateway())
	_, err := svc.AddDocument(context.Background(), "cats.txt", catDoc)
	require.NoError(t, err)

	_, _, err = svc.Analyze(context.Background(), "horoscope")
	assert.ErrorContains(t, err, "unknown analysis type")
}

func TestService_GenerateAndExportMindMap(t *testing.T) {
	response := `{"title": "Pets", "themes": [{"id": "theme_1", "name": "Cats", "summary": "About cats"}]}`
	mock := ai.NewMockGateway(ai.MockStep{Content: response})
	svc, _ := newTestService(t, mock)
	ctx := context.Background()

	_, err := svc.AddDocument(ctx, "cats.txt", catDoc)
	require.NoError(t, err)

	o, err := svc.GenerateMindMap(ctx)
	require.NoError(t, err)
	require.NoError(t, o.Validate())
	assert.Equal(t, "Pets", o.Title)

	mermaid, err := svc.ExportMindMap(o, "mermaid")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(mermaid, "graph TD"))

	md, err := svc.ExportMindMap(o, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "# Pets")

	_, err = svc.ExportMindMap(o, "svg")
	assert.ErrorContains(t, err, "unknown export format")
}

func TestService_GenerateMindMapWithoutDocuments(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockGateway())

	_, err := svc.GenerateMindMap(context.Background())
	assert.ErrorIs(t, err, ErrNoDocuments)
}
