// Package storage persists documents, chat history and analysis results in
// SQLite.
package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			name TEXT,
			content TEXT,
			word_count INTEGER,
			char_count INTEGER,
			added_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			role TEXT,
			content TEXT,
			created_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS analysis_cache (
			docs_hash TEXT,
			analysis_type TEXT,
			personality TEXT,
			result TEXT,
			created_at TIMESTAMP,
			PRIMARY KEY (docs_hash, analysis_type, personality)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_added ON documents(added_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- DocumentStore Implementation ---

func (s *SQLiteStore) SaveDocument(ctx context.Context, doc DocumentRecord) error {
	if doc.AddedAt.IsZero() {
		doc.AddedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, name, content, word_count, char_count, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			content=excluded.content,
			word_count=excluded.word_count,
			char_count=excluded.char_count
	`, doc.ID, doc.Name, doc.Text, doc.WordCount, doc.CharCount, doc.AddedAt)

	return err
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, content, word_count, char_count, added_at FROM documents WHERE id = ?", id)

	var doc DocumentRecord
	if err := row.Scan(&doc.ID, &doc.Name, &doc.Text, &doc.WordCount, &doc.CharCount, &doc.AddedAt); err != nil {
		return DocumentRecord{}, err
	}
	return doc, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, content, word_count, char_count, added_at FROM documents ORDER BY added_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentRecord
	for rows.Next() {
		var doc DocumentRecord
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Text, &doc.WordCount, &doc.CharCount, &doc.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- ChatStore Implementation ---

func (s *SQLiteStore) AppendMessage(ctx context.Context, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_messages (role, content, created_at) VALUES (?, ?, ?)",
		role, content, time.Now().UTC())
	return err
}

func (s *SQLiteStore) RecentMessages(ctx context.Context, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}

	// Newest N rows, then reversed so callers see conversation order.
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, role, content, created_at FROM chat_messages ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *SQLiteStore) ClearMessages(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM chat_messages")
	return err
}

// --- AnalysisCache Implementation ---

func (s *SQLiteStore) CachedAnalysis(ctx context.Context, docsHash, analysisType, personality string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT result FROM analysis_cache WHERE docs_hash = ? AND analysis_type = ? AND personality = ?",
		docsHash, analysisType, personality)

	var result string
	err := row.Scan(&result)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return result, true, nil
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, docsHash, analysisType, personality, result string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_cache (docs_hash, analysis_type, personality, result, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(docs_hash, analysis_type, personality) DO UPDATE SET
			result=excluded.result,
			created_at=excluded.created_at
	`, docsHash, analysisType, personality, result, time.Now().UTC())
	return err
}

func (s *SQLiteStore) ClearAnalyses(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM analysis_cache")
	return err
}

// DocumentSetHash derives a stable cache key from a set of document ids.
// Order of the input does not matter.
func DocumentSetHash(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\n")))
	return hex.EncodeToString(sum[:])
}
