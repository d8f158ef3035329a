// Package sqlite is a DocStore backed by modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AnselmPowell/gov-project/schema"
)

// Store persists pipeline entities in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite-backed store at dsn.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", ensurePragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// ensurePragmas appends WAL and busy-timeout pragmas to file DSNs.
func ensurePragmas(dsn string) string {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(strings.ToLower(dsn), "file::memory:") {
		return dsn
	}
	lower := strings.ToLower(dsn)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.Contains(lower, "_pragma=journal_mode") {
		dsn += sep + "_pragma=journal_mode(WAL)"
		sep = "&"
	}
	if !strings.Contains(lower, "_pragma=busy_timeout") {
		dsn += sep + "_pragma=busy_timeout(5000)"
	}
	return dsn
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS governance_documents (
			id            TEXT PRIMARY KEY,
			file_id       TEXT NOT NULL,
			file_name     TEXT NOT NULL,
			url           TEXT NOT NULL,
			mime_type     TEXT NOT NULL,
			file_size     INTEGER NOT NULL DEFAULT 0,
			total_pages   INTEGER NOT NULL DEFAULT 0,
			status        TEXT NOT NULL,
			error_message TEXT,
			uploaded_at   TIMESTAMP NOT NULL,
			duration_ns   INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS document_chunks (
			id            TEXT PRIMARY KEY,
			document_id   TEXT NOT NULL REFERENCES governance_documents(id),
			text          TEXT NOT NULL,
			page_number   INTEGER NOT NULL,
			position      INTEGER NOT NULL,
			chunk_size    INTEGER NOT NULL,
			word_count    INTEGER NOT NULL,
			processing_ns INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS best_practices (
			id               TEXT PRIMARY KEY,
			document_id      TEXT NOT NULL REFERENCES governance_documents(id),
			text             TEXT NOT NULL,
			context          TEXT NOT NULL,
			impact           TEXT NOT NULL,
			themes           TEXT NOT NULL DEFAULT '[]',
			keywords         TEXT NOT NULL DEFAULT '[]',
			is_best_practice INTEGER NOT NULL DEFAULT 1,
			confidence       REAL NOT NULL DEFAULT 0,
			page_number      INTEGER NOT NULL,
			extraction_ns    INTEGER NOT NULL DEFAULT 0,
			analysis_ns      INTEGER NOT NULL DEFAULT 0,
			embedding        TEXT,
			created_at       TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS processing_logs (
			document_id TEXT NOT NULL,
			stage       TEXT NOT NULL,
			status      TEXT NOT NULL,
			message     TEXT,
			duration_ns INTEGER NOT NULL DEFAULT 0,
			timestamp   TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_order ON document_chunks(document_id, page_number, position);`,
		`CREATE INDEX IF NOT EXISTS idx_practices_doc ON best_practices(document_id, page_number);`,
		`CREATE INDEX IF NOT EXISTS idx_logs_doc ON processing_logs(document_id, timestamp);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// CreateDocument inserts the document inside a transaction so a failed
// ingestion request leaves no partial state behind.
func (s *Store) CreateDocument(ctx context.Context, doc *schema.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO governance_documents
		(id, file_id, file_name, url, mime_type, file_size, total_pages, status, error_message, uploaded_at, duration_ns)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		doc.ID, doc.FileID, doc.FileName, doc.URL, doc.MimeType, doc.FileSize,
		doc.TotalPages, string(doc.Status), doc.ErrorMessage, doc.UploadedAt, int64(doc.Duration))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("create document: %w", err)
	}
	return tx.Commit()
}

func (s *Store) UpdateDocument(ctx context.Context, doc *schema.Document) error {
	res, err := s.db.ExecContext(ctx, `UPDATE governance_documents SET
		file_size=?, total_pages=?, status=?, error_message=?, duration_ns=?, mime_type=?
		WHERE id=?`,
		doc.FileSize, doc.TotalPages, string(doc.Status), doc.ErrorMessage, int64(doc.Duration), doc.MimeType, doc.ID)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, schema.ErrNotFound)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (*schema.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, file_id, file_name, url, mime_type, file_size,
		total_pages, status, COALESCE(error_message, ''), uploaded_at, duration_ns
		FROM governance_documents WHERE id=?`, id)
	var doc schema.Document
	var status string
	var durationNS int64
	err := row.Scan(&doc.ID, &doc.FileID, &doc.FileName, &doc.URL, &doc.MimeType, &doc.FileSize,
		&doc.TotalPages, &status, &doc.ErrorMessage, &doc.UploadedAt, &durationNS)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document %s: %w", id, schema.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	doc.Status = schema.Status(status)
	doc.Duration = time.Duration(durationNS)
	return &doc, nil
}

func (s *Store) CreateChunk(ctx context.Context, chunk *schema.Chunk) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO document_chunks
		(id, document_id, text, page_number, position, chunk_size, word_count, processing_ns)
		VALUES(?,?,?,?,?,?,?,?)`,
		chunk.ID, chunk.DocumentID, chunk.Text, chunk.PageNumber, chunk.Position,
		chunk.Size, chunk.WordCount, int64(chunk.ProcessingTime))
	if err != nil {
		return fmt.Errorf("create chunk: %w", err)
	}
	return nil
}

func (s *Store) UpdateChunk(ctx context.Context, chunk *schema.Chunk) error {
	res, err := s.db.ExecContext(ctx, `UPDATE document_chunks SET processing_ns=? WHERE id=?`,
		int64(chunk.ProcessingTime), chunk.ID)
	if err != nil {
		return fmt.Errorf("update chunk: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("chunk %s: %w", chunk.ID, schema.ErrNotFound)
	}
	return nil
}

func (s *Store) ListChunks(ctx context.Context, documentID string) ([]*schema.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, document_id, text, page_number, position,
		chunk_size, word_count, processing_ns
		FROM document_chunks WHERE document_id=? ORDER BY page_number, position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()
	var out []*schema.Chunk
	for rows.Next() {
		var chunk schema.Chunk
		var processingNS int64
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Text, &chunk.PageNumber,
			&chunk.Position, &chunk.Size, &chunk.WordCount, &processingNS); err != nil {
			return nil, err
		}
		chunk.ProcessingTime = time.Duration(processingNS)
		out = append(out, &chunk)
	}
	return out, rows.Err()
}

func (s *Store) CreateFinding(ctx context.Context, finding *schema.Finding) error {
	themes, keywords, embedding, err := encodeFindingFields(finding)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO best_practices
		(id, document_id, text, context, impact, themes, keywords, is_best_practice,
		 confidence, page_number, extraction_ns, analysis_ns, embedding, created_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		finding.ID, finding.DocumentID, finding.Text, finding.Context, finding.Impact,
		themes, keywords, boolToInt(finding.IsBestPractice), finding.Confidence,
		finding.PageNumber, int64(finding.ExtractionTime), int64(finding.AnalysisTime),
		embedding, finding.CreatedAt)
	if err != nil {
		return fmt.Errorf("create finding: %w", err)
	}
	return nil
}

func (s *Store) UpdateFinding(ctx context.Context, finding *schema.Finding) error {
	themes, keywords, embedding, err := encodeFindingFields(finding)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE best_practices SET
		themes=?, keywords=?, analysis_ns=?, embedding=?, confidence=?
		WHERE id=?`,
		themes, keywords, int64(finding.AnalysisTime), embedding, finding.Confidence, finding.ID)
	if err != nil {
		return fmt.Errorf("update finding: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("finding %s: %w", finding.ID, schema.ErrNotFound)
	}
	return nil
}

func (s *Store) ListFindings(ctx context.Context, documentID string) ([]*schema.Finding, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, document_id, text, context, impact, themes,
		keywords, is_best_practice, confidence, page_number, extraction_ns, analysis_ns,
		COALESCE(embedding, ''), created_at
		FROM best_practices WHERE document_id=? ORDER BY page_number, created_at`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list findings: %w", err)
	}
	defer rows.Close()
	var out []*schema.Finding
	for rows.Next() {
		finding, err := scanFinding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, finding)
	}
	return out, rows.Err()
}

func (s *Store) AppendLog(ctx context.Context, entry *schema.ProcessingLog) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO processing_logs
		(document_id, stage, status, message, duration_ns, timestamp)
		VALUES(?,?,?,?,?,?)`,
		entry.DocumentID, entry.Stage, entry.Status, entry.Message,
		int64(entry.Duration), entry.Timestamp)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

func scanFinding(rows *sql.Rows) (*schema.Finding, error) {
	var finding schema.Finding
	var themes, keywords, embedding string
	var isBest int
	var extractionNS, analysisNS int64
	err := rows.Scan(&finding.ID, &finding.DocumentID, &finding.Text, &finding.Context,
		&finding.Impact, &themes, &keywords, &isBest, &finding.Confidence, &finding.PageNumber,
		&extractionNS, &analysisNS, &embedding, &finding.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(themes), &finding.Themes); err != nil {
		return nil, fmt.Errorf("decode themes: %w", err)
	}
	if err := json.Unmarshal([]byte(keywords), &finding.Keywords); err != nil {
		return nil, fmt.Errorf("decode keywords: %w", err)
	}
	if embedding != "" {
		if err := json.Unmarshal([]byte(embedding), &finding.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
	}
	finding.IsBestPractice = isBest != 0
	finding.ExtractionTime = time.Duration(extractionNS)
	finding.AnalysisTime = time.Duration(analysisNS)
	return &finding, nil
}

func encodeFindingFields(finding *schema.Finding) (themes, keywords, embedding string, err error) {
	themesJSON, err := json.Marshal(orEmpty(finding.Themes))
	if err != nil {
		return "", "", "", fmt.Errorf("encode themes: %w", err)
	}
	keywordsJSON, err := json.Marshal(orEmpty(finding.Keywords))
	if err != nil {
		return "", "", "", fmt.Errorf("encode keywords: %w", err)
	}
	if len(finding.Embedding) > 0 {
		embeddingJSON, err := json.Marshal(finding.Embedding)
		if err != nil {
			return "", "", "", fmt.Errorf("encode embedding: %w", err)
		}
		embedding = string(embeddingJSON)
	}
	return string(themesJSON), string(keywordsJSON), embedding, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
