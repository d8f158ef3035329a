// Package sqlitevec is a sqlite-vec backed vector index persisting
// findings and generic documents across runs.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/viant/sqlite-vec/engine"
	"github.com/viant/sqlite-vec/vec"
	"github.com/viant/sqlite-vec/vector"

	"github.com/AnselmPowell/gov-project/schema"
	"github.com/AnselmPowell/gov-project/vectordb"
)

const (
	findingDataset  = "findings"
	documentDataset = "documents"
)

// Store indexes vectors in a sqlite-vec virtual table. Row data lives
// in the shadow table; the virtual table serves MATCH queries.
type Store struct {
	db            *sql.DB
	dsn           string
	vtable        string
	shadow        string
	openedLocally bool
}

// Option configures the sqlite-vec store.
type Option func(*Store)

// WithDB sets an existing *sql.DB to use.
func WithDB(db *sql.DB) Option {
	return func(s *Store) { s.db = db }
}

// WithDSN sets the SQLite DSN to open.
func WithDSN(dsn string) Option {
	return func(s *Store) { s.dsn = dsn }
}

// WithVTable sets the vec virtual table name (default: gov_vec).
func WithVTable(name string) Option {
	return func(s *Store) { s.vtable = name }
}

// NewStore opens and initializes a sqlite-vec Store.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{vtable: "gov_vec"}
	for _, opt := range opts {
		opt(s)
	}
	if s.vtable == "" {
		s.vtable = "gov_vec"
	}
	s.shadow = "_vec_" + s.vtable

	if s.db == nil {
		if s.dsn == "" {
			return nil, fmt.Errorf("sqlitevec: dsn required")
		}
		db, err := engine.Open(s.dsn)
		if err != nil {
			return nil, err
		}
		s.db = db
		if s.dsn == ":memory:" {
			// each pooled connection would otherwise see its own database
			s.db.SetMaxOpenConns(1)
		} else {
			s.db.SetMaxOpenConns(4)
			s.db.SetMaxIdleConns(4)
		}
		s.openedLocally = true
	}
	if err := vec.Register(s.db); err != nil {
		return nil, err
	}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying DB if the Store opened it.
func (s *Store) Close() error {
	if s.openedLocally && s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			dataset_id  TEXT NOT NULL,
			id          TEXT NOT NULL,
			document_id TEXT NOT NULL DEFAULT '',
			content     TEXT,
			meta        TEXT,
			embedding   BLOB,
			created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (dataset_id, id)
		);`, s.shadow),
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec(doc_id);`, s.vtable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_document ON %s(dataset_id, document_id);`, s.vtable, s.shadow),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// findingMeta is the JSON envelope a finding round-trips through.
type findingMeta struct {
	Context        string   `json:"context,omitempty"`
	Impact         string   `json:"impact,omitempty"`
	Themes         []string `json:"themes,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	IsBestPractice bool     `json:"is_best_practice"`
	Confidence     float64  `json:"confidence"`
	PageNumber     int      `json:"page_number"`
}

// AddFindings upserts findings into the shadow table. Findings without
// an embedding are skipped.
func (s *Store) AddFindings(ctx context.Context, findings []*schema.Finding) error {
	stmt, err := s.upsertStmt(ctx)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, finding := range findings {
		if len(finding.Embedding) == 0 {
			continue
		}
		blob, err := vector.EncodeEmbedding(finding.Embedding)
		if err != nil {
			return fmt.Errorf("encode embedding for finding %s: %w", finding.ID, err)
		}
		metaJSON, err := json.Marshal(findingMeta{
			Context:        finding.Context,
			Impact:         finding.Impact,
			Themes:         finding.Themes,
			Keywords:       finding.Keywords,
			IsBestPractice: finding.IsBestPractice,
			Confidence:     finding.Confidence,
			PageNumber:     finding.PageNumber,
		})
		if err != nil {
			return err
		}
		createdAt := finding.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, findingDataset, finding.ID, finding.DocumentID, finding.Text, string(metaJSON), blob, createdAt); err != nil {
			return fmt.Errorf("upsert finding %s: %w", finding.ID, err)
		}
	}
	return nil
}

// SearchFindings performs a MATCH query over the virtual table and
// returns findings ordered by ascending distance. maxDistance <= 0
// disables the threshold.
func (s *Store) SearchFindings(ctx context.Context, query []float32, limit int, maxDistance float64) ([]vectordb.FindingMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.matchQuery(ctx, findingDataset, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []vectordb.FindingMatch
	for rows.Next() {
		var id, documentID, content, metaJSON string
		var createdAt time.Time
		var score float64
		if err := rows.Scan(&id, &documentID, &content, &metaJSON, &createdAt, &score); err != nil {
			return nil, err
		}
		distance := 1 - score
		if maxDistance > 0 && distance > maxDistance {
			continue
		}
		var meta findingMeta
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
				return nil, fmt.Errorf("decode finding %s meta: %w", id, err)
			}
		}
		matches = append(matches, vectordb.FindingMatch{
			Finding: &schema.Finding{
				ID:             id,
				DocumentID:     documentID,
				Text:           content,
				Context:        meta.Context,
				Impact:         meta.Impact,
				Themes:         meta.Themes,
				Keywords:       meta.Keywords,
				IsBestPractice: meta.IsBestPractice,
				Confidence:     meta.Confidence,
				PageNumber:     meta.PageNumber,
				CreatedAt:      createdAt,
			},
			Distance: distance,
		})
	}
	return matches, rows.Err()
}

// AddDocuments upserts generic documents into the shadow table.
func (s *Store) AddDocuments(ctx context.Context, docs []vectordb.Document) error {
	stmt, err := s.upsertStmt(ctx)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			continue
		}
		blob, err := vector.EncodeEmbedding(doc.Embedding)
		if err != nil {
			return fmt.Errorf("encode embedding for document %s: %w", doc.ID, err)
		}
		metaJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return err
		}
		createdAt := doc.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, documentDataset, doc.ID, "", doc.Content, string(metaJSON), blob, createdAt); err != nil {
			return fmt.Errorf("upsert document %s: %w", doc.ID, err)
		}
	}
	return nil
}

// SearchDocuments ranks documents by ascending distance, then applies
// the filter and the limit. Unfiltered queries over-fetch a bounded
// candidate set; filtered queries rank the whole dataset so a filter
// can never starve the result set.
func (s *Store) SearchDocuments(ctx context.Context, query []float32, limit int, maxDistance float64, filter *vectordb.Filter) ([]vectordb.DocumentMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	candidates := limit * 4
	if candidates < 32 {
		candidates = 32
	}
	if !filter.Empty() {
		var total int
		row := s.db.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE dataset_id = ?`, s.shadow), documentDataset)
		if err := row.Scan(&total); err != nil {
			return nil, fmt.Errorf("count documents: %w", err)
		}
		if total > candidates {
			candidates = total
		}
	}
	rows, err := s.matchQuery(ctx, documentDataset, query, candidates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []vectordb.DocumentMatch
	for rows.Next() {
		var id, documentID, content, metaJSON string
		var createdAt time.Time
		var score float64
		if err := rows.Scan(&id, &documentID, &content, &metaJSON, &createdAt, &score); err != nil {
			return nil, err
		}
		distance := 1 - score
		if maxDistance > 0 && distance > maxDistance {
			continue
		}
		metadata := map[string]string{}
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &metadata); err != nil {
				return nil, fmt.Errorf("decode document %s meta: %w", id, err)
			}
		}
		doc := vectordb.Document{ID: id, Content: content, Metadata: metadata, CreatedAt: createdAt}
		if !filter.Matches(doc) {
			continue
		}
		matches = append(matches, vectordb.DocumentMatch{Document: doc, Distance: distance})
		if len(matches) == limit {
			break
		}
	}
	return matches, rows.Err()
}

func (s *Store) upsertStmt(ctx context.Context) (*sql.Stmt, error) {
	return s.db.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s(dataset_id, id, document_id, content, meta, embedding, created_at)
VALUES(?,?,?,?,?,?,?)
ON CONFLICT(dataset_id, id) DO UPDATE SET
	document_id=excluded.document_id,
	content=excluded.content,
	meta=excluded.meta,
	embedding=excluded.embedding,
	created_at=excluded.created_at`, s.shadow))
}

func (s *Store) matchQuery(ctx context.Context, dataset string, query []float32, k int) (*sql.Rows, error) {
	blob, err := vector.EncodeEmbedding(query)
	if err != nil {
		return nil, fmt.Errorf("encode query embedding: %w", err)
	}
	stmt := fmt.Sprintf(`SELECT d.id, d.document_id, d.content, d.meta, d.created_at, v.match_score
FROM %s v
JOIN %s d ON d.dataset_id = v.dataset_id AND d.id = v.doc_id
WHERE v.dataset_id = ?
  AND v.doc_id MATCH ?
ORDER BY v.match_score DESC
LIMIT ?`, s.vtable, s.shadow)
	return s.db.QueryContext(ctx, stmt, dataset, blob, k)
}
