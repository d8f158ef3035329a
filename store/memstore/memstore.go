// Package memstore is an in-memory DocStore for tests and single-run CLI use.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/AnselmPowell/gov-project/schema"
)

// Store keeps all entities in memory behind one mutex.
type Store struct {
	mu        sync.RWMutex
	documents map[string]*schema.Document
	chunks    map[string][]*schema.Chunk
	findings  map[string][]*schema.Finding
	logs      []*schema.ProcessingLog
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		documents: make(map[string]*schema.Document),
		chunks:    make(map[string][]*schema.Chunk),
		findings:  make(map[string][]*schema.Finding),
	}
}

func (s *Store) CreateDocument(ctx context.Context, doc *schema.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; exists {
		return fmt.Errorf("document %s already exists", doc.ID)
	}
	clone := *doc
	s.documents[doc.ID] = &clone
	return nil
}

func (s *Store) UpdateDocument(ctx context.Context, doc *schema.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; !exists {
		return fmt.Errorf("document %s: %w", doc.ID, schema.ErrNotFound)
	}
	clone := *doc
	s.documents[doc.ID] = &clone
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (*schema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, schema.ErrNotFound)
	}
	clone := *doc
	return &clone, nil
}

func (s *Store) CreateChunk(ctx context.Context, chunk *schema.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[chunk.DocumentID]; !exists {
		return fmt.Errorf("document %s: %w", chunk.DocumentID, schema.ErrNotFound)
	}
	clone := *chunk
	s.chunks[chunk.DocumentID] = append(s.chunks[chunk.DocumentID], &clone)
	return nil
}

func (s *Store) UpdateChunk(ctx context.Context, chunk *schema.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.chunks[chunk.DocumentID] {
		if existing.ID == chunk.ID {
			clone := *chunk
			s.chunks[chunk.DocumentID][i] = &clone
			return nil
		}
	}
	return fmt.Errorf("chunk %s: %w", chunk.ID, schema.ErrNotFound)
}

func (s *Store) ListChunks(ctx context.Context, documentID string) ([]*schema.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*schema.Chunk, 0, len(s.chunks[documentID]))
	for _, chunk := range s.chunks[documentID] {
		clone := *chunk
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PageNumber != out[j].PageNumber {
			return out[i].PageNumber < out[j].PageNumber
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (s *Store) CreateFinding(ctx context.Context, finding *schema.Finding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[finding.DocumentID]; !exists {
		return fmt.Errorf("document %s: %w", finding.DocumentID, schema.ErrNotFound)
	}
	clone := *finding
	s.findings[finding.DocumentID] = append(s.findings[finding.DocumentID], &clone)
	return nil
}

func (s *Store) UpdateFinding(ctx context.Context, finding *schema.Finding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.findings[finding.DocumentID] {
		if existing.ID == finding.ID {
			clone := *finding
			s.findings[finding.DocumentID][i] = &clone
			return nil
		}
	}
	return fmt.Errorf("finding %s: %w", finding.ID, schema.ErrNotFound)
}

func (s *Store) ListFindings(ctx context.Context, documentID string) ([]*schema.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*schema.Finding, 0, len(s.findings[documentID]))
	for _, finding := range s.findings[documentID] {
		clone := *finding
		out = append(out, &clone)
	}
	return out, nil
}

func (s *Store) AppendLog(ctx context.Context, entry *schema.ProcessingLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *entry
	s.logs = append(s.logs, &clone)
	return nil
}

// Logs returns a snapshot of all processing log entries.
func (s *Store) Logs() []*schema.ProcessingLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*schema.ProcessingLog, len(s.logs))
	copy(out, s.logs)
	return out
}
