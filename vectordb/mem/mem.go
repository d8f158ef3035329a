// Package mem is an in-memory vector index for tests and single-run use.
package mem

import (
	"context"
	"sort"
	"sync"

	"github.com/AnselmPowell/gov-project/schema"
	"github.com/AnselmPowell/gov-project/vectordb"
)

// Index holds all vectors in memory behind one mutex. Findings rank by
// Euclidean distance, generic documents by cosine distance.
type Index struct {
	mu       sync.RWMutex
	findings []*schema.Finding
	docs     []vectordb.Document
}

// New creates an empty Index.
func New() *Index {
	return &Index{}
}

// AddFindings indexes findings that carry an embedding. Re-adding a
// finding ID replaces the previous entry.
func (x *Index) AddFindings(ctx context.Context, findings []*schema.Finding) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, finding := range findings {
		if len(finding.Embedding) == 0 {
			continue
		}
		clone := *finding
		replaced := false
		for i, existing := range x.findings {
			if existing.ID == finding.ID {
				x.findings[i] = &clone
				replaced = true
				break
			}
		}
		if !replaced {
			x.findings = append(x.findings, &clone)
		}
	}
	return nil
}

// SearchFindings returns up to limit findings ordered by ascending
// Euclidean distance. maxDistance <= 0 disables the threshold.
func (x *Index) SearchFindings(ctx context.Context, query []float32, limit int, maxDistance float64) ([]vectordb.FindingMatch, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	matches := make([]vectordb.FindingMatch, 0, len(x.findings))
	for _, finding := range x.findings {
		if len(finding.Embedding) != len(query) {
			continue
		}
		distance := vectordb.L2(query, finding.Embedding)
		if maxDistance > 0 && distance > maxDistance {
			continue
		}
		clone := *finding
		matches = append(matches, vectordb.FindingMatch{Finding: &clone, Distance: distance})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// AddDocuments indexes generic documents that carry an embedding.
func (x *Index) AddDocuments(ctx context.Context, docs []vectordb.Document) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			continue
		}
		replaced := false
		for i, existing := range x.docs {
			if existing.ID == doc.ID {
				x.docs[i] = doc
				replaced = true
				break
			}
		}
		if !replaced {
			x.docs = append(x.docs, doc)
		}
	}
	return nil
}

// SearchDocuments ranks all documents by ascending cosine distance,
// then applies the filter and finally the limit. Filtering after
// ranking keeps the distance ordering stable regardless of filters.
func (x *Index) SearchDocuments(ctx context.Context, query []float32, limit int, maxDistance float64, filter *vectordb.Filter) ([]vectordb.DocumentMatch, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	matches := make([]vectordb.DocumentMatch, 0, len(x.docs))
	for _, doc := range x.docs {
		if len(doc.Embedding) != len(query) {
			continue
		}
		distance := vectordb.CosineDistance(query, doc.Embedding)
		if maxDistance > 0 && distance > maxDistance {
			continue
		}
		matches = append(matches, vectordb.DocumentMatch{Document: doc, Distance: distance})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })

	filtered := matches[:0]
	for _, match := range matches {
		if filter.Matches(match.Document) {
			filtered = append(filtered, match)
		}
	}
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}
