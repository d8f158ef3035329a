// Package vectordb defines the vector index contracts shared by the
// in-memory and sqlite-vec backends.
package vectordb

import (
	"context"
	"math"
	"time"

	"github.com/AnselmPowell/gov-project/schema"
)

// Document is a generic embedded record with free-form metadata. It
// covers non-finding content such as notes and reference material.
type Document struct {
	ID        string
	Content   string
	Metadata  map[string]string
	CreatedAt time.Time
	Embedding []float32
}

// FindingMatch pairs a finding with its distance from the query vector.
// Smaller distances rank first.
type FindingMatch struct {
	Finding  *schema.Finding
	Distance float64
}

// DocumentMatch pairs a document with its distance from the query vector.
type DocumentMatch struct {
	Document Document
	Distance float64
}

// Filter restricts document search results after ranking. Metadata
// entries must all match exactly; Start and End bound CreatedAt as a
// closed interval when set.
type Filter struct {
	Metadata map[string]string
	Start    *time.Time
	End      *time.Time
}

// Empty reports whether the filter imposes no constraints.
func (f *Filter) Empty() bool {
	return f == nil || (len(f.Metadata) == 0 && f.Start == nil && f.End == nil)
}

// Matches reports whether doc passes the filter.
func (f *Filter) Matches(doc Document) bool {
	if f == nil {
		return true
	}
	for key, want := range f.Metadata {
		if doc.Metadata[key] != want {
			return false
		}
	}
	if f.Start != nil && doc.CreatedAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && doc.CreatedAt.After(*f.End) {
		return false
	}
	return true
}

// FindingIndex indexes findings for similarity search.
type FindingIndex interface {
	AddFindings(ctx context.Context, findings []*schema.Finding) error
	SearchFindings(ctx context.Context, query []float32, limit int, maxDistance float64) ([]FindingMatch, error)
}

// DocumentIndex indexes generic documents for similarity search with
// optional metadata and time filters.
type DocumentIndex interface {
	AddDocuments(ctx context.Context, docs []Document) error
	SearchDocuments(ctx context.Context, query []float32, limit int, maxDistance float64, filter *Filter) ([]DocumentMatch, error)
}

// Index is a backend serving both finding and document search.
type Index interface {
	FindingIndex
	DocumentIndex
}

// L2 returns the Euclidean distance between two vectors of equal
// dimension, or +Inf on dimension mismatch.
func L2(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CosineDistance returns 1 minus the cosine similarity of two vectors,
// or +Inf on dimension mismatch or a zero vector.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.Inf(1)
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
