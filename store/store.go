// Package store defines persistence for documents, chunks and findings.
package store

import (
	"context"

	"github.com/AnselmPowell/gov-project/schema"
)

// DocStore is the persistence boundary for pipeline entities. Document
// creation must be atomic: a failed create leaves no partial state.
type DocStore interface {
	CreateDocument(ctx context.Context, doc *schema.Document) error
	UpdateDocument(ctx context.Context, doc *schema.Document) error
	GetDocument(ctx context.Context, id string) (*schema.Document, error)

	CreateChunk(ctx context.Context, chunk *schema.Chunk) error
	// UpdateChunk rewrites a chunk's analysis timing.
	UpdateChunk(ctx context.Context, chunk *schema.Chunk) error
	// ListChunks returns a document's chunks ordered by (page, position).
	ListChunks(ctx context.Context, documentID string) ([]*schema.Chunk, error)

	CreateFinding(ctx context.Context, finding *schema.Finding) error
	UpdateFinding(ctx context.Context, finding *schema.Finding) error
	ListFindings(ctx context.Context, documentID string) ([]*schema.Finding, error)

	AppendLog(ctx context.Context, entry *schema.ProcessingLog) error
}
