package service

import (
	"time"

	"github.com/AnselmPowell/gov-project/schema"
	"github.com/AnselmPowell/gov-project/vectordb"
)

// AnalyzeRequest defines inputs for analysing one governance document.
type AnalyzeRequest struct {
	FileName string
	FileURL  string
	FileID   string
	FileType string
	Logf     func(format string, args ...any)
}

// AnalyzeResponse aggregates one document's analysis outcome.
type AnalyzeResponse struct {
	DocumentID       string
	Status           schema.Status
	TotalPages       int
	TotalChunks      int
	TotalWords       int
	ChunksWithErrors int
	Duration         time.Duration
	Findings         []*schema.Finding
}

// Search scopes.
const (
	ScopeFindings  = "findings"
	ScopeDocuments = "documents"
)

// SearchRequest defines inputs for similarity search. Scope selects
// findings (default) or generic documents; metadata and date filters
// apply to documents only.
type SearchRequest struct {
	Query     string
	Scope     string
	Limit     int
	Threshold float64
	Metadata  map[string]string
	StartDate *time.Time
	EndDate   *time.Time
}

// SearchResponse carries matches for one scope.
type SearchResponse struct {
	Findings  []vectordb.FindingMatch
	Documents []vectordb.DocumentMatch
}

// IndexDocumentRequest defines inputs for indexing a generic document.
type IndexDocumentRequest struct {
	ID       string
	Content  string
	Metadata map[string]string
}
