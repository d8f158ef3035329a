// Package service is the entry point tying fetching, the analysis
// pipeline and similarity search together.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/AnselmPowell/gov-project/pipeline"
	"github.com/AnselmPowell/gov-project/practice"
	"github.com/AnselmPowell/gov-project/schema"
	"github.com/AnselmPowell/gov-project/store"
	"github.com/AnselmPowell/gov-project/vectordb"
)

// Service exposes document analysis and search operations.
type Service struct {
	docs         store.DocStore
	orchestrator *pipeline.Orchestrator
	fetcher      *pipeline.Fetcher
	classifier   *practice.Classifier
	embeddings   *vectordb.EmbeddingService
	findings     vectordb.FindingIndex
	documents    vectordb.DocumentIndex
	logf         func(format string, args ...any)
}

// Option configures a Service.
type Option func(*Service)

// WithFetcher sets the file fetcher used by Analyze.
func WithFetcher(fetcher *pipeline.Fetcher) Option {
	return func(s *Service) { s.fetcher = fetcher }
}

// WithClassifier exposes theme statistics through the service.
func WithClassifier(classifier *practice.Classifier) Option {
	return func(s *Service) { s.classifier = classifier }
}

// WithSearch wires the embedding service and indexes used by Search.
func WithSearch(embeddings *vectordb.EmbeddingService, findings vectordb.FindingIndex, documents vectordb.DocumentIndex) Option {
	return func(s *Service) {
		s.embeddings = embeddings
		s.findings = findings
		s.documents = documents
	}
}

// WithLogf sets the service's log function.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Service) { s.logf = logf }
}

// New creates a Service around docs and orchestrator.
func New(docs store.DocStore, orchestrator *pipeline.Orchestrator, opts ...Option) *Service {
	s := &Service{
		docs:         docs,
		orchestrator: orchestrator,
		fetcher:      pipeline.NewFetcher(""),
		logf:         log.Printf,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze validates the request, registers the document and runs it
// through the pipeline. Validation failures surface before any state
// is created.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	if err := validateAnalyze(req); err != nil {
		return nil, err
	}
	logf := req.Logf
	if logf == nil {
		logf = s.logf
	}

	doc := &schema.Document{
		ID:         uuid.NewString(),
		FileID:     req.FileID,
		FileName:   req.FileName,
		URL:        req.FileURL,
		MimeType:   req.FileType,
		Status:     schema.StatusPending,
		UploadedAt: time.Now(),
	}
	if err := s.docs.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("register document: %w", err)
	}
	logf("service: analysing %s (%s)", req.FileName, doc.ID)

	data, err := s.fetcher.Fetch(ctx, req.FileURL)
	if err != nil {
		doc.Status = schema.StatusFailed
		doc.ErrorMessage = err.Error()
		if uerr := s.docs.UpdateDocument(ctx, doc); uerr != nil {
			logf("service: mark %s failed: %v", doc.ID, uerr)
		}
		return nil, err
	}
	doc.FileSize = int64(len(data))

	result, err := s.orchestrator.Process(ctx, doc, data)
	if err != nil {
		return nil, err
	}
	logf("service: %s completed with %d findings in %v", doc.ID, len(result.Findings), result.Duration)

	return &AnalyzeResponse{
		DocumentID:       result.DocumentID,
		Status:           result.Status,
		TotalPages:       result.TotalPages,
		TotalChunks:      result.TotalChunks,
		TotalWords:       result.TotalWords,
		ChunksWithErrors: result.ChunksWithErrors,
		Duration:         result.Duration,
		Findings:         result.Findings,
	}, nil
}

func validateAnalyze(req AnalyzeRequest) error {
	for _, field := range []struct{ name, value string }{
		{"file_name", req.FileName},
		{"file_url", req.FileURL},
		{"file_id", req.FileID},
		{"file_type", req.FileType},
	} {
		if field.value == "" {
			return fmt.Errorf("%w: %s is required", schema.ErrValidation, field.name)
		}
	}
	return nil
}

// Search embeds the query and ranks indexed findings or documents.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("%w: query is required", schema.ErrValidation)
	}
	if s.embeddings == nil {
		return nil, fmt.Errorf("search is not configured")
	}
	scope := req.Scope
	if scope == "" {
		scope = ScopeFindings
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	query, err := s.embeddings.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	switch scope {
	case ScopeFindings:
		if s.findings == nil {
			return nil, fmt.Errorf("finding search is not configured")
		}
		matches, err := s.findings.SearchFindings(ctx, query, limit, req.Threshold)
		if err != nil {
			return nil, fmt.Errorf("search findings: %w", err)
		}
		return &SearchResponse{Findings: matches}, nil
	case ScopeDocuments:
		if s.documents == nil {
			return nil, fmt.Errorf("document search is not configured")
		}
		var filter *vectordb.Filter
		if len(req.Metadata) > 0 || req.StartDate != nil || req.EndDate != nil {
			filter = &vectordb.Filter{Metadata: req.Metadata, Start: req.StartDate, End: req.EndDate}
		}
		matches, err := s.documents.SearchDocuments(ctx, query, limit, req.Threshold, filter)
		if err != nil {
			return nil, fmt.Errorf("search documents: %w", err)
		}
		return &SearchResponse{Documents: matches}, nil
	default:
		return nil, fmt.Errorf("%w: unknown scope %q", schema.ErrValidation, scope)
	}
}

// IndexDocument embeds and indexes a generic document for search.
func (s *Service) IndexDocument(ctx context.Context, req IndexDocumentRequest) error {
	if req.Content == "" {
		return fmt.Errorf("%w: content is required", schema.ErrValidation)
	}
	if s.embeddings == nil || s.documents == nil {
		return fmt.Errorf("document indexing is not configured")
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	embedding, err := s.embeddings.Embed(ctx, req.Content)
	if err != nil {
		return fmt.Errorf("embed document: %w", err)
	}
	return s.documents.AddDocuments(ctx, []vectordb.Document{{
		ID:        id,
		Content:   req.Content,
		Metadata:  req.Metadata,
		CreatedAt: time.Now(),
		Embedding: embedding,
	}})
}

// ThemeStats snapshots the theme vocabulary accumulated so far.
func (s *Service) ThemeStats() (practice.ThemeStats, error) {
	if s.classifier == nil {
		return practice.ThemeStats{}, fmt.Errorf("theme classification is not configured")
	}
	return s.classifier.Stats(), nil
}
