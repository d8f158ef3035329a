// Package pipeline orchestrates document analysis from raw bytes to
// classified, vector-indexed findings.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AnselmPowell/gov-project/chunker"
	"github.com/AnselmPowell/gov-project/extractor"
	"github.com/AnselmPowell/gov-project/practice"
	"github.com/AnselmPowell/gov-project/schema"
	"github.com/AnselmPowell/gov-project/store"
	"github.com/AnselmPowell/gov-project/vectordb"
)

const (
	// DefaultBatchSize is how many chunks are analysed per batch.
	DefaultBatchSize = 3
	// DefaultWorkers bounds concurrent chunk analysis within a batch.
	DefaultWorkers = 3
)

// Result aggregates one document's processing outcome.
type Result struct {
	DocumentID       string
	TotalChunks      int
	TotalPages       int
	TotalWords       int
	ChunksWithErrors int
	Duration         time.Duration
	Findings         []*schema.Finding
	Status           schema.Status
}

// Orchestrator drives a document through parse, chunk, extract, analyze
// and vectorize stages. Per-chunk analysis failures are counted and
// skipped; stage-level failures mark the document FAILED. The terminal
// status is written exactly once.
type Orchestrator struct {
	docs       store.DocStore
	extractor  *practice.Extractor
	classifier *practice.Classifier
	summarizer *practice.Summarizer
	embeddings *vectordb.EmbeddingService
	index      vectordb.FindingIndex
	splitter   *chunker.Chunker
	monitor    *Monitor
	batchSize  int
	workers    int
	logf       func(format string, args ...any)
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithClassifier enables theme classification of extracted findings.
func WithClassifier(classifier *practice.Classifier) OrchestratorOption {
	return func(o *Orchestrator) { o.classifier = classifier }
}

// WithSummarizer enables document summarisation from the first chunk.
func WithSummarizer(summarizer *practice.Summarizer) OrchestratorOption {
	return func(o *Orchestrator) { o.summarizer = summarizer }
}

// WithVectorizer enables embedding and indexing of findings.
func WithVectorizer(embeddings *vectordb.EmbeddingService, index vectordb.FindingIndex) OrchestratorOption {
	return func(o *Orchestrator) {
		o.embeddings = embeddings
		o.index = index
	}
}

// WithBatchSize overrides the chunk batch size.
func WithBatchSize(size int) OrchestratorOption {
	return func(o *Orchestrator) {
		if size > 0 {
			o.batchSize = size
		}
	}
}

// WithWorkers overrides the in-batch concurrency bound.
func WithWorkers(workers int) OrchestratorOption {
	return func(o *Orchestrator) {
		if workers > 0 {
			o.workers = workers
		}
	}
}

// WithChunker overrides the text splitter.
func WithChunker(splitter *chunker.Chunker) OrchestratorOption {
	return func(o *Orchestrator) { o.splitter = splitter }
}

// WithLogf sets the orchestrator's log function.
func WithLogf(logf func(format string, args ...any)) OrchestratorOption {
	return func(o *Orchestrator) { o.logf = logf }
}

// NewOrchestrator creates an Orchestrator persisting to docs and
// analysing chunks with prac.
func NewOrchestrator(docs store.DocStore, prac *practice.Extractor, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		docs:      docs,
		extractor: prac,
		splitter:  chunker.New(chunker.DefaultChunkSize, chunker.DefaultOverlap),
		batchSize: DefaultBatchSize,
		workers:   DefaultWorkers,
		logf:      log.Printf,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.monitor = NewMonitor(docs, o.logf)
	return o
}

// Process runs the full pipeline over data for doc. doc must already be
// persisted with StatusPending.
func (o *Orchestrator) Process(ctx context.Context, doc *schema.Document, data []byte) (*Result, error) {
	started := time.Now()
	doc.Status = schema.StatusProcessing
	if err := o.docs.UpdateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}

	fail := func(stage string, stageStarted time.Time, err error) (*Result, error) {
		o.monitor.Record(ctx, doc.ID, stage, stageStarted, err)
		doc.Status = schema.StatusFailed
		doc.ErrorMessage = err.Error()
		doc.Duration = time.Since(started)
		if uerr := o.docs.UpdateDocument(ctx, doc); uerr != nil {
			o.logf("pipeline: mark %s failed: %v", doc.ID, uerr)
		}
		return nil, err
	}

	stageStarted := time.Now()
	pages, err := extractor.ExtractPages(data, doc.MimeType)
	if err != nil {
		return fail(StageParse, stageStarted, err)
	}
	if len(pages) == 0 {
		return fail(StageParse, stageStarted, fmt.Errorf("document has no extractable text"))
	}
	doc.TotalPages = len(pages)
	o.monitor.Record(ctx, doc.ID, StageParse, stageStarted, nil)

	stageStarted = time.Now()
	chunks, totalWords, err := o.persistChunks(ctx, doc.ID, pages)
	if err != nil {
		return fail(StageChunk, stageStarted, err)
	}
	o.monitor.Record(ctx, doc.ID, StageChunk, stageStarted, nil)

	var summary schema.Summary
	if o.summarizer != nil {
		summary = o.summarizer.Summarize(ctx, chunks[0].Text)
	}

	stageStarted = time.Now()
	findings, chunksWithErrors, err := o.extractFindings(ctx, chunks, summary)
	if err != nil {
		return fail(StageExtract, stageStarted, err)
	}
	o.monitor.Record(ctx, doc.ID, StageExtract, stageStarted, nil)

	if o.classifier != nil {
		stageStarted = time.Now()
		for _, finding := range findings {
			if err := o.classifier.Classify(ctx, finding); err != nil {
				o.logf("pipeline: classify finding %s: %v", finding.ID, err)
			}
		}
		o.monitor.Record(ctx, doc.ID, StageAnalyze, stageStarted, nil)
	}

	if o.embeddings != nil && o.index != nil {
		stageStarted = time.Now()
		o.vectorize(ctx, findings)
		o.monitor.Record(ctx, doc.ID, StageVectorize, stageStarted, nil)
	}

	doc.Status = schema.StatusCompleted
	doc.Duration = time.Since(started)
	if err := o.docs.UpdateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}

	return &Result{
		DocumentID:       doc.ID,
		TotalChunks:      len(chunks),
		TotalPages:       doc.TotalPages,
		TotalWords:       totalWords,
		ChunksWithErrors: chunksWithErrors,
		Duration:         doc.Duration,
		Findings:         findings,
		Status:           doc.Status,
	}, nil
}

func (o *Orchestrator) persistChunks(ctx context.Context, documentID string, pages []schema.Page) ([]*schema.Chunk, int, error) {
	var chunks []*schema.Chunk
	totalWords := 0
	for _, page := range pages {
		for position, piece := range o.splitter.Split(page.Text) {
			chunk := &schema.Chunk{
				ID:         uuid.NewString(),
				DocumentID: documentID,
				Text:       piece.Text,
				PageNumber: page.Number,
				Position:   position,
				Size:       len(piece.Text),
				WordCount:  piece.Size,
			}
			if err := o.docs.CreateChunk(ctx, chunk); err != nil {
				return nil, 0, fmt.Errorf("persist chunk %d/%d: %w", chunk.PageNumber, chunk.Position, err)
			}
			totalWords += chunk.WordCount
			chunks = append(chunks, chunk)
		}
	}
	if len(chunks) == 0 {
		return nil, 0, fmt.Errorf("document produced no chunks")
	}
	return chunks, totalWords, nil
}

// extractFindings analyses chunks in batches with bounded concurrency.
// Findings are re-sorted by (page, position) so the output order never
// depends on goroutine completion order.
func (o *Orchestrator) extractFindings(ctx context.Context, chunks []*schema.Chunk, summary schema.Summary) ([]*schema.Finding, int, error) {
	type chunkResult struct {
		page     int
		position int
		findings []*schema.Finding
	}
	var (
		mu               sync.Mutex
		collected        []chunkResult
		chunksWithErrors int
	)

	for batchStart := 0; batchStart < len(chunks); batchStart += o.batchSize {
		batchEnd := batchStart + o.batchSize
		if batchEnd > len(chunks) {
			batchEnd = len(chunks)
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.workers)
		for _, chunk := range chunks[batchStart:batchEnd] {
			chunk := chunk
			g.Go(func() error {
				chunkStarted := time.Now()
				findings, err := o.extractor.ProcessChunk(gctx, chunk, summary)
				chunk.ProcessingTime = time.Since(chunkStarted)
				if uerr := o.docs.UpdateChunk(gctx, chunk); uerr != nil {
					o.logf("pipeline: persist chunk %d/%d timing: %v", chunk.PageNumber, chunk.Position, uerr)
				}
				if err != nil {
					o.logf("pipeline: chunk %d/%d analysis failed, skipping: %v", chunk.PageNumber, chunk.Position, err)
					mu.Lock()
					chunksWithErrors++
					mu.Unlock()
					return nil
				}
				if len(findings) > 0 {
					mu.Lock()
					collected = append(collected, chunkResult{page: chunk.PageNumber, position: chunk.Position, findings: findings})
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, 0, err
		}
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
	}

	sort.Slice(collected, func(i, j int) bool {
		if collected[i].page != collected[j].page {
			return collected[i].page < collected[j].page
		}
		return collected[i].position < collected[j].position
	})
	var findings []*schema.Finding
	for _, result := range collected {
		findings = append(findings, result.findings...)
	}
	return findings, chunksWithErrors, nil
}

// vectorize embeds and indexes findings. Individual embedding failures
// are logged and skipped so one bad finding never blocks the rest.
func (o *Orchestrator) vectorize(ctx context.Context, findings []*schema.Finding) {
	var embedded []*schema.Finding
	for _, finding := range findings {
		if err := o.embeddings.EmbedFindings(ctx, []*schema.Finding{finding}); err != nil {
			o.logf("pipeline: embed finding %s: %v", finding.ID, err)
			continue
		}
		embedded = append(embedded, finding)
	}
	if len(embedded) == 0 {
		return
	}
	if err := o.index.AddFindings(ctx, embedded); err != nil {
		o.logf("pipeline: index findings: %v", err)
		return
	}
	for _, finding := range embedded {
		if err := o.docs.UpdateFinding(ctx, finding); err != nil {
			o.logf("pipeline: persist embedding for %s: %v", finding.ID, err)
		}
	}
}
