package practice

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AnselmPowell/gov-project/ai"
	"github.com/AnselmPowell/gov-project/cache"
	"github.com/AnselmPowell/gov-project/schema"
	"github.com/AnselmPowell/gov-project/store"
)

// Extractor analyses chunks for governance best practices and concerns.
// Results for identical chunk text are served from a bounded cache.
type Extractor struct {
	completer ai.Completer
	docs      store.DocStore
	cache     *cache.Cache[schema.Finding]
	logf      func(format string, args ...any)
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithExtractorCacheCapacity overrides the chunk result cache bound.
func WithExtractorCacheCapacity(capacity int) ExtractorOption {
	return func(e *Extractor) { e.cache = cache.New[schema.Finding](capacity) }
}

// WithExtractorLogf sets the extractor's log function.
func WithExtractorLogf(logf func(format string, args ...any)) ExtractorOption {
	return func(e *Extractor) { e.logf = logf }
}

// NewExtractor creates an Extractor persisting findings to docs.
func NewExtractor(completer ai.Completer, docs store.DocStore, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		completer: completer,
		docs:      docs,
		cache:     cache.New[schema.Finding](cache.DefaultCapacity),
		logf:      log.Printf,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessChunk analyses one chunk against the document summary. A chunk
// without governance-relevant content returns (nil, nil): the common
// case, not an error. Malformed model responses surface as
// schema.ExtractionError so the caller can skip the chunk.
func (e *Extractor) ProcessChunk(ctx context.Context, chunk *schema.Chunk, summary schema.Summary) ([]*schema.Finding, error) {
	key := cache.Key(chunk.Text)
	if cached, ok := e.cache.Get(key); ok {
		e.logf("practice: cache hit for chunk %d/%d", chunk.PageNumber, chunk.Position)
		hit := cached
		return []*schema.Finding{&hit}, nil
	}

	started := time.Now()
	raw, err := e.completer.Complete(ctx, e.buildPrompt(chunk.Text, summary), ai.Function{
		Name:       "analyze_governance_content",
		Parameters: analysisSchema,
	})
	if err != nil {
		return nil, &schema.ExtractionError{Op: "chunk analysis", Err: err}
	}

	var analysis chunkAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, &schema.ExtractionError{Op: "chunk analysis decode", Err: err}
	}
	if analysis.CriteriaMet == nil {
		return nil, &schema.ExtractionError{Op: "chunk analysis decode", Err: fmt.Errorf("criteria_met missing")}
	}
	if !*analysis.CriteriaMet {
		return nil, nil
	}

	extractionTime := time.Since(started)
	var findings []*schema.Finding
	for _, data := range analysis.Practices {
		finding := &schema.Finding{
			ID:             uuid.NewString(),
			DocumentID:     chunk.DocumentID,
			Text:           data.Practice,
			Context:        data.Context,
			Impact:         data.Impact,
			Themes:         []string{data.Category},
			Keywords:       strings.Fields(data.Evidence),
			IsBestPractice: data.IsBestPractice,
			Confidence:     confidenceScore(data, chunk.WordCount),
			PageNumber:     chunk.PageNumber,
			ExtractionTime: extractionTime,
			CreatedAt:      time.Now(),
		}
		if err := e.docs.CreateFinding(ctx, finding); err != nil {
			return nil, fmt.Errorf("persist finding: %w", err)
		}
		findings = append(findings, finding)
	}

	if len(findings) > 0 {
		best := findings[0]
		for _, finding := range findings[1:] {
			if finding.Confidence > best.Confidence {
				best = finding
			}
		}
		e.cache.Put(key, *best)
	}
	return findings, nil
}

func (e *Extractor) buildPrompt(text string, summary schema.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Context: %s\n\n", governanceContext)
	fmt.Fprintf(&b, "Best practice categories: %s\n", strings.Join(bestPracticeCategories, ", "))
	fmt.Fprintf(&b, "Concern categories: %s\n\n", strings.Join(concernCategories, ", "))
	fmt.Fprintf(&b, "# Partner Name: %s\nPartner %s background:\n%s\n\n", summary.PartnerName, summary.PartnerName, summary.Synopsis)
	fmt.Fprintf(&b, "Below is a chunk of text from the partner report for %s.\nDocument Text: %s\n\n", summary.PartnerName, text)
	b.WriteString(`Task: Analyze the text for governance best practices and/or concerns.

First, determine if the Document Text contains significant governance content relevant to the governance team. Most chunks will not contain any best practices or concerns; that is expected. If the Document Text does not contain significant governance content, respond with {"criteria_met": false, "practices": []}.

If governance criteria are met:
1. Identify each item as a best practice (is_best_practice true) or concern (false).
2. Categorize each finding into one of the predefined categories.
3. Provide specific evidence from the text.
4. Assess the impact.`)
	return b.String()
}

// confidenceScore multiplies independent adjustment factors and clamps
// the result to [0, 1].
func confidenceScore(data practiceData, wordCount int) float64 {
	score := 1.0

	if wordCount < 50 {
		score *= 0.8
	} else if wordCount > 500 {
		score *= 0.9
	}

	if data.Evidence != "" && len(strings.Fields(data.Evidence)) > 10 {
		score *= 1.1
	}

	if matchesKnownCategory(data.Category) {
		score *= 1.1
	}

	if data.Practice == "" || data.Category == "" || data.Context == "" || data.Impact == "" || data.Evidence == "" {
		score *= 0.7
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
