package practice

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnselmPowell/gov-project/ai/aitest"
	"github.com/AnselmPowell/gov-project/schema"
	"github.com/AnselmPowell/gov-project/store/memstore"
)

func testChunk(text string, wordCount int) *schema.Chunk {
	return &schema.Chunk{
		ID:         "chunk-1",
		DocumentID: "doc-1",
		Text:       text,
		PageNumber: 2,
		Position:   0,
		WordCount:  wordCount,
	}
}

func seedDocument(t *testing.T, docs *memstore.Store) {
	t.Helper()
	err := docs.CreateDocument(context.Background(), &schema.Document{ID: "doc-1", FileName: "report.pdf"})
	require.NoError(t, err)
}

func TestExtractor_ProcessChunk(t *testing.T) {
	response := json.RawMessage(`{
		"criteria_met": true,
		"practices": [
			{
				"practice": "Quarterly board reviews of financial statements",
				"category": "Strong Financial Management",
				"context": "Annual report finance section",
				"impact": "Early detection of budget drift",
				"is_best_practice": true,
				"evidence": "The board reviews audited financial statements every quarter with an independent chair present"
			},
			{
				"practice": "No published conflict of interest register",
				"category": "Weak Governance Structures",
				"context": "Board composition section",
				"impact": "Reduced public trust",
				"is_best_practice": false,
				"evidence": "register not published"
			}
		]
	}`)

	docs := memstore.New()
	seedDocument(t, docs)
	completer := &aitest.Completer{Responses: []json.RawMessage{response}}
	extractor := NewExtractor(completer, docs, WithExtractorLogf(t.Logf))

	findings, err := extractor.ProcessChunk(context.Background(), testChunk("governance text", 120), schema.Summary{PartnerName: "Hockey Wales"})
	require.NoError(t, err)
	require.Len(t, findings, 2)

	best := findings[0]
	assert.Equal(t, "Quarterly board reviews of financial statements", best.Text)
	assert.Equal(t, []string{"Strong Financial Management"}, best.Themes)
	assert.True(t, best.IsBestPractice)
	assert.Equal(t, 2, best.PageNumber)
	assert.NotEmpty(t, best.ID)
	// evidence > 10 words and a known category: 1.0 * 1.1 * 1.1, clamped
	assert.Equal(t, 1.0, best.Confidence)

	concern := findings[1]
	assert.False(t, concern.IsBestPractice)
	// short evidence, known category: 1.0 * 1.1, clamped
	assert.Equal(t, 1.0, concern.Confidence)

	persisted, err := docs.ListFindings(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Len(t, persisted, 2)

	require.Len(t, completer.Prompts, 1)
	assert.Contains(t, completer.Prompts[0], "Hockey Wales")
	assert.Contains(t, completer.Prompts[0], "Strong Financial Management")
}

func TestExtractor_ProcessChunkCriteriaNotMet(t *testing.T) {
	docs := memstore.New()
	seedDocument(t, docs)
	completer := &aitest.Completer{Responses: []json.RawMessage{json.RawMessage(`{"criteria_met": false, "practices": []}`)}}
	extractor := NewExtractor(completer, docs, WithExtractorLogf(t.Logf))

	findings, err := extractor.ProcessChunk(context.Background(), testChunk("weather notes", 80), schema.Summary{})
	require.NoError(t, err)
	assert.Nil(t, findings)

	persisted, err := docs.ListFindings(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestExtractor_ProcessChunkCacheShortCircuits(t *testing.T) {
	response := json.RawMessage(`{
		"criteria_met": true,
		"practices": [{
			"practice": "Published risk register",
			"category": "Risk Management & Compliance",
			"context": "Risk section",
			"impact": "Informed oversight",
			"is_best_practice": true,
			"evidence": "risk register published quarterly"
		}]
	}`)

	docs := memstore.New()
	seedDocument(t, docs)
	completer := &aitest.Completer{Responses: []json.RawMessage{response}}
	extractor := NewExtractor(completer, docs, WithExtractorLogf(t.Logf))

	first, err := extractor.ProcessChunk(context.Background(), testChunk("identical text", 60), schema.Summary{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := extractor.ProcessChunk(context.Background(), testChunk("identical  text", 60), schema.Summary{})
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, 1, completer.Calls(), "second identical chunk must be served from cache")
	assert.Equal(t, first[0].Text, second[0].Text)
}

func TestExtractor_ProcessChunkMalformedResponse(t *testing.T) {
	cases := []struct {
		description string
		response    json.RawMessage
	}{
		{description: "invalid json", response: json.RawMessage(`{not json`)},
		{description: "missing criteria_met", response: json.RawMessage(`{"practices": []}`)},
	}
	for _, tc := range cases {
		docs := memstore.New()
		seedDocument(t, docs)
		completer := &aitest.Completer{Responses: []json.RawMessage{tc.response}}
		extractor := NewExtractor(completer, docs, WithExtractorLogf(t.Logf))

		_, err := extractor.ProcessChunk(context.Background(), testChunk("text", 60), schema.Summary{})
		var extractionErr *schema.ExtractionError
		assert.True(t, errors.As(err, &extractionErr), tc.description)
	}
}

func TestExtractor_ProcessChunkCompleterError(t *testing.T) {
	docs := memstore.New()
	seedDocument(t, docs)
	completer := &aitest.Completer{Err: errors.New("rate limited")}
	extractor := NewExtractor(completer, docs, WithExtractorLogf(t.Logf))

	_, err := extractor.ProcessChunk(context.Background(), testChunk("text", 60), schema.Summary{})
	var extractionErr *schema.ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, "chunk analysis", extractionErr.Op)
}

func TestConfidenceScore(t *testing.T) {
	complete := practiceData{
		Practice: "p", Category: "Strategic Objectives", Context: "c", Impact: "i",
		Evidence: "one two three four five six seven eight nine ten eleven",
	}
	unknownCategory := complete
	unknownCategory.Category = "Something Else Entirely"
	shortEvidence := complete
	shortEvidence.Evidence = "brief"

	cases := []struct {
		description string
		data        practiceData
		wordCount   int
		expect      float64
	}{
		{description: "all fields missing", data: practiceData{}, wordCount: 100, expect: 0.7},
		{description: "short chunk with missing fields", data: practiceData{}, wordCount: 10, expect: 0.8 * 0.7},
		{description: "long chunk with missing fields", data: practiceData{}, wordCount: 600, expect: 0.9 * 0.7},
		{description: "strong evidence and known category clamps to 1", data: complete, wordCount: 100, expect: 1.0},
		{description: "unknown category keeps evidence bonus", data: unknownCategory, wordCount: 100, expect: 1.0},
		{description: "short evidence known category", data: shortEvidence, wordCount: 100, expect: 1.0},
		{description: "short evidence known category short chunk", data: shortEvidence, wordCount: 10, expect: 0.8 * 1.1},
	}
	for _, tc := range cases {
		got := confidenceScore(tc.data, tc.wordCount)
		assert.InDelta(t, tc.expect, got, 1e-9, tc.description)
		assert.LessOrEqual(t, got, 1.0, tc.description)
		assert.GreaterOrEqual(t, got, 0.0, tc.description)
	}
}

func TestMatchesKnownCategory(t *testing.T) {
	assert.True(t, matchesKnownCategory("Transparent Governance"))
	assert.True(t, matchesKnownCategory("strong financial management practices"))
	assert.False(t, matchesKnownCategory("Transparency"))
	assert.False(t, matchesKnownCategory(""))
}
