package practice

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnselmPowell/gov-project/ai/aitest"
	"github.com/AnselmPowell/gov-project/schema"
	"github.com/AnselmPowell/gov-project/store/memstore"
)

func seedFinding(t *testing.T, docs *memstore.Store, id string) *schema.Finding {
	t.Helper()
	finding := &schema.Finding{
		ID:             id,
		DocumentID:     "doc-1",
		Text:           "Quarterly board reviews",
		Context:        "Finance section",
		Impact:         "Early detection of budget drift",
		ExtractionTime: 250 * time.Millisecond,
	}
	require.NoError(t, docs.CreateFinding(context.Background(), finding))
	return finding
}

func TestClassifier_Classify(t *testing.T) {
	response := json.RawMessage(`{
		"themes": ["Transparent Governance", "Financial Oversight", "Board Effectiveness", "Extra Theme"],
		"keywords": ["audit", "quarterly", "board", "finance", "review", "extra"]
	}`)

	docs := memstore.New()
	seedDocument(t, docs)
	finding := seedFinding(t, docs, "finding-1")
	completer := &aitest.Completer{Responses: []json.RawMessage{response}}
	classifier := NewClassifier(completer, docs, WithClassifierLogf(t.Logf))

	err := classifier.Classify(context.Background(), finding)
	require.NoError(t, err)

	assert.Equal(t, []string{"Transparent Governance", "Financial Oversight", "Board Effectiveness"}, finding.Themes,
		"themes truncate to three")
	assert.Len(t, finding.Keywords, 5, "keywords truncate to five")
	assert.Greater(t, finding.AnalysisTime, time.Duration(0))

	persisted, err := docs.ListFindings(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, finding.Themes, persisted[0].Themes)
}

func TestClassifier_ClassifyCacheHit(t *testing.T) {
	response := json.RawMessage(`{"themes": ["Transparent Governance"], "keywords": ["audit"]}`)

	docs := memstore.New()
	seedDocument(t, docs)
	finding := seedFinding(t, docs, "finding-1")
	completer := &aitest.Completer{Responses: []json.RawMessage{response}}
	classifier := NewClassifier(completer, docs, WithClassifierLogf(t.Logf))

	require.NoError(t, classifier.Classify(context.Background(), finding))
	require.NoError(t, classifier.Classify(context.Background(), finding))

	assert.Equal(t, 1, completer.Calls(), "same finding and extraction time must hit the cache")
	assert.Equal(t, []string{"Transparent Governance"}, finding.Themes)

	stats := classifier.Stats()
	assert.Equal(t, 1, stats.Frequency["Transparent Governance"], "cache hit must not inflate frequency")
}

func TestClassifier_VocabularyGrowsAndRanks(t *testing.T) {
	docs := memstore.New()
	seedDocument(t, docs)
	completer := &aitest.Completer{Responses: []json.RawMessage{
		json.RawMessage(`{"themes": ["Transparent Governance"], "keywords": ["a"]}`),
		json.RawMessage(`{"themes": ["Transparent Governance", "Transparency"], "keywords": ["b"]}`),
		json.RawMessage(`{"themes": ["Safeguarding"], "keywords": ["c"]}`),
	}}
	classifier := NewClassifier(completer, docs, WithClassifierLogf(t.Logf))

	for i, id := range []string{"f-1", "f-2", "f-3"} {
		finding := seedFinding(t, docs, id)
		finding.ExtractionTime = time.Duration(i) * time.Second
		require.NoError(t, classifier.Classify(context.Background(), finding))
	}

	stats := classifier.Stats()
	assert.Equal(t, 3, stats.TotalThemes, "distinct themes are distinct vocabulary entries")
	assert.Equal(t, 2, stats.Frequency["Transparent Governance"])
	assert.Equal(t, 1, stats.Frequency["Transparency"])
	assert.Equal(t, 1, stats.Frequency["Safeguarding"])
	assert.Equal(t, []string{"Transparent Governance", "Safeguarding", "Transparency"}, stats.TopThemes,
		"most frequent first, alphabetical on ties")
}

func TestClassifier_TopThemesFeedPrompt(t *testing.T) {
	docs := memstore.New()
	seedDocument(t, docs)
	completer := &aitest.Completer{Responses: []json.RawMessage{
		json.RawMessage(`{"themes": ["Transparent Governance"], "keywords": ["a"]}`),
	}}
	classifier := NewClassifier(completer, docs, WithClassifierLogf(t.Logf))

	first := seedFinding(t, docs, "f-1")
	require.NoError(t, classifier.Classify(context.Background(), first))

	second := seedFinding(t, docs, "f-2")
	require.NoError(t, classifier.Classify(context.Background(), second))

	require.Len(t, completer.Prompts, 2)
	assert.NotContains(t, completer.Prompts[0], "Transparent Governance")
	assert.Contains(t, completer.Prompts[1], "Transparent Governance",
		"established themes are offered as hints to later classifications")
}

func TestClassifier_ClassifyError(t *testing.T) {
	docs := memstore.New()
	seedDocument(t, docs)
	finding := seedFinding(t, docs, "finding-1")
	completer := &aitest.Completer{Err: errors.New("timeout")}
	classifier := NewClassifier(completer, docs, WithClassifierLogf(t.Logf))

	err := classifier.Classify(context.Background(), finding)
	var extractionErr *schema.ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, "theme analysis", extractionErr.Op)
	assert.Empty(t, finding.Themes, "failed classification leaves the finding untouched")
}
