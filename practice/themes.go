package practice

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AnselmPowell/gov-project/ai"
	"github.com/AnselmPowell/gov-project/cache"
	"github.com/AnselmPowell/gov-project/schema"
	"github.com/AnselmPowell/gov-project/store"
)

const (
	maxThemesPerFinding   = 3
	maxKeywordsPerFinding = 5
	topThemeHints         = 5
)

// ThemeAnalysis is the structured classification response.
type ThemeAnalysis struct {
	Themes   []string `json:"themes"`
	Keywords []string `json:"keywords"`
}

var themeSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"themes": {"type": "array", "items": {"type": "string"}},
		"keywords": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["themes", "keywords"]
}`)

// Classifier assigns consistent themes across an unbounded stream of
// findings. The vocabulary only grows and frequencies only increase
// within a run; updates are serialized behind one mutex even when
// extraction and embedding run concurrently.
type Classifier struct {
	completer ai.Completer
	docs      store.DocStore
	cache     *cache.Cache[ThemeAnalysis]
	logf      func(format string, args ...any)

	mu    sync.Mutex
	known map[string]struct{}
	freq  map[string]int
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithClassifierLogf sets the classifier's log function.
func WithClassifierLogf(logf func(format string, args ...any)) ClassifierOption {
	return func(c *Classifier) { c.logf = logf }
}

// NewClassifier creates a Classifier with an empty vocabulary.
func NewClassifier(completer ai.Completer, docs store.DocStore, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		completer: completer,
		docs:      docs,
		cache:     cache.New[ThemeAnalysis](cache.DefaultCapacity),
		logf:      log.Printf,
		known:     make(map[string]struct{}),
		freq:      make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify sets themes, keywords and analysis time on the finding and
// persists the update. Re-classifying the same finding instance is a
// no-op after the first call.
func (c *Classifier) Classify(ctx context.Context, finding *schema.Finding) error {
	cacheKey := fmt.Sprintf("%s:%d", finding.ID, finding.ExtractionTime)
	if cached, ok := c.cache.Get(cacheKey); ok {
		c.logf("themes: cache hit for finding %s", finding.ID)
		finding.Themes = cached.Themes
		finding.Keywords = cached.Keywords
		return nil
	}

	started := time.Now()
	raw, err := c.completer.Complete(ctx, c.buildPrompt(finding), ai.Function{
		Name:       "analyze_theme",
		Parameters: themeSchema,
	})
	if err != nil {
		return &schema.ExtractionError{Op: "theme analysis", Err: err}
	}

	var analysis ThemeAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return &schema.ExtractionError{Op: "theme analysis decode", Err: err}
	}
	if len(analysis.Themes) > maxThemesPerFinding {
		analysis.Themes = analysis.Themes[:maxThemesPerFinding]
	}
	if len(analysis.Keywords) > maxKeywordsPerFinding {
		analysis.Keywords = analysis.Keywords[:maxKeywordsPerFinding]
	}

	c.mu.Lock()
	for _, theme := range analysis.Themes {
		c.known[theme] = struct{}{}
		c.freq[theme]++
	}
	c.mu.Unlock()

	finding.Themes = analysis.Themes
	finding.Keywords = analysis.Keywords
	finding.AnalysisTime = time.Since(started)
	if err := c.docs.UpdateFinding(ctx, finding); err != nil {
		return fmt.Errorf("persist theme analysis: %w", err)
	}

	c.cache.Put(cacheKey, analysis)
	return nil
}

func (c *Classifier) buildPrompt(finding *schema.Finding) string {
	top := c.TopThemes(topThemeHints)
	hints, _ := json.Marshal(top)

	var b strings.Builder
	fmt.Fprintf(&b, "Common Themes: %s\n\n", hints)
	fmt.Fprintf(&b, "Best Practice: %s\nContext: %s\nImpact: %s\n\n", finding.Text, finding.Context, finding.Impact)
	fmt.Fprintf(&b, `Task: Analyze this best practice to identify:
1. Key governance themes (max %d) - consider reusing existing themes where relevant
2. Specific keywords (max %d) that capture the core concepts

Ensure themes are consistent and keywords are specific.`, maxThemesPerFinding, maxKeywordsPerFinding)
	return b.String()
}

// TopThemes returns the n most frequent themes, most frequent first.
// Ties break alphabetically so prompt hints stay deterministic.
func (c *Classifier) TopThemes(n int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	themes := make([]string, 0, len(c.freq))
	for theme := range c.freq {
		themes = append(themes, theme)
	}
	sort.Slice(themes, func(i, j int) bool {
		if c.freq[themes[i]] != c.freq[themes[j]] {
			return c.freq[themes[i]] > c.freq[themes[j]]
		}
		return themes[i] < themes[j]
	})
	if len(themes) > n {
		themes = themes[:n]
	}
	return themes
}

// ThemeStats is a point-in-time snapshot of the vocabulary.
type ThemeStats struct {
	TotalThemes int
	Frequency   map[string]int
	TopThemes   []string
}

// Stats snapshots theme usage.
func (c *Classifier) Stats() ThemeStats {
	top := c.TopThemes(topThemeHints)
	c.mu.Lock()
	defer c.mu.Unlock()
	freq := make(map[string]int, len(c.freq))
	for theme, count := range c.freq {
		freq[theme] = count
	}
	return ThemeStats{TotalThemes: len(c.known), Frequency: freq, TopThemes: top}
}
