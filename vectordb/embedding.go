package vectordb

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/AnselmPowell/gov-project/ai"
	"github.com/AnselmPowell/gov-project/cache"
	"github.com/AnselmPowell/gov-project/schema"
)

// DefaultEmbeddingTTL bounds how long a cached embedding stays valid.
const DefaultEmbeddingTTL = 24 * time.Hour

// EmbeddingService embeds text through an ai.Embedder with a bounded
// TTL cache in front. Texts differing only in whitespace share one
// cache entry and one API call.
type EmbeddingService struct {
	embedder ai.Embedder
	cache    *cache.Cache[[]float32]
	logf     func(format string, args ...any)
}

// EmbeddingOption configures an EmbeddingService.
type EmbeddingOption func(*EmbeddingService)

// WithEmbeddingCache overrides the cache capacity and TTL.
func WithEmbeddingCache(capacity int, ttl time.Duration) EmbeddingOption {
	return func(s *EmbeddingService) { s.cache = cache.NewTTL[[]float32](capacity, ttl) }
}

// WithEmbeddingLogf sets the service's log function.
func WithEmbeddingLogf(logf func(format string, args ...any)) EmbeddingOption {
	return func(s *EmbeddingService) { s.logf = logf }
}

// NewEmbeddingService creates an EmbeddingService with default cache bounds.
func NewEmbeddingService(embedder ai.Embedder, opts ...EmbeddingOption) *EmbeddingService {
	s := &EmbeddingService{
		embedder: embedder,
		cache:    cache.NewTTL[[]float32](cache.DefaultCapacity, DefaultEmbeddingTTL),
		logf:     log.Printf,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed returns the embedding for text, serving repeats from cache.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil, fmt.Errorf("embed: empty text")
	}
	key := cache.Key(normalized)
	if vec, ok := s.cache.Get(key); ok {
		out := make([]float32, len(vec))
		copy(out, vec)
		return out, nil
	}
	vec, err := s.embedder.EmbedQuery(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	s.cache.Put(key, vec)
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, nil
}

// EmbedFindings sets the Embedding field on each finding from its
// composite text. Findings that already carry an embedding are skipped.
func (s *EmbeddingService) EmbedFindings(ctx context.Context, findings []*schema.Finding) error {
	for _, finding := range findings {
		if len(finding.Embedding) > 0 {
			continue
		}
		vec, err := s.Embed(ctx, FindingText(finding))
		if err != nil {
			return fmt.Errorf("finding %s: %w", finding.ID, err)
		}
		finding.Embedding = vec
	}
	return nil
}

// FindingText builds the text a finding is embedded under: the practice
// statement, its context and its impact, newline-joined. Classification
// output is excluded so the embedded text is identical before and after
// theme analysis.
func FindingText(finding *schema.Finding) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{finding.Text, finding.Context, finding.Impact} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "\n")
}
