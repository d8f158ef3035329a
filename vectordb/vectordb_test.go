package vectordb

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestL2(t *testing.T) {
	assert.InDelta(t, 5.0, L2([]float32{0, 0}, []float32{3, 4}), 1e-9)
	assert.InDelta(t, 0.0, L2([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.True(t, math.IsInf(L2([]float32{1}, []float32{1, 2}), 1), "dimension mismatch")
	assert.True(t, math.IsInf(L2(nil, nil), 1), "empty vectors")
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0.0, CosineDistance([]float32{1, 0}, []float32{2, 0}), 1e-9, "parallel vectors")
	assert.InDelta(t, 1.0, CosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9, "orthogonal vectors")
	assert.InDelta(t, 2.0, CosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-9, "opposite vectors")
	assert.True(t, math.IsInf(CosineDistance([]float32{0, 0}, []float32{1, 0}), 1), "zero vector")
	assert.True(t, math.IsInf(CosineDistance([]float32{1}, []float32{1, 0}), 1), "dimension mismatch")
}

func TestFilter_Empty(t *testing.T) {
	now := time.Now()
	var nilFilter *Filter
	assert.True(t, nilFilter.Empty())
	assert.True(t, (&Filter{}).Empty())
	assert.False(t, (&Filter{Metadata: map[string]string{"partner": "a"}}).Empty())
	assert.False(t, (&Filter{Start: &now}).Empty())
	assert.False(t, (&Filter{End: &now}).Empty())
}

func TestFilter_Matches(t *testing.T) {
	created := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	doc := Document{
		ID:        "d-1",
		Metadata:  map[string]string{"partner": "Hockey Wales", "kind": "note"},
		CreatedAt: created,
	}
	before := created.Add(-time.Hour)
	after := created.Add(time.Hour)

	cases := []struct {
		description string
		filter      *Filter
		expect      bool
	}{
		{description: "nil filter matches", filter: nil, expect: true},
		{description: "empty filter matches", filter: &Filter{}, expect: true},
		{description: "matching metadata", filter: &Filter{Metadata: map[string]string{"partner": "Hockey Wales"}}, expect: true},
		{description: "mismatched metadata", filter: &Filter{Metadata: map[string]string{"partner": "Bowls Wales"}}, expect: false},
		{description: "missing metadata key", filter: &Filter{Metadata: map[string]string{"owner": "x"}}, expect: false},
		{description: "inside interval", filter: &Filter{Start: &before, End: &after}, expect: true},
		{description: "interval bounds are inclusive", filter: &Filter{Start: &created, End: &created}, expect: true},
		{description: "before start", filter: &Filter{Start: &after}, expect: false},
		{description: "after end", filter: &Filter{End: &before}, expect: false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expect, tc.filter.Matches(doc), tc.description)
	}
}
