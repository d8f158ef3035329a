// Package aitest provides deterministic fakes for the ai interfaces.
package aitest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/AnselmPowell/gov-project/ai"
)

// Completer replays canned responses in order, repeating the last one
// once the script is exhausted. It records every prompt it sees.
type Completer struct {
	Responses []json.RawMessage
	Err       error

	mu      sync.Mutex
	next    int
	Prompts []string
}

// Complete returns the next scripted response.
func (c *Completer) Complete(ctx context.Context, prompt string, fn ai.Function) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Prompts = append(c.Prompts, prompt)
	if c.Err != nil {
		return nil, c.Err
	}
	if len(c.Responses) == 0 {
		return json.RawMessage(`{}`), nil
	}
	idx := c.next
	if idx >= len(c.Responses) {
		idx = len(c.Responses) - 1
	}
	c.next++
	return c.Responses[idx], nil
}

// Calls reports how many completions were requested.
func (c *Completer) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Prompts)
}

// Embedder returns deterministic vectors derived from the input text.
type Embedder struct {
	Dim   int
	Err   error
	mu    sync.Mutex
	calls int
}

// EmbedQuery embeds text deterministically.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	dim := e.Dim
	if dim <= 0 {
		dim = 64
	}
	v := make([]float32, dim)
	var h uint32
	for i := 0; i < len(text); i++ {
		h = h*16777619 ^ uint32(text[i])
	}
	seed := h
	for i := range v {
		seed = seed*1664525 + 1013904223
		v[i] = float32(seed%10000) / 10000.0
	}
	return v, nil
}

// Calls reports how many embeddings were requested.
func (e *Embedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
