// Package ai defines the capability boundary to the external language
// model: structured extraction calls and text embeddings. The pipeline
// only sees these interfaces, so tests run against deterministic fakes.
package ai

import (
	"context"
	"encoding/json"
)

// Function names a structured response contract for a completion call.
// Parameters holds the JSON schema the model must conform to.
type Function struct {
	Name       string
	Parameters json.RawMessage
}

// Completer performs one structured chat round-trip. No retries: a
// failure propagates immediately to the calling stage.
type Completer interface {
	Complete(ctx context.Context, prompt string, fn Function) (json.RawMessage, error)
}

// Embedder computes a fixed-length vector embedding for a text.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
