package provider

import "context"

// Embedder turns text into a fixed-length vector. The serving path calls it
// once per question; the index builder calls it once per content chunk.
// A failed call aborts the operation, retries belong to the caller.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces the natural-language answer from the visitor's
// question and the assembled portfolio context.
type Generator interface {
	Generate(ctx context.Context, question, contextText string) (string, error)
}
