package core

import "context"

type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMProvider generates an answer from a system and user prompt, handing
// tokens to emit as they are produced. Returning an error from emit stops
// the stream.
type LLMProvider interface {
	GenerateStream(ctx context.Context, systemPrompt, userPrompt string, emit func(token string) error) error
}
