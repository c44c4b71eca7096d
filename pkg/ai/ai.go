package ai

import (
	"context"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

// Classifier maps a user message to one of the intent categories. An
// empty result means the model could not decide; the router falls back
// to its keyword tables.
type Classifier interface {
	Classify(ctx context.Context, query string, history []types.ChatMessage) (string, error)
}

// Generator produces conversational replies and standalone rewrites of
// context-dependent follow-ups.
type Generator interface {
	Generate(ctx context.Context, system string, messages []types.ChatMessage) (string, error)
	Rephrase(ctx context.Context, query string, history []types.ChatMessage) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

type Driver interface {
	Classifier
	Generator
	Embedder
	Lang() string
}
