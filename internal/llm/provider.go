// Package llm provides chat-completion providers used to classify messages.
// Implementations: Ollama (local) and any OpenAI-compatible endpoint.
package llm

import (
	"context"
	"time"
)

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes a single completion call. An empty Model selects the
// provider's configured model.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   *int
}

// Response is the raw model output plus the measured round-trip latency.
type Response struct {
	Content string
	Model   string
	Latency time.Duration
}

// Provider generates chat completions. Implementations must return an error
// on transport failures and non-2xx responses; an empty completion is never
// returned silently as success.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	// Name returns the provider identifier ("ollama", "openai").
	Name() string
}
