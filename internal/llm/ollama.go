package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// OllamaProvider talks to a local Ollama server via /api/chat.
type OllamaProvider struct {
	client *resty.Client
	model  string
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  *int    `json:"num_predict,omitempty"`
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaChatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Error   string  `json:"error"`
}

// NewOllamaProvider returns a provider for the Ollama host (scheme optional).
func NewOllamaProvider(host, model string, timeout time.Duration) *OllamaProvider {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(host, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &OllamaProvider{client: client, model: model}
}

func (p *OllamaProvider) Name() string { return "ollama" }

// Model returns the configured default model.
func (p *OllamaProvider) Model() string { return p.model }

func (p *OllamaProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	body := ollamaChatRequest{
		Model:    model,
		Messages: req.Messages,
		Stream:   false,
		Options:  ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	}

	var out ollamaChatResponse
	start := time.Now()
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(&body).
		SetResult(&out).
		Post("/api/chat")
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ollama chat status %d: %s", resp.StatusCode(), truncate(resp.String(), 256))
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama chat error: %s", out.Error)
	}
	return &Response{Content: out.Message.Content, Model: model, Latency: time.Since(start)}, nil
}

// HealthPing implements health.HealthPinger by listing local models.
func (p *OllamaProvider) HealthPing(ctx context.Context) error {
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	resp, err := p.client.R().SetContext(ctx).SetResult(&tags).Get("/api/tags")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("ollama status %d", resp.StatusCode())
	}
	want := baseModelName(p.model)
	for _, m := range tags.Models {
		if baseModelName(m.Name) == want {
			return nil
		}
	}
	return fmt.Errorf("model %s not found", p.model)
}

func baseModelName(name string) string {
	return strings.SplitN(name, ":", 2)[0]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
