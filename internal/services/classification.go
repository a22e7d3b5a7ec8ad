package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/vcalderon2009/note-taker/internal/classify"
	"github.com/vcalderon2009/note-taker/internal/llm"
	"github.com/vcalderon2009/note-taker/internal/orchestrator"
	"github.com/vcalderon2009/note-taker/internal/prompts"
	"github.com/vcalderon2009/note-taker/internal/telemetry"
)

const (
	classifyService = "classification"
	classifyPrompt  = "classify"

	classifyTemperature = 0.1
	classifyMaxTokens   = 200
)

const defaultClassifySystemPrompt = "You are an expert message classifier. You analyze user messages and categorize them with high accuracy. Always respond with valid JSON only."

// ClassificationService labels a message without persisting anything.
type ClassificationService struct {
	provider llm.Provider
	prompts  *prompts.Store
	emitter  *telemetry.Emitter
	model    string
	log      zerolog.Logger
}

func NewClassificationService(p llm.Provider, ps *prompts.Store, em *telemetry.Emitter, model string, log zerolog.Logger) *ClassificationService {
	if em == nil {
		em = telemetry.Nop()
	}
	return &ClassificationService{provider: p, prompts: ps, emitter: em, model: model, log: log}
}

// Classify asks the model for a label. A provider failure falls back to
// classify.QuickClassify; an unusable answer yields MESSAGE_ANALYSIS with
// confidence 0.3.
func (s *ClassificationService) Classify(ctx context.Context, message, requestID string) classify.Result {
	if s.provider == nil {
		return classify.QuickClassify(message)
	}

	system := defaultClassifySystemPrompt
	if p, err := s.prompts.Prompt(classifyService, classifyPrompt); err == nil && p.SystemPrompt != "" {
		system = p.SystemPrompt
	}
	temp := s.prompts.Temperature(classifyService, classifyPrompt, classifyTemperature)
	user := fmt.Sprintf(`Classify this message: "%s"

Choose one: BRAIN_DUMP, SIMPLE_TASK, SIMPLE_NOTE, or MESSAGE_ANALYSIS.

Respond with JSON:
{"classification": "SIMPLE_TASK", "confidence": 0.8, "reasoning": "test"}`, message)

	maxTokens := classifyMaxTokens
	start := time.Now()
	resp, err := s.provider.Generate(ctx, llm.Request{
		Model:       s.model,
		Messages:    []llm.Message{{Role: "system", Content: system}, {Role: "user", Content: user}},
		Temperature: temp,
		MaxTokens:   &maxTokens,
	})
	call := telemetry.LLMCall{
		RequestID:    requestID,
		Model:        s.model,
		Provider:     s.provider.Name(),
		PromptTokens: telemetry.EstimateTokens(system + " " + user),
		Duration:     time.Since(start),
		Temperature:  temp,
		Success:      err == nil,
		Err:          err,
	}
	if err != nil {
		s.emitter.LLMCall(call)
		s.log.Error().Err(err).Str("request_id", requestID).Msg("Classification failed")
		return classify.QuickClassify(message)
	}
	call.CompletionTokens = telemetry.EstimateTokens(resp.Content)
	s.emitter.LLMCall(call)

	res, err := ParseClassification(resp.Content)
	if err != nil {
		s.log.Error().Err(err).Str("raw_response", resp.Content).Msg("Classification failed")
		return classify.Result{
			Classification: classify.LabelMessageAnalysis,
			Confidence:     0.3,
			Reasoning:      fmt.Sprintf("Classification failed, using fallback: %v", err),
		}
	}
	return res
}

// ParseClassification decodes a model answer of the form
// {"classification": ..., "confidence": ..., "reasoning": ...}.
func ParseClassification(content string) (classify.Result, error) {
	raw := orchestrator.StripFences(content)
	if !gjson.Valid(raw) {
		return classify.Result{}, fmt.Errorf("invalid JSON response")
	}
	doc := gjson.Parse(raw)
	for _, f := range []string{"classification", "confidence", "reasoning"} {
		if !doc.Get(f).Exists() {
			return classify.Result{}, fmt.Errorf("missing required fields in response")
		}
	}
	label := doc.Get("classification").String()
	if !classify.IsLabel(label) {
		return classify.Result{}, fmt.Errorf("invalid classification: %s", label)
	}
	return classify.Result{
		Classification: label,
		Confidence:     doc.Get("confidence").Float(),
		Reasoning:      doc.Get("reasoning").String(),
	}, nil
}
