// Package orchestrator turns a user message into persisted notes and tasks.
// It asks the LLM to classify the message and falls back to keyword
// heuristics whenever the model is unavailable or answers with garbage.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/vcalderon2009/note-taker/internal/classify"
	"github.com/vcalderon2009/note-taker/internal/llm"
	"github.com/vcalderon2009/note-taker/internal/model"
	"github.com/vcalderon2009/note-taker/internal/prompts"
	"github.com/vcalderon2009/note-taker/internal/store"
	"github.com/vcalderon2009/note-taker/internal/telemetry"
)

const (
	// PromptService is the prompt file read by the orchestrator.
	PromptService = "orchestrator"

	promptSimple    = "simple_message"
	promptBrainDump = "brain_dump"

	defaultSimpleTemperature    = 0.1
	defaultBrainDumpTemperature = 0.3

	contextWindow   = 10
	contextMaxChars = 4000

	inputSimple    = "simple_message"
	inputBrainDump = "brain_dump"
)

// Service orchestrates message capture.
type Service struct {
	store    store.Store
	provider llm.Provider
	prompts  *prompts.Store
	emitter  *telemetry.Emitter
	model    string
	log      zerolog.Logger
}

// NewService builds an orchestrator. model is sent with every LLM request;
// empty selects the provider's default.
func NewService(st store.Store, provider llm.Provider, ps *prompts.Store, em *telemetry.Emitter, model string, log zerolog.Logger) *Service {
	if em == nil {
		em = telemetry.Nop()
	}
	return &Service{store: st, provider: provider, prompts: ps, emitter: em, model: model, log: log}
}

// HandleMessage stores the user's message, classifies it and persists the
// resulting entities together with an assistant reply.
//
// The user message is committed before the model is called and survives any
// later failure. LLM and decode failures are absorbed by the fallback path;
// only store errors are returned.
func (s *Service) HandleMessage(ctx context.Context, userID, conversationID int64, text, requestID string) (*model.OrchestratorResult, error) {
	conv, err := s.store.Conversations().Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, model.NotFoundError{Resource: "conversation", ID: conversationID}
	}

	userMsg, err := s.store.Messages().Create(ctx, &model.Message{
		ConversationID: conversationID,
		Role:           model.RoleUser,
		Content:        text,
	})
	if err != nil {
		return nil, errors.Wrap(err, "store user message")
	}
	s.emitter.UserActivity(telemetry.UserActivity{
		UserID:       userID,
		Action:       "send_message",
		ResourceType: "message",
		ResourceID:   fmt.Sprint(userMsg.ID),
		Metadata: map[string]any{
			"conversation_id": conversationID,
			"message_length":  utf8.RuneCountInString(text),
		},
	})

	start := time.Now()
	input := inputSimple
	fb := s.prompts.Fallback(PromptService)
	if classify.IsBrainDump(text, fb.BrainDumpIndicators) {
		input = inputBrainDump
	}

	res, err := s.run(ctx, userID, conversationID, userMsg.ID, text, requestID, input, fb)
	out := telemetry.OrchestratorResult{
		RequestID: requestID,
		UserID:    userID,
		InputType: input,
		Duration:  time.Since(start),
		Success:   err == nil,
	}
	if err != nil {
		out.OutputType = "error"
		out.Err = err
		s.emitter.OrchestratorResult(out)
		return nil, errors.Wrap(err, "orchestrate message")
	}
	out.OutputType = res.Type
	out.ItemsCreated = res.ItemsCreated()
	s.emitter.OrchestratorResult(out)
	return res, nil
}

func (s *Service) run(ctx context.Context, userID, conversationID, userMsgID int64, text, requestID, input string, fb prompts.Fallback) (*model.OrchestratorResult, error) {
	history, err := s.history(ctx, conversationID, userMsgID)
	if err != nil {
		return nil, errors.Wrap(err, "load conversation context")
	}
	if input == inputBrainDump {
		return s.brainDump(ctx, userID, conversationID, text, requestID, history, fb)
	}
	return s.simple(ctx, userID, conversationID, text, requestID, history, fb)
}

// history returns up to contextWindow earlier messages, oldest first. When
// they exceed contextMaxChars the oldest are dropped.
func (s *Service) history(ctx context.Context, conversationID, excludeID int64) ([]llm.Message, error) {
	recent, err := s.store.Messages().Recent(ctx, conversationID, contextWindow+1)
	if err != nil {
		return nil, err
	}
	var newestFirst []*model.Message
	for _, m := range recent {
		if m.ID == excludeID {
			continue
		}
		newestFirst = append(newestFirst, m)
	}
	if len(newestFirst) > contextWindow {
		newestFirst = newestFirst[:contextWindow]
	}
	return TrimHistory(newestFirst, contextMaxChars), nil
}

// TrimHistory converts newest-first messages into chat turns, oldest first,
// keeping the newest messages whose combined character count fits in maxChars.
func TrimHistory(newestFirst []*model.Message, maxChars int) []llm.Message {
	total := 0
	for _, m := range newestFirst {
		total += utf8.RuneCountInString(m.Content)
	}
	keep := len(newestFirst)
	if total > maxChars {
		used := 0
		keep = 0
		for _, m := range newestFirst {
			n := utf8.RuneCountInString(m.Content)
			if used+n > maxChars {
				break
			}
			used += n
			keep++
		}
	}
	out := make([]llm.Message, 0, keep)
	for i := keep - 1; i >= 0; i-- {
		out = append(out, llm.Message{Role: newestFirst[i].Role, Content: newestFirst[i].Content})
	}
	return out
}

func (s *Service) simple(ctx context.Context, userID, conversationID int64, text, requestID string, history []llm.Message, fb prompts.Fallback) (*model.OrchestratorResult, error) {
	var latency *time.Duration
	content, d, err := s.generate(ctx, promptSimple, defaultSimpleTemperature, history, text, requestID)
	var cr *model.ClassificationResult
	if err == nil {
		latency = &d
		cr, err = DecodeSimple(content, text)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("request_id", requestID).Msg("simple classification failed, using keyword fallback")
		cr = FallbackClassify(text, fb.TaskKeywords)
		latency = nil
	}
	return s.persist(ctx, userID, conversationID, cr, latency)
}

func (s *Service) brainDump(ctx context.Context, userID, conversationID int64, text, requestID string, history []llm.Message, fb prompts.Fallback) (*model.OrchestratorResult, error) {
	content, _, err := s.generate(ctx, promptBrainDump, defaultBrainDumpTemperature, history, text, requestID)
	var cr *model.ClassificationResult
	if err == nil {
		cr, err = DecodeBrainDump(content)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("request_id", requestID).Msg("brain dump processing failed, using simple path")
		return s.simple(ctx, userID, conversationID, text, requestID, history, fb)
	}
	return s.persist(ctx, userID, conversationID, cr, nil)
}

// generate runs one prompt against the provider and reports the call.
func (s *Service) generate(ctx context.Context, name string, defTemp float64, history []llm.Message, text, requestID string) (string, time.Duration, error) {
	p, err := s.prompts.Prompt(PromptService, name)
	if err != nil {
		return "", 0, err
	}
	temp := s.prompts.Temperature(PromptService, name, defTemp)

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: model.RoleSystem, Content: p.SystemPrompt})
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: model.RoleUser, Content: text})

	start := time.Now()
	resp, err := s.provider.Generate(ctx, llm.Request{Model: s.model, Messages: msgs, Temperature: temp})
	call := telemetry.LLMCall{
		RequestID:    requestID,
		Model:        s.model,
		Provider:     s.provider.Name(),
		PromptTokens: telemetry.EstimateTokens(joinContents(msgs)),
		Duration:     time.Since(start),
		Temperature:  temp,
		Success:      err == nil,
		Err:          err,
	}
	if err != nil {
		s.emitter.LLMCall(call)
		return "", 0, err
	}
	if resp.Model != "" {
		call.Model = resp.Model
	}
	call.CompletionTokens = telemetry.EstimateTokens(resp.Content)
	s.emitter.LLMCall(call)

	latency := resp.Latency
	if latency == 0 {
		latency = call.Duration
	}
	return resp.Content, latency, nil
}

func joinContents(msgs []llm.Message) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = m.Content
	}
	return strings.Join(parts, " ")
}
