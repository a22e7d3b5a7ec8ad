// Package telemetry emits structured events for requests, LLM calls,
// orchestration outcomes and user activity, and mirrors them into
// Prometheus metrics. Emission is best-effort and never fails the caller.
package telemetry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Event types carried in the event_type field.
const (
	EventRequest            = "request"
	EventLLMCall            = "llm_call"
	EventOrchestratorResult = "orchestrator_result"
	EventUserActivity       = "user_activity"
	EventError              = "error"
)

// Emitter writes telemetry events to a zerolog logger. A nil Collector
// disables metrics.
type Emitter struct {
	log     zerolog.Logger
	metrics *Collector
}

func NewEmitter(log zerolog.Logger, metrics *Collector) *Emitter {
	return &Emitter{log: log, metrics: metrics}
}

// Nop returns an Emitter that discards everything.
func Nop() *Emitter { return NewEmitter(zerolog.Nop(), nil) }

// RequestInfo describes one HTTP request for start/end events.
type RequestInfo struct {
	RequestID string
	Method    string
	Path      string
	Route     string
	Query     string
	UserID    string
	ClientIP  string
	UserAgent string
}

func (r RequestInfo) fields(ev *zerolog.Event) *zerolog.Event {
	return ev.Str("event_type", EventRequest).
		Str("request_id", r.RequestID).
		Str("method", r.Method).
		Str("path", r.Path).
		Str("query_params", r.Query).
		Str("user_id", r.UserID).
		Str("client_ip", r.ClientIP).
		Str("user_agent", r.UserAgent)
}

// RequestStarted logs the start of a request.
func (e *Emitter) RequestStarted(r RequestInfo) {
	r.fields(e.log.Info()).Msg("Request started")
}

// RequestCompleted logs the end of a request. Statuses >= 400 log at warn.
func (e *Emitter) RequestCompleted(r RequestInfo, status int, d time.Duration) {
	ev := e.log.Info()
	msg := "Request completed"
	if status >= 400 {
		ev = e.log.Warn()
		msg = "Request completed with error"
	}
	r.fields(ev).Int("status_code", status).Int64("duration_ms", d.Milliseconds()).Msg(msg)
	if e.metrics != nil {
		e.metrics.recordHTTP(r.Method, routeLabel(r), status, d)
	}
}

// RequestFailed logs a request that ended with a panic or unhandled error.
func (e *Emitter) RequestFailed(r RequestInfo, d time.Duration, err error) {
	r.fields(e.log.Error().Stack()).Err(err).
		Str("error_type", errorType(err)).
		Int("status_code", 500).
		Int64("duration_ms", d.Milliseconds()).
		Msg("Request failed")
	if e.metrics != nil {
		e.metrics.recordHTTP(r.Method, routeLabel(r), 500, d)
	}
}

// LLMCall describes one provider call.
type LLMCall struct {
	RequestID        string
	Model            string
	Provider         string
	PromptTokens     int
	CompletionTokens int
	Duration         time.Duration
	Temperature      float64
	Success          bool
	Err              error
}

// LLMCall logs a provider call with token estimates.
func (e *Emitter) LLMCall(c LLMCall) {
	ev := e.log.Info()
	if !c.Success {
		ev = e.log.Warn()
	}
	ev = ev.Str("event_type", EventLLMCall).
		Str("request_id", orUnknown(c.RequestID)).
		Str("model", c.Model).
		Str("provider", c.Provider).
		Int("prompt_tokens", c.PromptTokens).
		Int("completion_tokens", c.CompletionTokens).
		Int("total_tokens", c.PromptTokens+c.CompletionTokens).
		Int64("duration_ms", c.Duration.Milliseconds()).
		Float64("temperature", c.Temperature).
		Bool("success", c.Success)
	if c.Err != nil {
		ev = ev.Str("error", c.Err.Error())
	}
	ev.Msg("LLM call completed")

	if e.metrics != nil {
		e.metrics.LLMCalls.WithLabelValues(c.Provider, c.Model, strconv.FormatBool(c.Success)).Inc()
		e.metrics.LLMDuration.WithLabelValues(c.Provider, c.Model).Observe(c.Duration.Seconds())
		e.metrics.LLMTokens.WithLabelValues(c.Provider, "prompt").Add(float64(c.PromptTokens))
		e.metrics.LLMTokens.WithLabelValues(c.Provider, "completion").Add(float64(c.CompletionTokens))
	}
}

// OrchestratorResult describes the outcome of handling one message.
type OrchestratorResult struct {
	RequestID    string
	UserID       int64
	InputType    string
	OutputType   string
	ItemsCreated int
	Duration     time.Duration
	Success      bool
	Err          error
}

// OrchestratorResult logs the outcome of one orchestrated message.
func (e *Emitter) OrchestratorResult(r OrchestratorResult) {
	ev := e.log.Info()
	if !r.Success {
		ev = e.log.Error().Stack()
	}
	ev = ev.Str("event_type", EventOrchestratorResult).
		Str("request_id", orUnknown(r.RequestID)).
		Int64("user_id", r.UserID).
		Str("input_type", r.InputType).
		Str("output_type", r.OutputType).
		Int("items_created", r.ItemsCreated).
		Int64("processing_time_ms", r.Duration.Milliseconds()).
		Bool("success", r.Success)
	if r.Err != nil {
		ev = ev.Err(r.Err)
	}
	ev.Msg("Orchestrator processing completed")

	if e.metrics != nil {
		e.metrics.OrchestratorResults.WithLabelValues(r.InputType, r.OutputType, strconv.FormatBool(r.Success)).Inc()
		if r.ItemsCreated > 0 {
			e.metrics.ItemsCreated.WithLabelValues(r.OutputType).Add(float64(r.ItemsCreated))
		}
	}
}

// UserActivity describes a user action on a resource.
type UserActivity struct {
	UserID       int64
	Action       string
	ResourceType string
	ResourceID   string
	Metadata     map[string]any
}

// UserActivity logs a user action.
func (e *Emitter) UserActivity(a UserActivity) {
	md := a.Metadata
	if md == nil {
		md = map[string]any{}
	}
	e.log.Info().
		Str("event_type", EventUserActivity).
		Int64("user_id", a.UserID).
		Str("action", a.Action).
		Str("resource_type", a.ResourceType).
		Str("resource_id", a.ResourceID).
		Interface("metadata", md).
		Msg("User activity")
}

// Error logs an application error with request context.
func (e *Emitter) Error(err error, requestID, userID string, context map[string]any) {
	if context == nil {
		context = map[string]any{}
	}
	e.log.Error().Stack().
		Str("event_type", EventError).
		Err(err).
		Str("error_message", fmt.Sprint(err)).
		Str("error_type", errorType(err)).
		Str("request_id", requestID).
		Str("user_id", userID).
		Interface("context", context).
		Msg("Application error")
}

// EstimateTokens approximates a token count as words x 1.3. It is not a
// tokenizer and does not match provider accounting.
func EstimateTokens(text string) int {
	return int(float64(len(strings.Fields(text))) * 1.3)
}

func errorType(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%T", err)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func routeLabel(r RequestInfo) string {
	if r.Route != "" {
		return r.Route
	}
	return "unmatched"
}
