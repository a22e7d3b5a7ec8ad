package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json log: %v\n%s", err, line)
		}
		out = append(out, m)
	}
	return out
}

func TestEmitter_LLMCall(t *testing.T) {
	var buf bytes.Buffer
	c := NewCollector("test")
	e := NewEmitter(zerolog.New(&buf), c)

	e.LLMCall(LLMCall{
		RequestID:        "req-1",
		Model:            "llama3.2:1b",
		Provider:         "ollama",
		PromptTokens:     13,
		CompletionTokens: 7,
		Duration:         250 * time.Millisecond,
		Temperature:      0.1,
		Success:          true,
	})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected one event, got %d", len(lines))
	}
	ev := lines[0]
	if ev["event_type"] != EventLLMCall || ev["provider"] != "ollama" || ev["total_tokens"].(float64) != 20 {
		t.Fatalf("unexpected event: %v", ev)
	}
	if ev["duration_ms"].(float64) != 250 || ev["success"] != true {
		t.Fatalf("unexpected timing fields: %v", ev)
	}
	if got := testutil.ToFloat64(c.LLMCalls.WithLabelValues("ollama", "llama3.2:1b", "true")); got != 1 {
		t.Fatalf("llm_calls_total = %v", got)
	}
	if got := testutil.ToFloat64(c.LLMTokens.WithLabelValues("ollama", "prompt")); got != 13 {
		t.Fatalf("prompt tokens = %v", got)
	}
}

func TestEmitter_OrchestratorFailure(t *testing.T) {
	var buf bytes.Buffer
	c := NewCollector("test")
	e := NewEmitter(zerolog.New(&buf), c)

	e.OrchestratorResult(OrchestratorResult{
		RequestID:  "",
		UserID:     1,
		InputType:  "simple_message",
		OutputType: "error",
		Duration:   time.Millisecond,
		Success:    false,
		Err:        errors.New("db down"),
	})

	ev := decodeLines(t, &buf)[0]
	if ev["level"] != "error" || ev["request_id"] != "unknown" || ev["output_type"] != "error" || ev["success"] != false {
		t.Fatalf("unexpected event: %v", ev)
	}
	if got := testutil.ToFloat64(c.OrchestratorResults.WithLabelValues("simple_message", "error", "false")); got != 1 {
		t.Fatalf("orchestrator_results_total = %v", got)
	}
}

func TestEmitter_UserActivityAndError(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(zerolog.New(&buf), nil)

	e.UserActivity(UserActivity{UserID: 1, Action: "send_message", ResourceType: "message", ResourceID: "9",
		Metadata: map[string]any{"conversation_id": 3, "message_length": 12}})
	e.Error(errors.New("boom"), "req-2", "u", nil)

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected two events, got %d", len(lines))
	}
	act := lines[0]
	md, ok := act["metadata"].(map[string]any)
	if act["event_type"] != EventUserActivity || act["action"] != "send_message" || !ok || md["message_length"].(float64) != 12 {
		t.Fatalf("unexpected activity: %v", act)
	}
	er := lines[1]
	if er["event_type"] != EventError || er["error_message"] != "boom" || er["error_type"] == "" {
		t.Fatalf("unexpected error event: %v", er)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens("one two three four five six seven eight nine ten"); got != 13 {
		t.Fatalf("EstimateTokens = %d", got)
	}
	if got := EstimateTokens("   "); got != 0 {
		t.Fatalf("EstimateTokens(blank) = %d", got)
	}
}
