package ratelimit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vcalderon2009/note-taker/internal/telemetry"
)

type countingRecorder struct{ counts map[string]int }

func (c *countingRecorder) RateLimitDecision(class, outcome string) {
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[class+"/"+outcome]++
}

func TestClass(t *testing.T) {
	cases := []struct{ method, path, want string }{
		{"POST", "/api/conversations/3/messages", ClassMessages},
		{"POST", "/api/notes", ClassNotes},
		{"POST", "/api/tasks", ClassTasks},
		{"GET", "/api/notes", "get:/api/notes"},
		{"DELETE", "/api/tasks/4", "delete:/api/tasks/4"},
	}
	for _, c := range cases {
		if got := Class(c.method, c.path); got != c.want {
			t.Fatalf("Class(%s,%s)=%q want %q", c.method, c.path, got, c.want)
		}
	}
}

func TestUserKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.7:5555"
	if got := UserKey(r); got != "10.0.0.7" {
		t.Fatalf("UserKey=%q", got)
	}
	r.Header.Set("X-User-Id", "alice")
	if got := UserKey(r); got != "alice" {
		t.Fatalf("UserKey=%q", got)
	}
	r = httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = ""
	if got := UserKey(r); got != "anonymous" {
		t.Fatalf("UserKey=%q", got)
	}
}

func TestMiddleware_RejectsOverLimit(t *testing.T) {
	l := NewLimiter(Config{Default: Rule{Limit: 30, Window: time.Minute},
		Classes: map[string]Rule{ClassNotes: {Limit: 2, Window: time.Minute}}})
	rec := &countingRecorder{}

	calls := 0
	h := Middleware(l, rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/notes", nil)
		req.Header.Set("X-User-Id", "u1")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	first := do()
	if first.Code != http.StatusCreated {
		t.Fatalf("first status=%d", first.Code)
	}
	if first.Header().Get(HeaderLimit) != "2" || first.Header().Get(HeaderRemaining) != "1" ||
		first.Header().Get(HeaderWindow) != "60" || first.Header().Get(HeaderReset) == "" {
		t.Fatalf("missing admit headers: %v", first.Header())
	}
	do()

	third := do()
	if third.Code != http.StatusTooManyRequests {
		t.Fatalf("third status=%d want 429", third.Code)
	}
	if calls != 2 {
		t.Fatalf("handler called %d times, want 2", calls)
	}
	if third.Header().Get(HeaderRetryAfter) == "" || third.Header().Get(HeaderRemaining) != "0" {
		t.Fatalf("missing rejection headers: %v", third.Header())
	}
	var body map[string]any
	if err := json.Unmarshal(third.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["detail"] != "Rate limit exceeded" || body["limit"] != float64(2) ||
		body["window_seconds"] != float64(60) || body["retry_after"].(float64) < 1 {
		t.Fatalf("unexpected body: %v", body)
	}
	if rec.counts[ClassNotes+"/allowed"] != 2 || rec.counts[ClassNotes+"/rejected"] != 1 {
		t.Fatalf("recorder counts: %v", rec.counts)
	}
}

func TestMiddleware_MetricLabelsStayBounded(t *testing.T) {
	c := telemetry.NewCollector("test")
	h := Middleware(NewLimiter(DefaultConfig()), c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 1; i <= 50; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", fmt.Sprintf("/api/notes/%d", i), nil))
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/notes", nil))

	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	labels := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "test_ratelimit_decisions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "class" {
					labels[lp.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	if len(labels) != 2 || labels["default"] != 50 || labels[ClassNotes] != 1 {
		t.Fatalf("unexpected class labels: %v", labels)
	}
}

func TestConfig_MetricLabel(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.MetricLabel(ClassMessages); got != ClassMessages {
		t.Fatalf("configured class relabeled to %q", got)
	}
	if got := cfg.MetricLabel(Class("DELETE", "/api/tasks/9")); got != "default" {
		t.Fatalf("unclassified request labeled %q", got)
	}
}
