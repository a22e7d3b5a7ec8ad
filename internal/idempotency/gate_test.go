package idempotency

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type replayCounter struct{ n int64 }

func (c *replayCounter) IdempotencyReplay() { atomic.AddInt64(&c.n, 1) }

func counterHandler(calls *int64, delay time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(calls, 1)
		time.Sleep(delay)
		w.Header().Set("X-Call", strconv.FormatInt(n, 10))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"call":` + strconv.FormatInt(n, 10) + `}`))
	})
}

func post(h http.Handler, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, nil)
	if key != "" {
		req.Header.Set(Header, key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("/api/notes", "k1")
	if len(a) != 64 {
		t.Fatalf("fingerprint length %d", len(a))
	}
	if a != Fingerprint("/api/notes", "k1") {
		t.Fatalf("fingerprint not deterministic")
	}
	if a == Fingerprint("/api/tasks", "k1") || a == Fingerprint("/api/notes", "k2") {
		t.Fatalf("fingerprint collision")
	}
}

func TestGate_ReplaysFirstResponse(t *testing.T) {
	var calls int64
	rc := &replayCounter{}
	g := NewGate(rc)
	h := g.Middleware(counterHandler(&calls, 0))

	first := post(h, "/api/conversations/1/messages", "abc123")
	second := post(h, "/api/conversations/1/messages", "abc123")

	if calls != 1 {
		t.Fatalf("handler called %d times", calls)
	}
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("status %d / %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("bodies differ: %q vs %q", first.Body.String(), second.Body.String())
	}
	if second.Header().Get("X-Call") != "1" {
		t.Fatalf("headers not replayed: %v", second.Header())
	}
	if rc.n != 1 {
		t.Fatalf("replays=%d want 1", rc.n)
	}
}

func TestGate_KeyScopedByPath(t *testing.T) {
	var calls int64
	h := NewGate(nil).Middleware(counterHandler(&calls, 0))
	post(h, "/api/notes", "same")
	post(h, "/api/tasks", "same")
	if calls != 2 {
		t.Fatalf("handler called %d times, want 2", calls)
	}
}

func TestGate_NoHeaderPassesThrough(t *testing.T) {
	var calls int64
	g := NewGate(nil)
	h := g.Middleware(counterHandler(&calls, 0))
	a := post(h, "/api/notes", "")
	b := post(h, "/api/notes", "")
	if calls != 2 || a.Body.String() == b.Body.String() {
		t.Fatalf("requests without key were deduplicated")
	}
	if g.Len() != 0 {
		t.Fatalf("records stored without key: %d", g.Len())
	}
}

func TestGate_ConcurrentFirstRequestsCollapse(t *testing.T) {
	var calls int64
	g := NewGate(nil)
	h := g.Middleware(counterHandler(&calls, 50*time.Millisecond))

	const n = 20
	bodies := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bodies[i] = post(h, "/api/notes", "race").Body.String()
		}(i)
	}
	wg.Wait()

	if calls != 1 {
		t.Fatalf("handler called %d times", calls)
	}
	for i, b := range bodies {
		if b != bodies[0] {
			t.Fatalf("body %d differs: %q vs %q", i, b, bodies[0])
		}
	}
}

func TestGate_ErrorResponsesAreStored(t *testing.T) {
	var calls int64
	h := NewGate(nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	post(h, "/api/notes", "k")
	rr := post(h, "/api/notes", "k")
	if calls != 1 || rr.Code != http.StatusBadRequest {
		t.Fatalf("calls=%d status=%d", calls, rr.Code)
	}
}
