package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcalderon2009/note-taker/internal/api/recovery"
	"github.com/vcalderon2009/note-taker/internal/health"
	"github.com/vcalderon2009/note-taker/internal/idempotency"
	"github.com/vcalderon2009/note-taker/internal/llm"
	"github.com/vcalderon2009/note-taker/internal/model"
	"github.com/vcalderon2009/note-taker/internal/orchestrator"
	"github.com/vcalderon2009/note-taker/internal/pipeline"
	"github.com/vcalderon2009/note-taker/internal/prompts"
	"github.com/vcalderon2009/note-taker/internal/ratelimit"
	"github.com/vcalderon2009/note-taker/internal/services"
	"github.com/vcalderon2009/note-taker/internal/store"
	"github.com/vcalderon2009/note-taker/internal/store/sqlite"
	"github.com/vcalderon2009/note-taker/internal/telemetry"
)

type stubProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Generate(_ context.Context, _ llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if len(p.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	return &llm.Response{Content: r, Latency: 5 * time.Millisecond}, nil
}

type testEnv struct {
	srv      *httptest.Server
	store    store.Store
	user     *model.User
	provider *stubProvider
	gate     *idempotency.Gate
}

func newTestEnv(t *testing.T, rl ratelimit.Config) *testEnv {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.EnsureSchema(ctx, db))
	st := sqlite.NewWithDB(db)

	log := zerolog.Nop()
	user, err := services.EnsureDefaults(ctx, st, "default@example.com", log)
	require.NoError(t, err)

	p := &stubProvider{}
	ps := prompts.NewStore("", log)
	em := telemetry.Nop()

	router := NewRouter(Handlers{
		Health:        NewHealthHandler(8000, nil),
		Conversations: NewConversationHandler(services.NewConversationService(st), orchestrator.NewService(st, p, ps, em, "test-model", log), user.ID, em, log),
		Notes:         NewNoteHandler(services.NewNoteService(st), user.ID),
		Tasks:         NewTaskHandler(services.NewTaskService(st), user.ID),
		Categories:    NewCategoryHandler(services.NewCategoryService(st), user.ID),
		Classify:      NewClassifyHandler(services.NewClassificationService(p, ps, em, "test-model", log), ps),
	})
	gate := idempotency.NewGate(nil)
	h := pipeline.New(
		pipeline.Stage{Name: "recovery", Wrap: recovery.New(log)},
		pipeline.Stage{Name: "ratelimit", Wrap: ratelimit.Middleware(ratelimit.NewLimiter(rl), nil)},
		pipeline.Stage{Name: "idempotency", Wrap: gate.Middleware},
		pipeline.Stage{Name: "telemetry", Wrap: em.Middleware(RouteTemplate(router))},
	).Then(router)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: st, user: user, provider: p, gate: gate}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, hdr map[string]string) (*http.Response, []byte) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func (e *testEnv) defaultConversation(t *testing.T) int64 {
	t.Helper()
	list, err := e.store.Conversations().List(context.Background(), e.user.ID, model.Page{Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, list)
	return list[0].ID
}

func TestHealth_Live(t *testing.T) {
	env := newTestEnv(t, ratelimit.DefaultConfig())
	resp, body := env.do(t, "GET", "/health", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","service":"api","port":8000}`, string(body))
	assert.NotEmpty(t, resp.Header.Get(telemetry.HeaderRequestID))
}

func TestHealth_DependenciesReportsUnhealthy(t *testing.T) {
	checker := health.NewServiceHealthChecker(zerolog.Nop())
	rr := httptest.NewRecorder()
	NewHealthHandler(8000, checker).Dependencies(rr, httptest.NewRequest("GET", "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var out dependencyResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	assert.Equal(t, "unhealthy", out.Status)
}

func TestConversations_CRUD(t *testing.T) {
	env := newTestEnv(t, ratelimit.DefaultConfig())

	resp, body := env.do(t, "POST", "/api/conversations", map[string]string{}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var conv model.Conversation
	require.NoError(t, json.Unmarshal(body, &conv))
	assert.Equal(t, services.DefaultConversationTitle, conv.Title)

	resp, body = env.do(t, "GET", "/api/conversations", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []model.Conversation
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 2)

	resp, _ = env.do(t, "GET", fmt.Sprintf("/api/conversations/%d", conv.ID), nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, "DELETE", fmt.Sprintf("/api/conversations/%d", conv.ID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Conversation deleted successfully"}`, string(body))

	resp, _ = env.do(t, "GET", fmt.Sprintf("/api/conversations/%d", conv.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConversations_DeleteLastReturnsReplacement(t *testing.T) {
	env := newTestEnv(t, ratelimit.DefaultConfig())
	id := env.defaultConversation(t)

	resp, body := env.do(t, "DELETE", fmt.Sprintf("/api/conversations/%d", id), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out messageResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotNil(t, out.NewConversationID)
	assert.NotEqual(t, id, *out.NewConversationID)
}

func TestConversations_BadPathID(t *testing.T) {
	env := newTestEnv(t, ratelimit.DefaultConfig())
	resp, _ := env.do(t, "GET", "/api/conversations/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostMessage_CreatesNote(t *testing.T) {
	env := newTestEnv(t, ratelimit.DefaultConfig())
	id := env.defaultConversation(t)
	env.provider.replies = []string{`{"type":"note","note":{"title":"Idea","body":"solar kettle"}}`}

	resp, body := env.do(t, "POST", fmt.Sprintf("/api/conversations/%d/messages", id), map[string]string{"text": "idea: solar kettle"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out struct {
		Type string     `json:"type"`
		Note model.Note `json:"note"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, model.KindNote, out.Type)
	assert.Equal(t, "Idea", out.Note.Title)

	resp, body = env.do(t, "GET", fmt.Sprintf("/api/conversations/%d/messages", id), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var msgs []model.Message
	require.NoError(t, json.Unmarshal(body, &msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "Created note: Idea", msgs[1].Content)
}

func TestPostMessage_ValidationAndMissingConversation(t *testing.T) {
	env := newTestEnv(t, ratelimit.DefaultConfig())
	id := env.defaultConversation(t)

	resp, body := env.do(t, "POST", fmt.Sprintf("/api/conversations/%d/messages", id), map[string]string{}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "text")

	resp, _ = env.do(t, "POST", "/api/conversations/9999/messages", map[string]string{"text": "hello"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, env.provider.calls)
}

func TestPostMessage_IdempotentReplay(t *testing.T) {
	env := newTestEnv(t, ratelimit.DefaultConfig())
	id := env.defaultConversation(t)
	env.provider.replies = []string{`{"type":"task","task":{"title":"Call mom"}}`}
	path := fmt.Sprintf("/api/conversations/%d/messages", id)
	hdr := map[string]string{idempotency.Header: "abc123"}

	resp1, body1 := env.do(t, "POST", path, map[string]string{"text": "task: call mom"}, hdr)
	require.Equal(t, http.StatusOK, resp1.StatusCode, string(body1))
	resp2, body2 := env.do(t, "POST", path, map[string]string{"text": "something else entirely"}, hdr)
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	assert.Equal(t, body1, body2)
	assert.Equal(t, resp1.Header.Get(telemetry.HeaderRequestID), resp2.Header.Get(telemetry.HeaderRequestID))
	assert.Equal(t, 1, env.provider.calls)

	tasks, err := env.store.Tasks().List(context.Background(), env.user.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestPostMessage_RateLimited(t *testing.T) {
	cfg := ratelimit.DefaultConfig()
	cfg.Classes[ratelimit.ClassMessages] = ratelimit.Rule{Limit: 1, Window: time.Minute}
	env := newTestEnv(t, cfg)
	id := env.defaultConversation(t)
	env.provider.err = errors.New("offline")
	path := fmt.Sprintf("/api/conversations/%d/messages", id)

	resp, _ := env.do(t, "POST", path, map[string]string{"text": "note to self"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get(ratelimit.HeaderRemaining))

	resp, body := env.do(t, "POST", path, map[string]string{"text": "another"}, nil)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(ratelimit.HeaderRetryAfter))
	assert.Contains(t, string(body), "Rate limit exceeded")
}

func TestNotes_CRUD(t *testing.T) {
	env := newTestEnv(t, ratelimit.DefaultConfig())

	resp, body := env.do(t, "POST", "/api/notes", map[string]any{"title": "Groceries", "body": "eggs", "tags": []string{"home"}}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var n model.Note
	require.NoError(t, json.Unmarshal(body, &n))
	assert.Equal(t, []string{"home"}, n.Tags)

	resp, body = env.do(t, "PATCH", fmt.Sprintf("/api/notes/%d", n.ID), map[string]any{"body": "eggs, milk"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &n))
	assert.Equal(t, "Groceries", n.Title)
	assert.Equal(t, "eggs, milk", n.Body)

	resp, _ = env.do(t, "PATCH", fmt.Sprintf("/api/notes/%d", n.ID), map[string]any{"category_id": 404}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, "DELETE", fmt.Sprintf("/api/notes/%d", n.ID), nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.do(t, "GET", fmt.Sprintf("/api/notes/%d", n.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotes_CreateRequiresTitle(t *testing.T) {
	env := newTestEnv(t, ratelimit.DefaultConfig())
	resp, body := env.do(t, "POST", "/api/notes", map[string]any{"body": "x"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "title")
}

func TestTasks_CreateDefaultsStatus(t *testing.T) {
	env := newTestEnv(t, ratelimit.DefaultConfig())

	resp, body := env.do(t, "POST", "/api/tasks", map[string]any{"title": "Pay rent", "due_at": "2026-11-01T09:00:00Z"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var task model.Task
	require.NoError(t, json.Unmarshal(body, &task))
	assert.Equal(t, model.DefaultTaskStatus, task.Status)
	require.NotNil(t, task.DueAt)

	resp, body = env.do(t, "PATCH", fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{"status": "completed"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &task))
	assert.Equal(t, "completed", task.Status)

	resp, body = env.do(t, "GET", "/api/tasks", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []model.Task
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)
}

func TestCategories_DuplicateStatsAndDelete(t *testing.T) {
	env := newTestEnv(t, ratelimit.DefaultConfig())

	resp, body := env.do(t, "POST", "/api/categories", map[string]any{"name": "Work", "color": "#ff8800"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var cat model.Category
	require.NoError(t, json.Unmarshal(body, &cat))

	resp, body = env.do(t, "POST", "/api/categories", map[string]any{"name": "Work"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Category name already exists")

	resp, _ = env.do(t, "POST", "/api/categories", map[string]any{"name": "Bad", "color": "orange"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "POST", "/api/tasks", map[string]any{"title": "Ship", "status": "completed", "category_id": cat.ID}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.do(t, "POST", "/api/notes", map[string]any{"title": "Plan", "body": "q4", "category_id": cat.ID}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, "GET", fmt.Sprintf("/api/categories/%d/stats", cat.ID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st model.CategoryStats
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, model.CategoryStats{CategoryID: cat.ID, NotesCount: 1, TasksCount: 1, CompletedTasks: 1}, st)

	resp, _ = env.do(t, "DELETE", fmt.Sprintf("/api/categories/%d", cat.ID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	notes, err := env.store.Notes().List(context.Background(), env.user.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Nil(t, notes[0].CategoryID)
}

func TestClassifyMessage_FallsBackWhenProviderDown(t *testing.T) {
	env := newTestEnv(t, ratelimit.DefaultConfig())
	env.provider.err = errors.New("connection refused")

	resp, body := env.do(t, "POST", "/api/classify-message", map[string]string{"message": "remember the idea"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"classification":"SIMPLE_NOTE","confidence":0.6,"reasoning":"Note-related keywords detected (fallback heuristic)"}`, string(body))
}

func TestReloadPrompts(t *testing.T) {
	env := newTestEnv(t, ratelimit.DefaultConfig())

	resp, body := env.do(t, "POST", "/api/admin/prompts/reload", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "all")

	resp, body = env.do(t, "POST", "/api/admin/prompts/reload", map[string]string{"service": "orchestrator"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"service":"orchestrator"`)
}

func TestRouteTemplate(t *testing.T) {
	router := NewRouter(Handlers{
		Health:        NewHealthHandler(1, nil),
		Conversations: &ConversationHandler{},
		Notes:         &NoteHandler{},
		Tasks:         &TaskHandler{},
		Categories:    &CategoryHandler{},
		Classify:      &ClassifyHandler{},
	})
	route := RouteTemplate(router)
	assert.Equal(t, "/api/notes/{noteId}", route(httptest.NewRequest("GET", "/api/notes/12", nil)))
	assert.Equal(t, "/api/conversations/{conversationId}/messages", route(httptest.NewRequest("POST", "/api/conversations/3/messages", nil)))
	assert.Equal(t, "", route(httptest.NewRequest("GET", "/nope", nil)))
}
