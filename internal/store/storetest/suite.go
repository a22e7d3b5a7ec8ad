package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/vcalderon2009/note-taker/internal/model"
	"github.com/vcalderon2009/note-taker/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store and return it from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Users
	email := "u-" + uuid.New().String() + "@example.test"
	u, err := s.Users().Create(ctx, &model.User{Email: email})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == 0 {
		t.Fatalf("CreateUser: empty id")
	}
	if got, err := s.Users().GetByEmail(ctx, email); err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByEmail: got=%v err=%v", got, err)
	}
	if _, err := s.Users().Create(ctx, &model.User{Email: email}); !model.IsConflictError(err) {
		t.Fatalf("duplicate user: expected conflict, got %v", err)
	}
	if _, err := s.Users().Get(ctx, -1); !model.IsNotFound(err) {
		t.Fatalf("GetUser missing: expected not found, got %v", err)
	}

	// Conversations
	c1, err := s.Conversations().Create(ctx, &model.Conversation{UserID: u.ID, Title: "first"})
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	c2, err := s.Conversations().Create(ctx, &model.Conversation{UserID: u.ID, Title: "second"})
	if err != nil {
		t.Fatalf("CreateConversation c2: %v", err)
	}
	convs, err := s.Conversations().List(ctx, u.ID, model.Page{})
	if err != nil || len(convs) != 2 {
		t.Fatalf("ListConversations: n=%d err=%v", len(convs), err)
	}
	if convs[0].ID != c2.ID {
		t.Fatalf("ListConversations: expected newest first, got %d", convs[0].ID)
	}
	if n, err := s.Conversations().Count(ctx, u.ID); err != nil || n != 2 {
		t.Fatalf("CountConversations: n=%d err=%v", n, err)
	}

	// Messages
	for _, text := range []string{"one", "two", "three"} {
		if _, err := s.Messages().Create(ctx, &model.Message{ConversationID: c1.ID, Role: model.RoleUser, Content: text}); err != nil {
			t.Fatalf("CreateMessage %q: %v", text, err)
		}
	}
	latency := 12
	if _, err := s.Messages().Create(ctx, &model.Message{ConversationID: c1.ID, Role: model.RoleAssistant, Content: "ok", LatencyMS: &latency}); err != nil {
		t.Fatalf("CreateMessage assistant: %v", err)
	}
	msgs, err := s.Messages().List(ctx, c1.ID, model.Page{})
	if err != nil || len(msgs) != 4 {
		t.Fatalf("ListMessages: n=%d err=%v", len(msgs), err)
	}
	if msgs[0].Content != "one" || msgs[3].LatencyMS == nil || *msgs[3].LatencyMS != 12 {
		t.Fatalf("ListMessages: unexpected order or fields: %+v", msgs)
	}
	recent, err := s.Messages().Recent(ctx, c1.ID, 2)
	if err != nil || len(recent) != 2 || recent[0].Content != "ok" {
		t.Fatalf("RecentMessages: %+v err=%v", recent, err)
	}

	// Categories
	cat, err := s.Categories().Create(ctx, &model.Category{UserID: u.ID, Name: "work"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := s.Categories().Create(ctx, &model.Category{UserID: u.ID, Name: "work"}); !model.IsConflictError(err) {
		t.Fatalf("duplicate category: expected conflict, got %v", err)
	}
	if got, err := s.Categories().GetByName(ctx, u.ID, "work"); err != nil || got.ID != cat.ID {
		t.Fatalf("GetCategoryByName: got=%v err=%v", got, err)
	}
	color := "#ff0000"
	upd, err := s.Categories().Update(ctx, u.ID, cat.ID, model.CategoryPatch{Color: &color})
	if err != nil || upd.Color == nil || *upd.Color != color || upd.Name != "work" {
		t.Fatalf("UpdateCategory: got=%+v err=%v", upd, err)
	}

	// Notes
	n, err := s.Notes().Create(ctx, &model.Note{UserID: u.ID, ConversationID: &c1.ID, Title: "idea", Body: "write more", Tags: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	got, err := s.Notes().Get(ctx, n.ID)
	if err != nil || len(got.Tags) != 2 || got.Tags[1] != "b" {
		t.Fatalf("GetNote: got=%+v err=%v", got, err)
	}
	newTitle := "better idea"
	upNote, err := s.Notes().Update(ctx, n.ID, model.NotePatch{Title: &newTitle, CategoryID: &cat.ID})
	if err != nil || upNote.Title != newTitle || upNote.Body != "write more" || upNote.CategoryID == nil {
		t.Fatalf("UpdateNote: got=%+v err=%v", upNote, err)
	}
	if _, err := s.Notes().Update(ctx, -1, model.NotePatch{Title: &newTitle}); !model.IsNotFound(err) {
		t.Fatalf("UpdateNote missing: expected not found, got %v", err)
	}

	// Tasks
	prio := 2
	t1, err := s.Tasks().Create(ctx, &model.Task{UserID: u.ID, Title: "ship", Priority: &prio, CategoryID: &cat.ID})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if t1.Status != model.DefaultTaskStatus {
		t.Fatalf("CreateTask: expected default status, got %q", t1.Status)
	}
	done := model.TaskStatusCompleted
	if _, err := s.Tasks().Create(ctx, &model.Task{UserID: u.ID, Title: "done", Status: done, CategoryID: &cat.ID}); err != nil {
		t.Fatalf("CreateTask done: %v", err)
	}
	if lst, err := s.Tasks().List(ctx, u.ID); err != nil || len(lst) != 2 {
		t.Fatalf("ListTasks: n=%d err=%v", len(lst), err)
	}
	if c, err := s.Tasks().CountByCategory(ctx, cat.ID, ""); err != nil || c != 2 {
		t.Fatalf("CountTasks: c=%d err=%v", c, err)
	}
	if c, err := s.Tasks().CountByCategory(ctx, cat.ID, done); err != nil || c != 1 {
		t.Fatalf("CountTasks completed: c=%d err=%v", c, err)
	}
	if c, err := s.Notes().CountByCategory(ctx, cat.ID); err != nil || c != 1 {
		t.Fatalf("CountNotes: c=%d err=%v", c, err)
	}

	// Clearing a category detaches notes and tasks.
	if err := s.Notes().ClearCategory(ctx, cat.ID); err != nil {
		t.Fatalf("ClearCategory notes: %v", err)
	}
	if err := s.Tasks().ClearCategory(ctx, cat.ID); err != nil {
		t.Fatalf("ClearCategory tasks: %v", err)
	}
	if err := s.Categories().Delete(ctx, u.ID, cat.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if c, err := s.Tasks().CountByCategory(ctx, cat.ID, ""); err != nil || c != 0 {
		t.Fatalf("CountTasks after clear: c=%d err=%v", c, err)
	}

	// Transactions roll back on error.
	boom := errors.New("boom")
	err = s.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.Notes().Create(ctx, &model.Note{UserID: u.ID, Title: "tx", Body: "tx"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx: expected boom, got %v", err)
	}
	if lst, err := s.Notes().List(ctx, u.ID); err != nil || len(lst) != 1 {
		t.Fatalf("ListNotes after rollback: n=%d err=%v", len(lst), err)
	}

	// Deletes
	if err := s.Messages().DeleteByConversation(ctx, c1.ID); err != nil {
		t.Fatalf("DeleteMessages: %v", err)
	}
	if err := s.Conversations().Delete(ctx, c1.ID); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if _, err := s.Conversations().Get(ctx, c1.ID); !model.IsNotFound(err) {
		t.Fatalf("GetConversation after delete: expected not found, got %v", err)
	}
	if err := s.Notes().Delete(ctx, n.ID); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if err := s.Notes().Delete(ctx, n.ID); !model.IsNotFound(err) {
		t.Fatalf("DeleteNote twice: expected not found, got %v", err)
	}
}
