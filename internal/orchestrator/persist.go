package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vcalderon2009/note-taker/internal/model"
	"github.com/vcalderon2009/note-taker/internal/store"
)

// persist writes the classified entities and the assistant reply in one
// transaction. latency, when set, is recorded on the assistant message.
func (s *Service) persist(ctx context.Context, userID, conversationID int64, cr *model.ClassificationResult, latency *time.Duration) (*model.OrchestratorResult, error) {
	var res *model.OrchestratorResult
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		var reply string
		var err error
		switch cr.Kind {
		case model.KindBrainDump:
			res, reply, err = createBrainDump(ctx, tx, userID, conversationID, cr)
		case model.KindTask:
			res, reply, err = createTask(ctx, tx, userID, conversationID, cr.Task)
		default:
			res, reply, err = createNote(ctx, tx, userID, conversationID, cr.Note)
		}
		if err != nil {
			return err
		}
		msg := &model.Message{
			ConversationID: conversationID,
			Role:           model.RoleAssistant,
			Content:        reply,
		}
		if latency != nil {
			ms := int(latency.Milliseconds())
			msg.LatencyMS = &ms
		}
		_, err = tx.Messages().Create(ctx, msg)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func newTask(userID, conversationID int64, d *model.TaskDraft) *model.Task {
	return &model.Task{
		UserID:         userID,
		ConversationID: &conversationID,
		Title:          d.Title,
		Description:    d.Description,
		DueAt:          d.DueAt,
		Status:         d.Status,
		Priority:       d.Priority,
	}
}

func newNote(userID, conversationID int64, d *model.NoteDraft) *model.Note {
	return &model.Note{
		UserID:         userID,
		ConversationID: &conversationID,
		Title:          d.Title,
		Body:           d.Body,
		Tags:           d.Tags,
	}
}

func createTask(ctx context.Context, tx store.Store, userID, conversationID int64, d *model.TaskDraft) (*model.OrchestratorResult, string, error) {
	t, err := tx.Tasks().Create(ctx, newTask(userID, conversationID, d))
	if err != nil {
		return nil, "", fmt.Errorf("create task: %w", err)
	}
	return &model.OrchestratorResult{Type: model.KindTask, Task: t}, "Created task: " + t.Title, nil
}

func createNote(ctx context.Context, tx store.Store, userID, conversationID int64, d *model.NoteDraft) (*model.OrchestratorResult, string, error) {
	n, err := tx.Notes().Create(ctx, newNote(userID, conversationID, d))
	if err != nil {
		return nil, "", fmt.Errorf("create note: %w", err)
	}
	return &model.OrchestratorResult{Type: model.KindNote, Note: n}, "Created note: " + n.Title, nil
}

func createBrainDump(ctx context.Context, tx store.Store, userID, conversationID int64, cr *model.ClassificationResult) (*model.OrchestratorResult, string, error) {
	res := &model.OrchestratorResult{
		Type:    model.KindBrainDump,
		Summary: cr.Summary,
		Notes:   []*model.Note{},
		Tasks:   []*model.Task{},
	}
	for _, item := range cr.Items {
		if item.Task != nil {
			t, err := tx.Tasks().Create(ctx, newTask(userID, conversationID, item.Task))
			if err != nil {
				return nil, "", fmt.Errorf("create task: %w", err)
			}
			res.Tasks = append(res.Tasks, t)
			continue
		}
		if item.Note != nil {
			n, err := tx.Notes().Create(ctx, newNote(userID, conversationID, item.Note))
			if err != nil {
				return nil, "", fmt.Errorf("create note: %w", err)
			}
			res.Notes = append(res.Notes, n)
		}
	}
	res.TotalItems = len(res.Notes) + len(res.Tasks)
	return res, BrainDumpReply(cr.Summary, len(res.Notes), len(res.Tasks)), nil
}

// BrainDumpReply formats the assistant message for a brain dump, e.g.
// "Planned the week. Created: 2 notes, 1 task."
func BrainDumpReply(summary string, notes, tasks int) string {
	var parts []string
	if notes > 0 {
		parts = append(parts, plural(notes, "note"))
	}
	if tasks > 0 {
		parts = append(parts, plural(tasks, "task"))
	}
	return fmt.Sprintf("%s. Created: %s.", summary, strings.Join(parts, ", "))
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
