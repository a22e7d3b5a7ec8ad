package services

import (
	"context"

	"github.com/vcalderon2009/note-taker/internal/model"
	"github.com/vcalderon2009/note-taker/internal/store"
)

// TaskService provides task CRUD scoped to one user.
type TaskService struct {
	store store.Store
}

func NewTaskService(s store.Store) *TaskService {
	return &TaskService{store: s}
}

func (s *TaskService) Create(ctx context.Context, t *model.Task) (*model.Task, error) {
	if t.CategoryID != nil {
		if _, err := s.store.Categories().Get(ctx, t.UserID, *t.CategoryID); err != nil {
			return nil, err
		}
	}
	if t.Status == "" {
		t.Status = model.DefaultTaskStatus
	}
	return s.store.Tasks().Create(ctx, t)
}

func (s *TaskService) Get(ctx context.Context, userID, id int64) (*model.Task, error) {
	t, err := s.store.Tasks().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, model.NewNotFoundError("task", id)
	}
	return t, nil
}

// List returns the user's tasks, newest first.
func (s *TaskService) List(ctx context.Context, userID int64) ([]*model.Task, error) {
	return s.store.Tasks().List(ctx, userID)
}

func (s *TaskService) Update(ctx context.Context, userID, id int64, p model.TaskPatch) (*model.Task, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if p.CategoryID != nil {
		if _, err := s.store.Categories().Get(ctx, userID, *p.CategoryID); err != nil {
			return nil, err
		}
	}
	return s.store.Tasks().Update(ctx, id, p)
}

func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.Tasks().Delete(ctx, id)
}
