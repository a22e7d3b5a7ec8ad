package services

import (
	"context"

	"github.com/vcalderon2009/note-taker/internal/model"
	"github.com/vcalderon2009/note-taker/internal/store"
)

var errDuplicateCategory = model.NewConflictError("name", "Category name already exists")

// CategoryService manages categories and their attachment counts.
type CategoryService struct {
	store store.Store
}

func NewCategoryService(s store.Store) *CategoryService {
	return &CategoryService{store: s}
}

// Create adds a category; names are unique per user.
func (s *CategoryService) Create(ctx context.Context, c *model.Category) (*model.Category, error) {
	if err := s.ensureNameFree(ctx, c.UserID, c.Name, 0); err != nil {
		return nil, err
	}
	out, err := s.store.Categories().Create(ctx, c)
	if model.IsConflictError(err) {
		return nil, errDuplicateCategory
	}
	return out, err
}

func (s *CategoryService) Get(ctx context.Context, userID, id int64) (*model.Category, error) {
	return s.store.Categories().Get(ctx, userID, id)
}

// List returns the user's categories ordered by name.
func (s *CategoryService) List(ctx context.Context, userID int64) ([]*model.Category, error) {
	return s.store.Categories().List(ctx, userID)
}

// Update applies the non-nil fields of p. Renaming onto another category's
// name is a conflict.
func (s *CategoryService) Update(ctx context.Context, userID, id int64, p model.CategoryPatch) (*model.Category, error) {
	cur, err := s.store.Categories().Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil && *p.Name != "" && *p.Name != cur.Name {
		if err := s.ensureNameFree(ctx, userID, *p.Name, id); err != nil {
			return nil, err
		}
	}
	out, err := s.store.Categories().Update(ctx, userID, id, p)
	if model.IsConflictError(err) {
		return nil, errDuplicateCategory
	}
	return out, err
}

// Delete removes a category after detaching it from every note and task.
func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.store.Categories().Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Notes().ClearCategory(ctx, id); err != nil {
			return err
		}
		if err := tx.Tasks().ClearCategory(ctx, id); err != nil {
			return err
		}
		return tx.Categories().Delete(ctx, userID, id)
	})
}

// Stats counts the notes and tasks filed under a category.
func (s *CategoryService) Stats(ctx context.Context, userID, id int64) (*model.CategoryStats, error) {
	if _, err := s.store.Categories().Get(ctx, userID, id); err != nil {
		return nil, err
	}
	notes, err := s.store.Notes().CountByCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.Tasks().CountByCategory(ctx, id, "")
	if err != nil {
		return nil, err
	}
	done, err := s.store.Tasks().CountByCategory(ctx, id, model.TaskStatusCompleted)
	if err != nil {
		return nil, err
	}
	return &model.CategoryStats{
		CategoryID:     id,
		NotesCount:     notes,
		TasksCount:     tasks,
		CompletedTasks: done,
		PendingTasks:   tasks - done,
	}, nil
}

func (s *CategoryService) ensureNameFree(ctx context.Context, userID int64, name string, selfID int64) error {
	existing, err := s.store.Categories().GetByName(ctx, userID, name)
	switch {
	case model.IsNotFound(err):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return errDuplicateCategory
	default:
		return nil
	}
}
