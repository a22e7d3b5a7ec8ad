package services

import (
	"context"

	"github.com/vcalderon2009/note-taker/internal/model"
	"github.com/vcalderon2009/note-taker/internal/store"
)

// NoteService provides note CRUD scoped to one user.
type NoteService struct {
	store store.Store
}

func NewNoteService(s store.Store) *NoteService {
	return &NoteService{store: s}
}

func (s *NoteService) Create(ctx context.Context, n *model.Note) (*model.Note, error) {
	if n.CategoryID != nil {
		if _, err := s.store.Categories().Get(ctx, n.UserID, *n.CategoryID); err != nil {
			return nil, err
		}
	}
	return s.store.Notes().Create(ctx, n)
}

func (s *NoteService) Get(ctx context.Context, userID, id int64) (*model.Note, error) {
	n, err := s.store.Notes().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, model.NewNotFoundError("note", id)
	}
	return n, nil
}

// List returns the user's notes, newest first.
func (s *NoteService) List(ctx context.Context, userID int64) ([]*model.Note, error) {
	return s.store.Notes().List(ctx, userID)
}

// Update applies the non-nil fields of p.
func (s *NoteService) Update(ctx context.Context, userID, id int64, p model.NotePatch) (*model.Note, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if p.CategoryID != nil {
		if _, err := s.store.Categories().Get(ctx, userID, *p.CategoryID); err != nil {
			return nil, err
		}
	}
	return s.store.Notes().Update(ctx, id, p)
}

func (s *NoteService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.Notes().Delete(ctx, id)
}
