package services

import (
	"context"

	"github.com/vcalderon2009/note-taker/internal/model"
	"github.com/vcalderon2009/note-taker/internal/store"
)

// DefaultConversationTitle is used when a conversation is created without a title.
const DefaultConversationTitle = "New Conversation"

// ConversationService manages conversations and their message history.
type ConversationService struct {
	store store.Store
}

func NewConversationService(s store.Store) *ConversationService {
	return &ConversationService{store: s}
}

// Create opens a conversation for userID. The user must exist.
func (s *ConversationService) Create(ctx context.Context, userID int64, title string) (*model.Conversation, error) {
	if _, err := s.store.Users().Get(ctx, userID); err != nil {
		return nil, err
	}
	if title == "" {
		title = DefaultConversationTitle
	}
	return s.store.Conversations().Create(ctx, &model.Conversation{UserID: userID, Title: title})
}

// List returns the user's conversations, newest first.
func (s *ConversationService) List(ctx context.Context, userID int64, page model.Page) ([]*model.Conversation, error) {
	return s.store.Conversations().List(ctx, userID, page)
}

// Get returns a conversation owned by userID.
func (s *ConversationService) Get(ctx context.Context, userID, id int64) (*model.Conversation, error) {
	c, err := s.store.Conversations().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, model.NewNotFoundError("conversation", id)
	}
	return c, nil
}

// Messages returns the conversation's messages, oldest first.
func (s *ConversationService) Messages(ctx context.Context, userID, id int64, page model.Page) ([]*model.Message, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.store.Messages().List(ctx, id, page)
}

// Delete removes a conversation with its messages. Notes and tasks captured
// in it survive with their conversation reference cleared. When the user is
// left without conversations a fresh one is created and its id returned.
func (s *ConversationService) Delete(ctx context.Context, userID, id int64) (newConversationID *int64, err error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Messages().DeleteByConversation(ctx, id); err != nil {
			return err
		}
		if err := tx.Conversations().Delete(ctx, id); err != nil {
			return err
		}
		n, err := tx.Conversations().Count(ctx, userID)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		c, err := tx.Conversations().Create(ctx, &model.Conversation{UserID: userID, Title: DefaultConversationTitle})
		if err != nil {
			return err
		}
		newConversationID = &c.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newConversationID, nil
}
