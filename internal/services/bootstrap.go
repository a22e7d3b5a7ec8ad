package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vcalderon2009/note-taker/internal/model"
	"github.com/vcalderon2009/note-taker/internal/store"
)

// DefaultConversationName titles the conversation created on first start.
const DefaultConversationName = "Default Conversation"

// EnsureDefaults makes sure the implicit single user exists and owns at least
// one conversation. It is safe to call on every start.
func EnsureDefaults(ctx context.Context, s store.Store, email string, log zerolog.Logger) (*model.User, error) {
	u, err := s.Users().GetByEmail(ctx, email)
	if model.IsNotFound(err) {
		u, err = s.Users().Create(ctx, &model.User{Email: email})
		if model.IsConflictError(err) {
			u, err = s.Users().GetByEmail(ctx, email)
		} else if err == nil {
			log.Info().Int64("user_id", u.ID).Str("email", email).Msg("Created default user")
		}
	}
	if err != nil {
		return nil, err
	}

	n, err := s.Conversations().Count(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		c, err := s.Conversations().Create(ctx, &model.Conversation{UserID: u.ID, Title: DefaultConversationName})
		if err != nil {
			return nil, err
		}
		log.Info().Int64("conversation_id", c.ID).Msg("Created default conversation")
	}
	return u, nil
}
