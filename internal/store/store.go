package store

import (
	"context"

	"github.com/vcalderon2009/note-taker/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Users() Users
	Conversations() Conversations
	Messages() Messages
	Notes() Notes
	Tasks() Tasks
	Categories() Categories

	// WithTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type Conversations interface {
	Create(ctx context.Context, c *model.Conversation) (*model.Conversation, error)
	Get(ctx context.Context, id int64) (*model.Conversation, error)
	List(ctx context.Context, userID int64, page model.Page) ([]*model.Conversation, error)
	Count(ctx context.Context, userID int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

type Messages interface {
	Create(ctx context.Context, m *model.Message) (*model.Message, error)
	// List returns messages oldest-first.
	List(ctx context.Context, conversationID int64, page model.Page) ([]*model.Message, error)
	// Recent returns up to limit messages newest-first.
	Recent(ctx context.Context, conversationID int64, limit int) ([]*model.Message, error)
	DeleteByConversation(ctx context.Context, conversationID int64) error
}

type Notes interface {
	Create(ctx context.Context, n *model.Note) (*model.Note, error)
	Get(ctx context.Context, id int64) (*model.Note, error)
	List(ctx context.Context, userID int64) ([]*model.Note, error)
	Update(ctx context.Context, id int64, p model.NotePatch) (*model.Note, error)
	Delete(ctx context.Context, id int64) error
	ClearCategory(ctx context.Context, categoryID int64) error
	CountByCategory(ctx context.Context, categoryID int64) (int, error)
}

type Tasks interface {
	Create(ctx context.Context, t *model.Task) (*model.Task, error)
	Get(ctx context.Context, id int64) (*model.Task, error)
	List(ctx context.Context, userID int64) ([]*model.Task, error)
	Update(ctx context.Context, id int64, p model.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, id int64) error
	ClearCategory(ctx context.Context, categoryID int64) error
	// CountByCategory counts tasks in a category; a non-empty status narrows the count.
	CountByCategory(ctx context.Context, categoryID int64, status string) (int, error)
}

type Categories interface {
	Create(ctx context.Context, c *model.Category) (*model.Category, error)
	Get(ctx context.Context, userID, id int64) (*model.Category, error)
	GetByName(ctx context.Context, userID int64, name string) (*model.Category, error)
	List(ctx context.Context, userID int64) ([]*model.Category, error)
	Update(ctx context.Context, userID, id int64, p model.CategoryPatch) (*model.Category, error)
	Delete(ctx context.Context, userID, id int64) error
}
