package model

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// DefaultTaskStatus is applied when a task is created without a status.
const DefaultTaskStatus = "todo"

// TaskStatusCompleted is the status counted as done in category stats.
const TaskStatusCompleted = "completed"

// User owns conversations, notes, tasks and categories.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation groups an ordered, append-only sequence of messages.
type Conversation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is immutable once written.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	TokensIn       *int      `json:"tokens_in"`
	TokensOut      *int      `json:"tokens_out"`
	LatencyMS      *int      `json:"latency_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// Note is a free-form captured thought.
type Note struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	ConversationID *int64    `json:"conversation_id"`
	CategoryID     *int64    `json:"category_id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Tags           []string  `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Task is an actionable item. Status is an open vocabulary (todo, in-progress, done, completed...).
type Task struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	ConversationID *int64     `json:"conversation_id"`
	CategoryID     *int64     `json:"category_id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	DueAt          *time.Time `json:"due_at"`
	Status         string     `json:"status"`
	Priority       *int       `json:"priority"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Category labels notes and tasks. Name is unique per user.
type Category struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Color       *string   `json:"color"`
	Icon        *string   `json:"icon"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NotePatch carries the fields of a partial note update; nil means unchanged.
type NotePatch struct {
	Title      *string
	Body       *string
	Tags       *[]string
	CategoryID *int64
}

// TaskPatch carries the fields of a partial task update; nil means unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	DueAt       *time.Time
	Status      *string
	Priority    *int
	CategoryID  *int64
}

// CategoryPatch carries the fields of a category update; nil means unchanged.
type CategoryPatch struct {
	Name        *string
	Description *string
	Color       *string
	Icon        *string
}

// CategoryStats summarizes what a category is attached to.
type CategoryStats struct {
	CategoryID     int64 `json:"category_id"`
	NotesCount     int   `json:"notes_count"`
	TasksCount     int   `json:"tasks_count"`
	CompletedTasks int   `json:"completed_tasks"`
	PendingTasks   int   `json:"pending_tasks"`
}

// Page bounds list queries.
type Page struct {
	Limit  int
	Offset int
}
