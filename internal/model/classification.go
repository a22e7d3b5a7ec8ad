package model

import (
	"encoding/json"
	"time"
)

// Classification kinds produced by the orchestrator.
const (
	KindNote      = "note"
	KindTask      = "task"
	KindBrainDump = "brain_dump"
)

// NoteDraft is a note that has been classified but not yet persisted.
type NoteDraft struct {
	Title string
	Body  string
	Tags  []string
}

// TaskDraft is a task that has been classified but not yet persisted.
type TaskDraft struct {
	Title       string
	Description *string
	DueAt       *time.Time
	Status      string
	Priority    *int
}

// Draft is one item of a brain dump: exactly one of Note or Task is set.
type Draft struct {
	Note *NoteDraft
	Task *TaskDraft
}

// ClassificationResult is the tagged union returned by classification.
// Kind selects which of Note, Task or (Summary, Items) is meaningful.
type ClassificationResult struct {
	Kind    string
	Note    *NoteDraft
	Task    *TaskDraft
	Summary string
	Items   []Draft
}

// OrchestratorResult is the persisted outcome returned to HTTP callers.
type OrchestratorResult struct {
	Type       string  `json:"type"`
	Note       *Note   `json:"note,omitempty"`
	Task       *Task   `json:"task,omitempty"`
	Summary    string  `json:"summary,omitempty"`
	Notes      []*Note `json:"notes,omitempty"`
	Tasks      []*Task `json:"tasks,omitempty"`
	TotalItems int     `json:"total_items,omitempty"`
}

// MarshalJSON emits only the members of the active variant; brain dumps always
// carry both lists, even when empty.
func (r OrchestratorResult) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case KindTask:
		return json.Marshal(struct {
			Type string `json:"type"`
			Task *Task  `json:"task"`
		}{r.Type, r.Task})
	case KindBrainDump:
		notes, tasks := r.Notes, r.Tasks
		if notes == nil {
			notes = []*Note{}
		}
		if tasks == nil {
			tasks = []*Task{}
		}
		return json.Marshal(struct {
			Type       string  `json:"type"`
			Summary    string  `json:"summary"`
			Notes      []*Note `json:"notes"`
			Tasks      []*Task `json:"tasks"`
			TotalItems int     `json:"total_items"`
		}{r.Type, r.Summary, notes, tasks, r.TotalItems})
	default:
		return json.Marshal(struct {
			Type string `json:"type"`
			Note *Note  `json:"note"`
		}{r.Type, r.Note})
	}
}

// ItemsCreated counts the entities materialized by the result.
func (r *OrchestratorResult) ItemsCreated() int {
	if r == nil {
		return 0
	}
	if r.Type == KindBrainDump {
		return r.TotalItems
	}
	return 1
}
