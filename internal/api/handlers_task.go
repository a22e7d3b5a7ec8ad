package api

import (
	"net/http"
	"time"

	"github.com/vcalderon2009/note-taker/internal/api/respond"
	"github.com/vcalderon2009/note-taker/internal/model"
	"github.com/vcalderon2009/note-taker/internal/services"
)

type TaskHandler struct {
	svc    *services.TaskService
	userID int64
}

func NewTaskHandler(svc *services.TaskService, userID int64) *TaskHandler {
	return &TaskHandler{svc: svc, userID: userID}
}

type createTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=500"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	Status      string     `json:"status" validate:"max=50"`
	Priority    *int       `json:"priority"`
	CategoryID  *int64     `json:"category_id" validate:"omitempty,gt=0"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=500"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	Status      *string    `json:"status" validate:"omitempty,min=1,max=50"`
	Priority    *int       `json:"priority"`
	CategoryID  *int64     `json:"category_id" validate:"omitempty,gt=0"`
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.List(r.Context(), h.userID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in createTaskRequest
	if !decode(w, r, &in) {
		return
	}
	t, err := h.svc.Create(r.Context(), &model.Task{
		UserID:      h.userID,
		Title:       in.Title,
		Description: in.Description,
		DueAt:       in.DueAt,
		Status:      in.Status,
		Priority:    in.Priority,
		CategoryID:  in.CategoryID,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "taskId")
	if !ok {
		return
	}
	t, err := h.svc.Get(r.Context(), h.userID, id)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "taskId")
	if !ok {
		return
	}
	var in updateTaskRequest
	if !decode(w, r, &in) {
		return
	}
	t, err := h.svc.Update(r.Context(), h.userID, id, model.TaskPatch{
		Title:       in.Title,
		Description: in.Description,
		DueAt:       in.DueAt,
		Status:      in.Status,
		Priority:    in.Priority,
		CategoryID:  in.CategoryID,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "taskId")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), h.userID, id); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, messageResponse{Message: "Task deleted successfully"})
}
