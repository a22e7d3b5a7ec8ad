package api

import (
	"net/http"

	"github.com/vcalderon2009/note-taker/internal/api/respond"
	"github.com/vcalderon2009/note-taker/internal/model"
	"github.com/vcalderon2009/note-taker/internal/services"
)

type NoteHandler struct {
	svc    *services.NoteService
	userID int64
}

func NewNoteHandler(svc *services.NoteService, userID int64) *NoteHandler {
	return &NoteHandler{svc: svc, userID: userID}
}

type createNoteRequest struct {
	Title      string   `json:"title" validate:"required,max=500"`
	Body       string   `json:"body" validate:"required"`
	Tags       []string `json:"tags" validate:"omitempty,dive,max=100"`
	CategoryID *int64   `json:"category_id" validate:"omitempty,gt=0"`
}

type updateNoteRequest struct {
	Title      *string   `json:"title" validate:"omitempty,min=1,max=500"`
	Body       *string   `json:"body"`
	Tags       *[]string `json:"tags"`
	CategoryID *int64    `json:"category_id" validate:"omitempty,gt=0"`
}

func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.List(r.Context(), h.userID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var in createNoteRequest
	if !decode(w, r, &in) {
		return
	}
	n, err := h.svc.Create(r.Context(), &model.Note{
		UserID:     h.userID,
		Title:      in.Title,
		Body:       in.Body,
		Tags:       in.Tags,
		CategoryID: in.CategoryID,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "noteId")
	if !ok {
		return
	}
	n, err := h.svc.Get(r.Context(), h.userID, id)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "noteId")
	if !ok {
		return
	}
	var in updateNoteRequest
	if !decode(w, r, &in) {
		return
	}
	n, err := h.svc.Update(r.Context(), h.userID, id, model.NotePatch{
		Title:      in.Title,
		Body:       in.Body,
		Tags:       in.Tags,
		CategoryID: in.CategoryID,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "noteId")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), h.userID, id); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, messageResponse{Message: "Note deleted successfully"})
}
