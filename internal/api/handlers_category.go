package api

import (
	"net/http"

	"github.com/vcalderon2009/note-taker/internal/api/respond"
	"github.com/vcalderon2009/note-taker/internal/model"
	"github.com/vcalderon2009/note-taker/internal/services"
)

type CategoryHandler struct {
	svc    *services.CategoryService
	userID int64
}

func NewCategoryHandler(svc *services.CategoryService, userID int64) *CategoryHandler {
	return &CategoryHandler{svc: svc, userID: userID}
}

type createCategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
	Icon        *string `json:"icon" validate:"omitempty,max=50"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
	Icon        *string `json:"icon" validate:"omitempty,max=50"`
}

func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.List(r.Context(), h.userID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in createCategoryRequest
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.Create(r.Context(), &model.Category{
		UserID:      h.userID,
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "categoryId")
	if !ok {
		return
	}
	c, err := h.svc.Get(r.Context(), h.userID, id)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "categoryId")
	if !ok {
		return
	}
	var in updateCategoryRequest
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.Update(r.Context(), h.userID, id, model.CategoryPatch{
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "categoryId")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), h.userID, id); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, messageResponse{Message: "Category deleted successfully"})
}

// CategoryStats handles GET /api/categories/{categoryId}/stats.
func (h *CategoryHandler) CategoryStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "categoryId")
	if !ok {
		return
	}
	st, err := h.svc.Stats(r.Context(), h.userID, id)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, st)
}
