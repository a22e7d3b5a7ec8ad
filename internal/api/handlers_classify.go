package api

import (
	"net/http"

	"github.com/vcalderon2009/note-taker/internal/api/respond"
	"github.com/vcalderon2009/note-taker/internal/prompts"
	"github.com/vcalderon2009/note-taker/internal/services"
	"github.com/vcalderon2009/note-taker/internal/telemetry"
)

// ClassifyHandler exposes the standalone classifier and prompt administration.
type ClassifyHandler struct {
	svc     *services.ClassificationService
	prompts *prompts.Store
}

func NewClassifyHandler(svc *services.ClassificationService, ps *prompts.Store) *ClassifyHandler {
	return &ClassifyHandler{svc: svc, prompts: ps}
}

type classifyRequest struct {
	Message string `json:"message" validate:"required,max=20000"`
}

type reloadPromptsRequest struct {
	Service string `json:"service" validate:"omitempty,max=100"`
}

// ClassifyMessage handles POST /api/classify-message. It always answers 200;
// model failures degrade to the keyword classifier.
func (h *ClassifyHandler) ClassifyMessage(w http.ResponseWriter, r *http.Request) {
	var in classifyRequest
	if !decode(w, r, &in) {
		return
	}
	res := h.svc.Classify(r.Context(), in.Message, telemetry.RequestIDFrom(r.Context()))
	respond.WriteJSON(w, http.StatusOK, res)
}

// ReloadPrompts handles POST /api/admin/prompts/reload. An empty body or
// service reloads every cached service.
func (h *ClassifyHandler) ReloadPrompts(w http.ResponseWriter, r *http.Request) {
	var in reloadPromptsRequest
	if r.ContentLength != 0 {
		if !decode(w, r, &in) {
			return
		}
	}
	if in.Service == "" {
		h.prompts.ReloadAll()
		respond.WriteJSON(w, http.StatusOK, map[string]string{"message": "Reloaded all prompt configurations"})
		return
	}
	h.prompts.Reload(in.Service)
	respond.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Reloaded prompt configuration",
		"service": in.Service,
	})
}
