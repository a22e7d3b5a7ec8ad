package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vcalderon2009/note-taker/internal/api/respond"
	"github.com/vcalderon2009/note-taker/internal/orchestrator"
	"github.com/vcalderon2009/note-taker/internal/services"
	"github.com/vcalderon2009/note-taker/internal/telemetry"
)

// ConversationHandler serves conversations and the message capture endpoint.
type ConversationHandler struct {
	svc    *services.ConversationService
	orch   *orchestrator.Service
	userID int64
	em     *telemetry.Emitter
	log    zerolog.Logger
}

func NewConversationHandler(svc *services.ConversationService, orch *orchestrator.Service, userID int64, em *telemetry.Emitter, log zerolog.Logger) *ConversationHandler {
	if em == nil {
		em = telemetry.Nop()
	}
	return &ConversationHandler{svc: svc, orch: orch, userID: userID, em: em, log: log}
}

type createConversationRequest struct {
	Title string `json:"title" validate:"max=200"`
}

type postMessageRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

// CreateConversation handles POST /api/conversations.
func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var in createConversationRequest
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.Create(r.Context(), h.userID, in.Title)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

// ListConversations handles GET /api/conversations.
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	p, ok := page(w, r, 50)
	if !ok {
		return
	}
	out, err := h.svc.List(r.Context(), h.userID, p)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// GetConversation handles GET /api/conversations/{conversationId}.
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "conversationId")
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

// ListMessages handles GET /api/conversations/{conversationId}/messages.
func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "conversationId")
	if !ok {
		return
	}
	p, ok := page(w, r, 100)
	if !ok {
		return
	}
	out, err := h.svc.Messages(r.Context(), h.userID, id, p)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteConversation handles DELETE /api/conversations/{conversationId}.
func (h *ConversationHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "conversationId")
	if !ok {
		return
	}
	newID, err := h.svc.Delete(r.Context(), h.userID, id)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, messageResponse{Message: "Conversation deleted successfully", NewConversationID: newID})
}

// PostMessage handles POST /api/conversations/{conversationId}/messages.
func (h *ConversationHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "conversationId")
	if !ok {
		return
	}
	var in postMessageRequest
	if !decode(w, r, &in) {
		return
	}
	requestID := telemetry.RequestIDFrom(r.Context())
	res, err := h.orch.HandleMessage(r.Context(), h.userID, id, in.Text, requestID)
	if err != nil {
		if !isClientError(err) {
			h.em.Error(err, requestID, telemetry.UserIDFrom(r.Context()), map[string]any{
				"conversation_id": id,
				"operation":       "post_message",
			})
		}
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}
