package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vcalderon2009/note-taker/internal/telemetry"
)

// Handlers bundles everything the router mounts. Metrics may be nil.
type Handlers struct {
	Health        *HealthHandler
	Conversations *ConversationHandler
	Notes         *NoteHandler
	Tasks         *TaskHandler
	Categories    *CategoryHandler
	Classify      *ClassifyHandler
	Metrics       http.Handler
}

// NewRouter registers every route on a fresh mux router.
func NewRouter(h Handlers) *mux.Router {
	root := mux.NewRouter()

	root.HandleFunc("/health", h.Health.Live).Methods("GET")
	if h.Metrics != nil {
		root.Handle("/metrics", h.Metrics).Methods("GET")
	}

	api := root.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.Health.Dependencies).Methods("GET")

	// Conversations
	api.HandleFunc("/conversations", h.Conversations.CreateConversation).Methods("POST")
	api.HandleFunc("/conversations", h.Conversations.ListConversations).Methods("GET")
	api.HandleFunc("/conversations/{conversationId}", h.Conversations.GetConversation).Methods("GET")
	api.HandleFunc("/conversations/{conversationId}", h.Conversations.DeleteConversation).Methods("DELETE")
	api.HandleFunc("/conversations/{conversationId}/messages", h.Conversations.ListMessages).Methods("GET")
	api.HandleFunc("/conversations/{conversationId}/messages", h.Conversations.PostMessage).Methods("POST")

	// Notes
	api.HandleFunc("/notes", h.Notes.ListNotes).Methods("GET")
	api.HandleFunc("/notes", h.Notes.CreateNote).Methods("POST")
	api.HandleFunc("/notes/{noteId}", h.Notes.GetNote).Methods("GET")
	api.HandleFunc("/notes/{noteId}", h.Notes.UpdateNote).Methods("PATCH")
	api.HandleFunc("/notes/{noteId}", h.Notes.DeleteNote).Methods("DELETE")

	// Tasks
	api.HandleFunc("/tasks", h.Tasks.ListTasks).Methods("GET")
	api.HandleFunc("/tasks", h.Tasks.CreateTask).Methods("POST")
	api.HandleFunc("/tasks/{taskId}", h.Tasks.GetTask).Methods("GET")
	api.HandleFunc("/tasks/{taskId}", h.Tasks.UpdateTask).Methods("PATCH")
	api.HandleFunc("/tasks/{taskId}", h.Tasks.DeleteTask).Methods("DELETE")

	// Categories
	api.HandleFunc("/categories", h.Categories.ListCategories).Methods("GET")
	api.HandleFunc("/categories", h.Categories.CreateCategory).Methods("POST")
	api.HandleFunc("/categories/{categoryId}", h.Categories.GetCategory).Methods("GET")
	api.HandleFunc("/categories/{categoryId}", h.Categories.UpdateCategory).Methods("PUT")
	api.HandleFunc("/categories/{categoryId}", h.Categories.DeleteCategory).Methods("DELETE")
	api.HandleFunc("/categories/{categoryId}/stats", h.Categories.CategoryStats).Methods("GET")

	// Classification and admin
	api.HandleFunc("/classify-message", h.Classify.ClassifyMessage).Methods("POST")
	api.HandleFunc("/admin/prompts/reload", h.Classify.ReloadPrompts).Methods("POST")

	return root
}

// RouteTemplate resolves the path template a request would match, so metric
// labels stay bounded. Unmatched requests yield "".
func RouteTemplate(router *mux.Router) telemetry.RouteFunc {
	return func(r *http.Request) string {
		var m mux.RouteMatch
		if !router.Match(r, &m) || m.Route == nil {
			return ""
		}
		tpl, err := m.Route.GetPathTemplate()
		if err != nil {
			return ""
		}
		return tpl
	}
}
