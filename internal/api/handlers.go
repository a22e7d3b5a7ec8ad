package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/vcalderon2009/note-taker/internal/api/respond"
	"github.com/vcalderon2009/note-taker/internal/api/validate"
	"github.com/vcalderon2009/note-taker/internal/model"
)

// decode reads a JSON body into dst and validates it. On failure it writes a
// 400 and returns false.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.WriteBadRequest(w, "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respond.WriteServiceError(w, err)
		return false
	}
	return true
}

// pathID parses the named mux variable as a positive int64.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		respond.WriteBadRequest(w, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// page reads limit/offset query parameters, falling back to defLimit.
func page(w http.ResponseWriter, r *http.Request, defLimit int) (model.Page, bool) {
	p := model.Page{Limit: defLimit}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			respond.WriteBadRequest(w, "limit must be between 1 and 1000")
			return p, false
		}
		p.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "offset must be >= 0")
			return p, false
		}
		p.Offset = n
	}
	return p, true
}

type messageResponse struct {
	Message           string `json:"message"`
	NewConversationID *int64 `json:"new_conversation_id,omitempty"`
}

// isClientError reports whether err maps to a 4xx response.
func isClientError(err error) bool {
	return model.IsNotFound(err) || model.IsValidationError(err) || model.IsConflictError(err)
}
