// Package respond writes JSON bodies and the {error, code, message} error
// envelope shared by every handler and pipeline stage.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vcalderon2009/note-taker/internal/model"
)

// ErrorResponse is the error envelope. Error is the HTTP status text.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// WriteJSON encodes data with the given status. Encoding failures happen
// after the header is sent, so they are only logged.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Int("status", status).Msg("encode response body")
	}
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    status,
		Message: message,
	})
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

// WriteServiceError maps a service-layer error onto the envelope. Internal
// error text never reaches the client.
func WriteServiceError(w http.ResponseWriter, err error) {
	status, msg := classify(err)
	WriteError(w, status, msg)
}

func classify(err error) (int, string) {
	var (
		ve model.ValidationError
		ce model.ConflictError
	)
	switch {
	case model.IsNotFound(err):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.As(err, &ce):
		return http.StatusBadRequest, ce.Message
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
