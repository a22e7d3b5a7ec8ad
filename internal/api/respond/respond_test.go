package respond

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vcalderon2009/note-taker/internal/model"
)

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"not found", model.NewNotFoundError("conversation", 7), http.StatusNotFound,
			`{"error":"Not Found","code":404,"message":"conversation 7 not found"}`},
		{"wrapped validation", fmt.Errorf("create note: %w", model.NewValidationError("title", "title is required")), http.StatusBadRequest,
			`{"error":"Bad Request","code":400,"message":"title is required"}`},
		{"conflict", model.NewConflictError("name", "category already exists"), http.StatusBadRequest,
			`{"error":"Bad Request","code":400,"message":"category already exists"}`},
		{"internal", errors.New("database is locked"), http.StatusInternalServerError,
			`{"error":"Internal Server Error","code":500,"message":"internal error"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteServiceError(rr, tc.err)
			assert.Equal(t, tc.code, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.body, rr.Body.String())
		})
	}
}
