// Package recovery is the outermost pipeline stage. It turns a panic in any
// later stage into a 500 error envelope so one bad message cannot take the
// server down.
package recovery

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/vcalderon2009/note-taker/internal/api/respond"
)

// New returns the recovery stage. http.ErrAbortHandler is re-raised so the
// server can abort the connection as usual.
func New(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &trackingWriter{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error().
					Str("panic", fmt.Sprint(rec)).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("client", r.RemoteAddr).
					Bool("headers_sent", tw.wrote).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				// Once the status line is out the client already has a partial
				// response; appending an envelope would corrupt it.
				if !tw.wrote {
					respond.WriteInternalError(tw, "internal error")
				}
			}()
			next.ServeHTTP(tw, r)
		})
	}
}

type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}
