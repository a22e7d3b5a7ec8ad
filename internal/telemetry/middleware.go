package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vcalderon2009/note-taker/internal/pipeline"
)

const (
	HeaderRequestID    = "X-Request-Id"
	HeaderResponseTime = "X-Response-Time"
	HeaderUserID       = "X-User-Id"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	userIDKey
)

// RequestIDFrom returns the request id stored by the telemetry stage.
func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// UserIDFrom returns the caller identity derived by the telemetry stage.
func UserIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// CallerID identifies the caller for telemetry: X-User-Id, else the first 20
// characters of a bearer token, else the client host.
func CallerID(r *http.Request) string {
	if v := r.Header.Get(HeaderUserID); v != "" {
		return v
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		tok := strings.TrimPrefix(auth, "Bearer ")
		if len(tok) > 20 {
			tok = tok[:20]
		}
		if tok != "" {
			return tok
		}
	}
	return pipeline.ClientHost(r)
}

// RouteFunc names the route template a request will hit, for metric labels.
type RouteFunc func(r *http.Request) string

// Middleware returns the telemetry stage. It assigns a request id, logs the
// start and end of each request and sets X-Request-Id / X-Response-Time.
// A panic from downstream is logged and re-raised for the recovery stage.
func (e *Emitter) Middleware(route RouteFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := RequestInfo{
				RequestID: uuid.NewString(),
				Method:    r.Method,
				Path:      r.URL.Path,
				Query:     r.URL.RawQuery,
				UserID:    CallerID(r),
				ClientIP:  pipeline.ClientHost(r),
				UserAgent: r.UserAgent(),
			}
			if route != nil {
				info.Route = route(r)
			}
			e.RequestStarted(info)

			ctx := WithRequestID(r.Context(), info.RequestID)
			ctx = context.WithValue(ctx, userIDKey, info.UserID)

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK, start: start, requestID: info.RequestID}
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					e.RequestFailed(info, time.Since(start), err)
					e.Error(err, info.RequestID, info.UserID, map[string]any{"path": info.Path, "method": info.Method})
					panic(rec)
				}
				if !sw.wroteHeader {
					sw.WriteHeader(http.StatusOK)
				}
				e.RequestCompleted(info, sw.status, time.Since(start))
			}()
			next.ServeHTTP(sw, r.WithContext(ctx))
		})
	}
}

// statusWriter records the status code and stamps the telemetry headers
// before the first byte is written.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	start       time.Time
	requestID   string
}

func (w *statusWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
	h := w.ResponseWriter.Header()
	h.Set(HeaderRequestID, w.requestID)
	h.Set(HeaderResponseTime, fmt.Sprintf("%dms", time.Since(w.start).Milliseconds()))
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
