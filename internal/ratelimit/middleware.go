package ratelimit

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/vcalderon2009/note-taker/internal/api/respond"
	"github.com/vcalderon2009/note-taker/internal/pipeline"
)

// Endpoint classes with their own rules.
const (
	ClassMessages = "messages:post"
	ClassNotes    = "notes:post"
	ClassTasks    = "tasks:post"
)

const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderWindow     = "X-RateLimit-Window"
	HeaderRetryAfter = "Retry-After"

	userHeader = "X-User-Id"
)

// Recorder counts admission decisions.
type Recorder interface {
	RateLimitDecision(class, outcome string)
}

// Class maps a request to its endpoint class.
func Class(method, path string) string {
	if method == http.MethodPost {
		switch {
		case strings.Contains(path, "/messages"):
			return ClassMessages
		case strings.Contains(path, "/notes"):
			return ClassNotes
		case strings.Contains(path, "/tasks"):
			return ClassTasks
		}
	}
	return strings.ToLower(method) + ":" + path
}

// UserKey identifies the caller: X-User-Id, else client host, else "anonymous".
func UserKey(r *http.Request) string {
	if v := r.Header.Get(userHeader); v != "" {
		return v
	}
	if h := pipeline.ClientHost(r); h != "" {
		return h
	}
	return "anonymous"
}

type exceededBody struct {
	Detail        string `json:"detail"`
	Limit         int    `json:"limit"`
	WindowSeconds int    `json:"window_seconds"`
	RetryAfter    int    `json:"retry_after"`
}

// Middleware returns the rate-limit stage. Rejected requests get a 429 and
// never reach next; admitted ones carry the X-RateLimit headers.
func Middleware(l *Limiter, rec Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := Class(r.Method, r.URL.Path)
			label := l.Config().MetricLabel(class)
			d := l.Allow(UserKey(r), class)
			setHeaders(w.Header(), d)

			if !d.Allowed {
				if rec != nil {
					rec.RateLimitDecision(label, "rejected")
				}
				w.Header().Set(HeaderRetryAfter, strconv.Itoa(d.RetryAfter))
				respond.WriteJSON(w, http.StatusTooManyRequests, exceededBody{
					Detail:        "Rate limit exceeded",
					Limit:         d.Limit,
					WindowSeconds: int(d.Window.Seconds()),
					RetryAfter:    d.RetryAfter,
				})
				return
			}
			if rec != nil {
				rec.RateLimitDecision(label, "allowed")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func setHeaders(h http.Header, d Decision) {
	h.Set(HeaderLimit, strconv.Itoa(d.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(d.Remaining))
	h.Set(HeaderReset, strconv.FormatInt(d.Reset.Unix(), 10))
	h.Set(HeaderWindow, strconv.Itoa(int(d.Window.Seconds())))
}
