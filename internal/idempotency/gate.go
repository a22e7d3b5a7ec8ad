// Package idempotency replays the first response produced for a given
// Idempotency-Key instead of running the handler again.
package idempotency

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Header carries the client-chosen idempotency key.
const Header = "Idempotency-Key"

// Recorder counts replayed responses.
type Recorder interface {
	IdempotencyReplay()
}

// Record is a captured response.
type Record struct {
	Status int
	Header http.Header
	Body   []byte
}

// Fingerprint derives the cache key of a request path and idempotency key.
func Fingerprint(path, key string) string {
	sum := sha256.Sum256([]byte(path + "|" + key))
	return hex.EncodeToString(sum[:])
}

// Gate caches responses for the lifetime of the process. Records are never
// evicted.
type Gate struct {
	rec Recorder

	mu      sync.RWMutex
	records map[string]*Record
	group   singleflight.Group
}

// NewGate returns an empty gate; rec may be nil.
func NewGate(rec Recorder) *Gate {
	return &Gate{rec: rec, records: make(map[string]*Record)}
}

// Lookup returns the record stored under fingerprint, if any.
func (g *Gate) Lookup(fingerprint string) (*Record, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.records[fingerprint]
	return r, ok
}

// Len reports the number of stored records.
func (g *Gate) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.records)
}

func (g *Gate) store(fingerprint string, r *Record) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.records[fingerprint]; !ok {
		g.records[fingerprint] = r
	}
}

// Middleware returns the idempotency stage. Requests without the header pass
// through untouched. Concurrent first requests with the same fingerprint are
// collapsed so the handler runs once.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(Header)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		fp := Fingerprint(r.URL.Path, key)

		if rec, ok := g.Lookup(fp); ok {
			g.replayed()
			rec.writeTo(w)
			return
		}

		ran := false
		v, _, _ := g.group.Do(fp, func() (interface{}, error) {
			if rec, ok := g.Lookup(fp); ok {
				return rec, nil
			}
			ran = true
			cw := newCaptureWriter()
			next.ServeHTTP(cw, r)
			rec := cw.record()
			g.store(fp, rec)
			return rec, nil
		})
		if !ran {
			g.replayed()
		}
		v.(*Record).writeTo(w)
	})
}

func (g *Gate) replayed() {
	if g.rec != nil {
		g.rec.IdempotencyReplay()
	}
}

func (r *Record) writeTo(w http.ResponseWriter) {
	h := w.Header()
	for k, vs := range r.Header {
		h[k] = append([]string(nil), vs...)
	}
	w.WriteHeader(r.Status)
	_, _ = w.Write(r.Body)
}

// captureWriter buffers a handler's response.
type captureWriter struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func newCaptureWriter() *captureWriter {
	return &captureWriter{header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header { return c.header }

func (c *captureWriter) WriteHeader(code int) {
	if c.wroteHeader {
		return
	}
	c.wroteHeader = true
	c.status = code
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	return c.body.Write(b)
}

func (c *captureWriter) record() *Record {
	return &Record{Status: c.status, Header: c.header.Clone(), Body: append([]byte(nil), c.body.Bytes()...)}
}
