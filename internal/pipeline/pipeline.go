// Package pipeline composes the request-governance stages that wrap the
// router. Stages are named, ordered outermost-first, and built once at startup.
package pipeline

import (
	"net"
	"net/http"
	"strings"
)

// Stage is one named layer of the pipeline with a uniform (request, next) contract.
type Stage struct {
	Name string
	Wrap func(next http.Handler) http.Handler
}

// Pipeline is an ordered list of stages; the first stage sees requests first.
type Pipeline struct {
	stages []Stage
}

// New returns a pipeline running stages in the given order. Stages with a nil
// Wrap are skipped, which lets callers disable a stage by configuration.
func New(stages ...Stage) *Pipeline {
	p := &Pipeline{}
	for _, s := range stages {
		if s.Wrap != nil {
			p.stages = append(p.stages, s)
		}
	}
	return p
}

// Names lists the active stage names, outermost first.
func (p *Pipeline) Names() []string {
	out := make([]string, len(p.stages))
	for i, s := range p.stages {
		out[i] = s.Name
	}
	return out
}

// Then wraps h with every stage and returns the outermost handler.
func (p *Pipeline) Then(h http.Handler) http.Handler {
	for i := len(p.stages) - 1; i >= 0; i-- {
		h = p.stages[i].Wrap(h)
	}
	return h
}

// ClientHost returns the host part of r.RemoteAddr, or "" when unknown.
func ClientHost(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
