// Package prompts loads per-service prompt configuration from YAML files and
// caches it in memory until explicitly reloaded.
package prompts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/vcalderon2009/note-taker/internal/classify"
)

//go:embed defaults/*.yaml
var defaultFiles embed.FS

// ErrPromptNotFound is returned when a service file lacks the named prompt.
var ErrPromptNotFound = errors.New("prompt not found")

const fallbackKey = "fallback"

// Prompt is a system prompt and its sampling temperature.
type Prompt struct {
	SystemPrompt string   `yaml:"system_prompt"`
	Temperature  *float64 `yaml:"temperature"`
}

// Fallback holds keyword lists used when the model cannot be relied on.
type Fallback struct {
	TaskKeywords        []string            `yaml:"task_keywords"`
	BrainDumpIndicators classify.Indicators `yaml:"brain_dump_indicators"`
}

// ServiceConfig is the parsed content of one {service}.yaml file.
type ServiceConfig struct {
	Prompts  map[string]Prompt
	Fallback Fallback
}

// Store reads {service}.yaml from a directory, or from the embedded defaults
// when no directory is configured. Parsed files are cached per service.
type Store struct {
	fsys  fs.FS
	dir   string
	log   zerolog.Logger
	mu    sync.RWMutex
	cache map[string]*ServiceConfig
}

// NewStore returns a Store reading from dir, or the embedded defaults if dir is empty.
func NewStore(dir string, log zerolog.Logger) *Store {
	var fsys fs.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	} else {
		sub, err := fs.Sub(defaultFiles, "defaults")
		if err != nil {
			panic(err) // embedded path is fixed at build time
		}
		fsys = sub
	}
	return &Store{fsys: fsys, dir: dir, log: log, cache: make(map[string]*ServiceConfig)}
}

// Dir returns the configured prompt directory ("" for embedded defaults).
func (s *Store) Dir() string { return s.dir }

// Config returns the cached configuration for service, loading it on first use.
func (s *Store) Config(service string) (*ServiceConfig, error) {
	s.mu.RLock()
	cfg, ok := s.cache[service]
	s.mu.RUnlock()
	if ok {
		return cfg, nil
	}

	cfg, err := s.load(service)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache[service] = cfg
	s.mu.Unlock()
	return cfg, nil
}

// Prompt returns the named prompt of service.
func (s *Store) Prompt(service, name string) (Prompt, error) {
	cfg, err := s.Config(service)
	if err != nil {
		return Prompt{}, err
	}
	p, ok := cfg.Prompts[name]
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %s/%s", ErrPromptNotFound, service, name)
	}
	return p, nil
}

// Temperature returns the prompt temperature, or def when unset or missing.
func (s *Store) Temperature(service, name string, def float64) float64 {
	p, err := s.Prompt(service, name)
	if err != nil || p.Temperature == nil {
		return def
	}
	return *p.Temperature
}

// Fallback returns the fallback keyword lists of service. A missing or
// unreadable file yields empty lists.
func (s *Store) Fallback(service string) Fallback {
	cfg, err := s.Config(service)
	if err != nil {
		s.log.Warn().Err(err).Str("service", service).Msg("prompt fallback config unavailable")
		return Fallback{}
	}
	return cfg.Fallback
}

// Reload drops the cached configuration of one service.
func (s *Store) Reload(service string) {
	s.mu.Lock()
	delete(s.cache, service)
	s.mu.Unlock()
	s.log.Info().Str("service", service).Msg("prompt cache reloaded")
}

// ReloadAll drops every cached configuration.
func (s *Store) ReloadAll() {
	s.mu.Lock()
	s.cache = make(map[string]*ServiceConfig)
	s.mu.Unlock()
	s.log.Info().Msg("prompt cache reloaded (all services)")
}

func (s *Store) load(service string) (*ServiceConfig, error) {
	b, err := fs.ReadFile(s.fsys, service+".yaml")
	if err != nil {
		return nil, fmt.Errorf("prompt file for %q: %w", service, err)
	}
	return Parse(b)
}

// Parse decodes a service file: the "fallback" key holds keyword lists and
// every other top-level key is a prompt.
func Parse(b []byte) (*ServiceConfig, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	cfg := &ServiceConfig{Prompts: make(map[string]Prompt, len(raw))}
	for key, node := range raw {
		node := node
		if key == fallbackKey {
			if err := node.Decode(&cfg.Fallback); err != nil {
				return nil, fmt.Errorf("parse fallback: %w", err)
			}
			continue
		}
		var p Prompt
		if err := node.Decode(&p); err != nil {
			return nil, fmt.Errorf("parse prompt %q: %w", key, err)
		}
		cfg.Prompts[key] = p
	}
	return cfg, nil
}
