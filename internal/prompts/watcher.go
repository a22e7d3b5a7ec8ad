package prompts

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads a Store's cached services when their YAML files change.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	log      zerolog.Logger
	debounce time.Duration
	stopCh   chan struct{}
	done     chan struct{}

	mu       sync.Mutex
	timers   map[string]*time.Timer
	onChange []func(service string)
}

// NewWatcher watches the Store's directory. It fails when the Store uses the
// embedded defaults.
func NewWatcher(store *Store, log zerolog.Logger) (*Watcher, error) {
	if store.Dir() == "" {
		return nil, fmt.Errorf("prompt watcher requires a prompts directory")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(store.Dir()); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch prompts directory: %w", err)
	}
	return &Watcher{
		store:    store,
		watcher:  fw,
		log:      log,
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// OnChange registers fn to run after a service has been reloaded.
func (w *Watcher) OnChange(fn func(service string)) {
	w.mu.Lock()
	w.onChange = append(w.onChange, fn)
	w.mu.Unlock()
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go w.loop()
	w.log.Info().Str("dir", w.store.Dir()).Msg("prompt watcher started")
}

// Stop ends the watch loop and releases the underlying watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	_ = w.watcher.Close()
	<-w.done

	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()
	w.log.Info().Msg("prompt watcher stopped")
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if filepath.Ext(name) != ".yaml" {
				continue
			}
			w.schedule(strings.TrimSuffix(name, ".yaml"))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("prompt watcher error")
		}
	}
}

// schedule debounces bursts of events (editors often write several times).
func (w *Watcher) schedule(service string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[service]; ok {
		t.Stop()
	}
	w.timers[service] = time.AfterFunc(w.debounce, func() {
		w.store.Reload(service)
		w.mu.Lock()
		handlers := append([]func(string){}, w.onChange...)
		w.mu.Unlock()
		for _, fn := range handlers {
			fn(service)
		}
	})
}
