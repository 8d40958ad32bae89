package confloader

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the bursts of events one editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to a single configuration file.
type Watcher struct {
	watcher   *fsnotify.Watcher
	file      string
	callbacks []func(string)
	mu        sync.RWMutex
	done      chan struct{}
	stopOnce  sync.Once
	logger    *slog.Logger
	debounce  time.Duration
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for the watcher.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce sets how long the file must stay quiet before callbacks run.
// Zero reports every event.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a watcher for path.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		file:     filepath.Clean(path),
		done:     make(chan struct{}),
		logger:   slog.Default(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}

	// Watch the directory, not the file, to catch editors that replace
	// the file by rename.
	dir := filepath.Dir(w.file)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	w.logger.Debug("watching configuration", "file", w.file)
	return w, nil
}

// OnChange registers a callback invoked with the file path on every change.
func (w *Watcher) OnChange(callback func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start blocks delivering change events until Stop is called.
func (w *Watcher) Start() {
	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()
	fire := func() {
		select {
		case <-w.done:
		default:
			w.notifyCallbacks(w.file)
		}
	}

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.file {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.logger.Debug("configuration file changed", "op", event.Op.String())
				switch {
				case w.debounce <= 0:
					fire()
				case pending == nil:
					pending = time.AfterFunc(w.debounce, fire)
				default:
					pending.Reset(w.debounce)
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("configuration watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// StartAsync starts watching in a goroutine.
func (w *Watcher) StartAsync() {
	go w.Start()
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) notifyCallbacks(path string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, cb := range w.callbacks {
		cb(path)
	}
}
