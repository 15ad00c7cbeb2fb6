package auto

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/teleop/internal/logging"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before reloading.
const DefaultDebounce = 100 * time.Millisecond

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) WatchOption {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// OnReload registers a callback run after every reload with the result.
func OnReload(fn func(names []string, err error)) WatchOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// Watcher reloads a Library whenever routine files in its directory change.
type Watcher struct {
	mu       sync.Mutex
	dir      string
	lib      *Library
	log      *logging.Logger
	debounce time.Duration
	onReload func(names []string, err error)

	watcher *fsnotify.Watcher
	timer   *time.Timer
	reloads int

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// NewWatcher watches dir for changes to lib's routines. Nothing is reloaded
// until Start.
func NewWatcher(lib *Library, dir string, opts ...WatchOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		dir:      dir,
		lib:      lib,
		log:      logging.Discard(),
		debounce: DefaultDebounce,
		watcher:  fsw,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start processes file events until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}

	w.closedWg.Add(1)
	go w.processLoop(ctx)
	return nil
}

// Watch loads dir into lib, then keeps it current until ctx is done. The
// returned watcher must be closed.
func Watch(ctx context.Context, lib *Library, dir string, opts ...WatchOption) (*Watcher, error) {
	if err := lib.Load(dir); err != nil && lib.Len() == 0 {
		return nil, err
	}
	w, err := NewWatcher(lib, dir, opts...)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) processLoop(ctx context.Context) {
	defer w.closedWg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.closeCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(ev)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch %s: %v", w.dir, err)
		}
	}
}

// handleFSEvent schedules a reload for changes to routine files.
func (w *Watcher) handleFSEvent(ev fsnotify.Event) {
	if !isRoutineFile(ev.Name) {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.reloads++
	w.mu.Unlock()

	err := w.lib.Load(w.dir)
	names := w.lib.Names()
	if err != nil {
		w.log.Warn("reloading routines from %s: %v", w.dir, err)
	} else {
		w.log.Info("reloaded %d routines from %s", len(names), w.dir)
	}
	if w.onReload != nil {
		w.onReload(names, err)
	}
}

// Reloads returns how many reloads have run.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	w.closedWg.Wait()
	return w.watcher.Close()
}
