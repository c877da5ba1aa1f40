package calibrate

import (
	"os"
	"sync"
	"time"
)

// Watcher polls a file and reports when it is rewritten, e.g. when a card
// is re-scanned while the calibrator has it open.
type Watcher struct {
	path     string
	interval time.Duration

	mu       sync.Mutex
	modTime  time.Time
	stopCh   chan struct{}
	onChange func()
}

// NewWatcher records the current modification time of path as the
// baseline.
func NewWatcher(path string, interval time.Duration) (*Watcher, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:     path,
		interval: interval,
		modTime:  info.ModTime(),
	}, nil
}

// OnChange sets the callback invoked from the polling goroutine when the
// file changes.
func (w *Watcher) OnChange(callback func()) {
	w.mu.Lock()
	w.onChange = callback
	w.mu.Unlock()
}

// Start begins polling in a background goroutine.
func (w *Watcher) Start() {
	w.mu.Lock()
	w.stopCh = make(chan struct{})
	stop := w.stopCh
	w.mu.Unlock()
	go w.loop(stop)
}

// Stop ends polling. It is safe to call on a watcher that never started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *Watcher) loop(stop chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !w.Changed() {
				continue
			}
			w.mu.Lock()
			cb := w.onChange
			w.mu.Unlock()
			if cb != nil {
				cb()
			}
		}
	}
}

// Changed reports whether the file was modified since the baseline and
// moves the baseline forward, so each rewrite is reported once.
func (w *Watcher) Changed() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !info.ModTime().After(w.modTime) {
		return false
	}
	w.modTime = info.ModTime()
	return true
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}
