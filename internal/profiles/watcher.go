package profiles

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"devmanager/internal/logger"
)

// Watcher reports profile set changes under a directory
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func(profiles []string)

	mu      sync.Mutex
	current []string
	timer   *time.Timer
	stopped bool
	// rescans that passed the stopped check; Run waits for them
	rescans sync.WaitGroup

	// closed once the directory is being watched
	ready chan struct{}
}

// NewWatcher creates a watcher for dir. onChange receives the new sorted
// profile list whenever it differs from the last one seen.
func NewWatcher(dir string, debounce time.Duration, onChange func(profiles []string)) *Watcher {
	return &Watcher{dir: dir, debounce: debounce, onChange: onChange, ready: make(chan struct{})}
}

// Run watches until ctx is done. A directory that does not exist is not
// watched and Run returns immediately.
func (w *Watcher) Run(ctx context.Context) error {
	log := logger.WithField("dir", w.dir)

	initial, err := Discover(w.dir)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.current = initial
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create profile watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		log.WithError(err).Debug("Profiles directory not watched")
		return nil
	}
	log.Debug("Watching profiles directory")
	close(w.ready)

	defer func() {
		w.mu.Lock()
		w.stopped = true
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		w.rescans.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.schedule()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Profile watcher error")
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.rescan)
}

func (w *Watcher) rescan() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.rescans.Add(1)
	w.mu.Unlock()
	defer w.rescans.Done()

	profiles, err := Discover(w.dir)
	if err != nil {
		logger.WithError(err).Warn("Profile rescan failed")
		return
	}

	w.mu.Lock()
	changed := !slices.Equal(profiles, w.current)
	if changed {
		w.current = profiles
	}
	w.mu.Unlock()

	if changed {
		logger.WithField("profiles", profiles).Info("Profile set changed")
		w.onChange(profiles)
	}
}
