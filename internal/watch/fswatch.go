// Package watch provides the change-notification primitives the detect
// engine registers on candidate locations: an fsnotify-backed directory
// watcher, a polling registry watcher and a debouncer that coalesces bursts.
package watch

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// FSWatcher multiplexes one fsnotify watcher over many directory subscriptions.
// Watching a directory reports changes to the directory itself and to its
// immediate children, which is where new JDKs appear.
type FSWatcher struct {
	mu     sync.Mutex
	fsw    *fsnotify.Watcher
	subs   map[string]map[uint64]func()
	nextID uint64
	closed bool
	logger *zerolog.Logger
	done   chan struct{}
}

// NewFSWatcher creates the fsnotify watcher and starts its event loop
func NewFSWatcher(log *zerolog.Logger) (*FSWatcher, error) {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &FSWatcher{
		fsw:    fsw,
		subs:   make(map[string]map[uint64]func()),
		logger: log,
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Watch implements core.Watcher
func (w *FSWatcher) Watch(location string, onChange func()) (io.Closer, error) {
	dir := filepath.Clean(location)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, errors.New("watch: watcher closed")
	}

	if _, ok := w.subs[dir]; !ok {
		if err := w.fsw.Add(dir); err != nil {
			return nil, fmt.Errorf("watch: add %q: %w", dir, err)
		}
		w.subs[dir] = make(map[uint64]func())
	}

	w.nextID++
	id := w.nextID
	w.subs[dir][id] = onChange

	return &subscription{release: func() error { return w.unsubscribe(dir, id) }}, nil
}

// Close stops the event loop and releases all OS watches
func (w *FSWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.subs = make(map[string]map[uint64]func())
	w.mu.Unlock()

	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *FSWatcher) unsubscribe(dir string, id uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	callbacks, ok := w.subs[dir]
	if !ok {
		return nil
	}
	delete(callbacks, id)
	if len(callbacks) > 0 {
		return nil
	}

	delete(w.subs, dir)
	if w.closed {
		return nil
	}
	// The directory may already be gone, in which case fsnotify dropped it
	if err := w.fsw.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		return fmt.Errorf("watch: remove %q: %w", dir, err)
	}
	return nil
}

func (w *FSWatcher) loop() {
	defer close(w.done)

	for {
		select {
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) {
				continue
			}
			for _, fn := range w.callbacksFor(evt.Name) {
				fn()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if isFatalFsnotifyError(err) {
				w.logger.Error().Err(err).Msg("fsnotify watcher exhausted; falling back to timer-based detection")
				continue
			}
			w.logger.Warn().Err(err).Msg("fsnotify error")
		}
	}
}

// callbacksFor returns subscribers of the changed path and of its parent
func (w *FSWatcher) callbacksFor(name string) []func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []func()
	for _, dir := range []string{filepath.Clean(name), filepath.Dir(name)} {
		for _, fn := range w.subs[dir] {
			out = append(out, fn)
		}
	}
	return out
}

type subscription struct {
	once    sync.Once
	release func() error
	err     error
}

func (s *subscription) Close() error {
	s.once.Do(func() { s.err = s.release() })
	return s.err
}
