// Copyright (c) 2026 The Filewatch Authors. All rights reserved.
// Use of this source code is governed by the MIT license that can be
// found in the LICENSE file.

//go:build !linux

package filewatch

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher multiplexes filesystem notifications for a set of registered
// paths. On this platform it is backed by fsnotify; watch handles are
// synthesized so the event shape matches the Linux backend. fsnotify
// carries no rename correlation, so Cookie is always zero here.
type Watcher struct {
	// Events carries decoded events. Its capacity is fixed at
	// construction; a full channel blocks the drain loop until the
	// consumer catches up.
	Events chan Event

	// Errors carries the single fatal error that terminated the event
	// stream, if any.
	Errors chan error

	fs          *fsnotify.Watcher
	reg         *registry
	defaultMask uint32
	filter      Filter

	mu        sync.Mutex
	masks     map[int32]uint32
	nextWd    int32
	listening bool
	closed    bool
	done      chan struct{}
	loopDone  chan struct{}
}

// New opens the platform notification channel and gives a Watcher
// delivering into an Events channel of capacity queueLen. Every flag name
// in defaultFlags is applied to each subsequently added path.
func New(queueLen int, defaultFlags ...string) (*Watcher, error) {
	mask, err := encodeFlags(defaultFlags...)
	if err != nil {
		return nil, err
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("filewatch: open notification channel: %w", err)
	}
	w := &Watcher{
		Events:      make(chan Event, queueLen),
		Errors:      make(chan error, 1),
		fs:          fs,
		reg:         newRegistry(),
		defaultMask: mask,
		masks:       make(map[int32]uint32),
		done:        make(chan struct{}),
		loopDone:    make(chan struct{}),
	}
	runtime.SetFinalizer(w, (*Watcher).Close)
	return w, nil
}

// SetFilter installs f as the raw-event filter. It must be called before
// Listen.
func (w *Watcher) SetFilter(f Filter) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.filter = f
}

// Add registers path with the watcher. The effective flag set is the union
// of the watcher's default flags and extraFlags. Adding a path twice fails
// with ErrAlreadyWatched.
func (w *Watcher) Add(path string, extraFlags ...string) error {
	extra, err := encodeFlags(extraFlags...)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if _, ok := w.reg.wd(path); ok {
		return ErrAlreadyWatched
	}
	if err := w.fs.Add(path); err != nil {
		return fmt.Errorf("filewatch: add watch for %q: %w", path, err)
	}
	w.nextWd++
	wd := w.nextWd
	if err := w.reg.add(path, wd); err != nil {
		return err
	}
	w.masks[wd] = w.defaultMask | extra
	watchCount.Inc()
	debugf("added watch wd=%d path=%q mask=%#x", wd, path, w.defaultMask|extra)
	return nil
}

// Remove deregisters path.
func (w *Watcher) Remove(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if _, ok := w.reg.wd(path); !ok {
		return ErrNotWatched
	}
	if err := w.fs.Remove(path); err != nil {
		return fmt.Errorf("filewatch: remove watch for %q: %w", path, err)
	}
	wd, err := w.reg.remove(path)
	if err != nil {
		return err
	}
	delete(w.masks, wd)
	watchCount.Dec()
	debugf("removed watch wd=%d path=%q", wd, path)
	return nil
}

// Len gives the number of currently registered paths.
func (w *Watcher) Len() int {
	return w.reg.len()
}

// Listen starts the drain loop. It is idempotent: the loop is started at
// most once per watcher and repeat calls are no-ops.
func (w *Watcher) Listen() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if w.listening {
		return nil
	}
	w.listening = true
	go w.readLoop()
	return nil
}

// Close tears the watcher down and closes the Events and Errors channels. A
// consumer blocked on Events resumes with a normal end-of-stream. Close is
// idempotent and a no-op on a nil (never constructed) watcher.
func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	listening := w.listening
	close(w.done)
	w.mu.Unlock()

	runtime.SetFinalizer(w, nil)
	err := w.fs.Close()
	if listening {
		<-w.loopDone
	} else {
		close(w.Errors)
		close(w.Events)
	}
	debugf("watcher closed")
	return err
}

// readLoop forwards fsnotify records until the backend closes or fails.
func (w *Watcher) readLoop() {
	defer func() {
		close(w.Errors)
		close(w.Events)
		close(w.loopDone)
	}()
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			rawReads.Inc()
			if !w.deliver(ev) {
				return
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			readErrors.Inc()
			w.Errors <- err
			return
		case <-w.done:
			return
		}
	}
}

// deliver resolves one fsnotify record against the registry, classifies it
// and hands it to the Events channel. It reports whether the loop should
// keep running.
func (w *Watcher) deliver(ev fsnotify.Event) bool {
	// fsnotify reports full paths; recover the registered watch path and
	// the child name relative to it.
	wd, watchPath, name := int32(-1), "", ""
	if id, ok := w.reg.wd(ev.Name); ok {
		wd, watchPath = id, ev.Name
	} else if dir, base := split(ev.Name); dir != "" {
		if id, ok := w.reg.wd(dir); ok {
			wd, watchPath, name = id, dir, base
		} else {
			name = ev.Name
		}
	} else {
		name = ev.Name
	}
	if w.filter != nil && !w.filter(wd, name) {
		return true
	}
	mask := uint32(ev.Op)
	if m := w.maskFor(wd); m != 0 && mask&m == 0 {
		return true // none of the registered flags match
	}
	out := Event{
		Wd:        wd,
		WatchPath: watchPath,
		Mask:      mask,
		Name:      name,
		Kinds:     decodeMask(mask),
	}
	select {
	case w.Events <- out:
		eventsDelivered.Inc()
		return true
	case <-w.done:
		return false
	}
}

func (w *Watcher) maskFor(wd int32) uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.masks[wd]
}
