// Copyright (c) 2026 The Filewatch Authors. All rights reserved.
// Use of this source code is governed by the MIT license that can be
// found in the LICENSE file.

//go:build linux

package filewatch

import (
	"bytes"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// maxEventSize is the largest single inotify record: fixed header plus a
// NUL-terminated name of up to NAME_MAX bytes. The read buffer holds 64 of
// them, which also satisfies the kernel's requirement that a buffer fits at
// least one full record.
const maxEventSize = unix.SizeofInotifyEvent + unix.NAME_MAX + 1

const readBufSize = 64 * maxEventSize

// Watcher multiplexes filesystem notifications for a set of registered
// paths over a single inotify instance.
//
// Decoded events arrive on Events in the exact order the kernel produced
// them. Events is closed on Close and on a fatal channel failure; in the
// failure case the underlying error is delivered on Errors first. Both
// channels are closed exactly once.
type Watcher struct {
	// Events carries decoded events. Its capacity is fixed at
	// construction; a full channel blocks the drain loop until the
	// consumer catches up.
	Events chan Event

	// Errors carries the single fatal error that terminated the event
	// stream, if any.
	Errors chan error

	fd          int
	wake        [2]int
	reg         *registry
	defaultMask uint32
	filter      Filter

	mu        sync.Mutex
	listening bool
	closed    bool
	done      chan struct{}
	loopDone  chan struct{}
}

// New opens a non-blocking inotify instance and gives a Watcher delivering
// into an Events channel of capacity queueLen. Every flag name in
// defaultFlags is applied to each subsequently added path; unknown names
// fail with *UnknownFlagError, a failed open with *os.SyscallError carrying
// the errno.
func New(queueLen int, defaultFlags ...string) (*Watcher, error) {
	mask, err := encodeFlags(defaultFlags...)
	if err != nil {
		return nil, err
	}
	var fd int
	for {
		fd, err = unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		return nil, os.NewSyscallError("inotify_init1", err)
	}
	var wake [2]int
	if err := unix.Pipe2(wake[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("pipe2", err)
	}
	w := &Watcher{
		Events:      make(chan Event, queueLen),
		Errors:      make(chan error, 1),
		fd:          fd,
		wake:        wake,
		reg:         newRegistry(),
		defaultMask: mask,
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
	var wd int
	for {
		wd, err = unix.InotifyAddWatch(w.fd, path, w.defaultMask|extra)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		return os.NewSyscallError("inotify_add_watch", err)
	}
	if err := w.reg.add(path, int32(wd)); err != nil {
		return err
	}
	watchCount.Inc()
	debugf("added watch wd=%d path=%q mask=%#x", wd, path, w.defaultMask|extra)
	return nil
}

// Remove deregisters path. Records already queued by the kernel for this
// watch may still be delivered afterwards, with an empty WatchPath.
func (w *Watcher) Remove(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	wd, ok := w.reg.wd(path)
	if !ok {
		return ErrNotWatched
	}
	if _, err := unix.InotifyRmWatch(w.fd, uint32(wd)); err != nil {
		return os.NewSyscallError("inotify_rm_watch", err)
	}
	if _, err := w.reg.remove(path); err != nil {
		return err
	}
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

// Close tears the watcher down: it wakes a drain loop parked in poll or
// blocked on a delivery, waits for it to finish, closes the Events and
// Errors channels and releases the inotify instance. A consumer blocked on
// Events resumes with a normal end-of-stream. Close is idempotent and a
// no-op on a nil (never constructed) watcher.
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
	unix.Write(w.wake[1], []byte{0})
	w.mu.Unlock()

	runtime.SetFinalizer(w, nil)
	if listening {
		<-w.loopDone
	} else {
		close(w.Errors)
		close(w.Events)
	}
	unix.Close(w.fd)
	unix.Close(w.wake[0])
	unix.Close(w.wake[1])
	debugf("watcher closed")
	return nil
}

// readLoop alternates between waiting for the inotify fd to become readable
// and draining it. It exits on a close request, after a hangup once the
// remaining buffered records are drained, or on a fatal read failure, in
// which case the error is put on Errors before the channels close.
func (w *Watcher) readLoop() {
	defer func() {
		close(w.Errors)
		close(w.Events)
		close(w.loopDone)
	}()
	buf := make([]byte, readBufSize)
	fds := []unix.PollFd{
		{Fd: int32(w.fd), Events: unix.POLLIN},
		{Fd: int32(w.wake[0]), Events: unix.POLLIN},
	}
	for {
		fds[0].Revents, fds[1].Revents = 0, 0
		if _, err := unix.Poll(fds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			readErrors.Inc()
			w.Errors <- os.NewSyscallError("poll", err)
			return
		}
		if fds[1].Revents != 0 {
			return // close requested
		}
		if !w.drain(buf) {
			return
		}
		// A hangup still drains whatever the kernel buffered first;
		// once that is done the stream ends normally.
		if fds[0].Revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
			return
		}
	}
}

// drain consumes buffered records until a read would block. It reports
// whether the loop should keep running.
func (w *Watcher) drain(buf []byte) bool {
	for {
		n, err := unix.Read(w.fd, buf)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			// Nothing more this pass; back to waiting for readiness.
			return true
		case err != nil:
			readErrors.Inc()
			w.Errors <- os.NewSyscallError("read", err)
			return false
		case n < unix.SizeofInotifyEvent:
			return true
		}
		rawReads.Inc()
		for _, raw := range splitRawEvents(buf[:n]) {
			if w.filter != nil && !w.filter(raw.wd, raw.name) {
				continue
			}
			path, _ := w.reg.resolve(raw.wd)
			ev := Event{
				Wd:        raw.wd,
				WatchPath: path,
				Mask:      raw.mask,
				Name:      raw.name,
				Cookie:    raw.cookie,
				Kinds:     decodeMask(raw.mask),
			}
			select {
			case w.Events <- ev:
				eventsDelivered.Inc()
			case <-w.done:
				return false
			}
		}
	}
}

// rawEvent is one kernel record split out of the read buffer.
type rawEvent struct {
	wd     int32
	mask   uint32
	cookie uint32
	name   string
}

// splitRawEvents walks the payload of a single read and splits it into
// discrete records: fixed header, then Len trailing bytes holding the
// NUL-padded child name.
//
// It relies on the kernel contract that a read never returns a partial
// record. From inotify(7): specifying a buffer of size
//
//	sizeof(struct inotify_event) + NAME_MAX + 1
//
// is sufficient to read at least one event, and since Linux 2.6.21 a read
// with a buffer too small for the next event fails with EINVAL instead of
// truncating. The walk therefore never needs to reassemble records across
// reads.
func splitRawEvents(buf []byte) []rawEvent {
	var events []rawEvent
	for pos := 0; pos+unix.SizeofInotifyEvent <= len(buf); {
		sys := (*unix.InotifyEvent)(unsafe.Pointer(&buf[pos]))
		pos += unix.SizeofInotifyEvent
		name := ""
		if sys.Len > 0 {
			end := pos + int(sys.Len)
			if end > len(buf) {
				end = len(buf)
			}
			name = string(bytes.TrimRight(buf[pos:end], "\x00"))
			pos += int(sys.Len)
		}
		events = append(events, rawEvent{
			wd:     sys.Wd,
			mask:   sys.Mask,
			cookie: sys.Cookie,
			name:   name,
		})
	}
	return events
}
