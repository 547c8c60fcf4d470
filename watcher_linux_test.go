//go:build linux

package filewatch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// appendRaw appends one synthetic kernel record to buf, padding the name
// with NULs to a four-byte boundary the way the kernel does.
func appendRaw(buf []byte, wd int32, mask, cookie uint32, name string) []byte {
	var nameLen int
	if name != "" {
		nameLen = (len(name)/4 + 1) * 4
	}
	sys := unix.InotifyEvent{Wd: wd, Mask: mask, Cookie: cookie, Len: uint32(nameLen)}
	hdr := (*[unix.SizeofInotifyEvent]byte)(unsafe.Pointer(&sys))
	buf = append(buf, hdr[:]...)
	if nameLen > 0 {
		padded := make([]byte, nameLen)
		copy(padded, name)
		buf = append(buf, padded...)
	}
	return buf
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev, ok := <-w.Events:
		require.True(t, ok, "event stream closed early")
		return ev
	case err := <-w.Errors:
		t.Fatalf("watcher failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestSplitRawEvents(t *testing.T) {
	var buf []byte
	buf = appendRaw(buf, 1, unix.IN_CREATE, 0, "")
	buf = appendRaw(buf, 1, unix.IN_MODIFY, 0, "file.txt")
	buf = appendRaw(buf, 2, unix.IN_MOVED_FROM, 7, "a")
	buf = appendRaw(buf, 2, unix.IN_MOVED_TO, 7, "b")

	events := splitRawEvents(buf)
	require.Len(t, events, 4)

	assert.Equal(t, rawEvent{wd: 1, mask: unix.IN_CREATE}, events[0])
	assert.Equal(t, rawEvent{wd: 1, mask: unix.IN_MODIFY, name: "file.txt"}, events[1])
	assert.Equal(t, rawEvent{wd: 2, mask: unix.IN_MOVED_FROM, cookie: 7, name: "a"}, events[2])
	assert.Equal(t, rawEvent{wd: 2, mask: unix.IN_MOVED_TO, cookie: 7, name: "b"}, events[3])

	// The rename halves share one correlation token.
	assert.Equal(t, events[2].cookie, events[3].cookie)
}

func TestSplitRawEventsEmpty(t *testing.T) {
	assert.Empty(t, splitRawEvents(nil))

	// Less than one header is nothing to split.
	assert.Empty(t, splitRawEvents(make([]byte, unix.SizeofInotifyEvent-1)))
}

func TestDrainWouldBlock(t *testing.T) {
	w, err := New(1, "create")
	require.NoError(t, err)
	defer w.Close()

	// Nothing is registered and nothing happened: the non-blocking read
	// reports would-block, which is not an error and produces no events.
	require.True(t, w.drain(make([]byte, readBufSize)))
	assert.Empty(t, w.Events)
	assert.Empty(t, w.Errors)
}

func TestWatcherEndToEnd(t *testing.T) {
	dir := t.TempDir()
	w, err := New(8, "create", "delete")
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add(dir))
	require.NoError(t, w.Listen())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.txt"), []byte("hi"), 0644))

	ev := nextEvent(t, w)
	assert.Contains(t, ev.Kinds, "create")
	assert.Equal(t, dir, ev.WatchPath)
	assert.Equal(t, "x.txt", ev.Name)
	assert.Equal(t, filepath.Join(dir, "x.txt"), ev.Path())

	require.NoError(t, os.Remove(filepath.Join(dir, "x.txt")))
	ev = nextEvent(t, w)
	assert.Contains(t, ev.Kinds, "delete")
	assert.Equal(t, "x.txt", ev.Name)
}

func TestRenamePairSharesCookie(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old"), nil, 0644))

	w, err := New(8, "moved-from", "moved-to")
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add(dir))
	require.NoError(t, w.Listen())

	require.NoError(t, os.Rename(filepath.Join(dir, "old"), filepath.Join(dir, "new")))

	from := nextEvent(t, w)
	to := nextEvent(t, w)
	assert.Contains(t, from.Kinds, "moved-from")
	assert.Equal(t, "old", from.Name)
	assert.Contains(t, to.Kinds, "moved-to")
	assert.Equal(t, "new", to.Name)
	assert.Equal(t, from.Cookie, to.Cookie)
	assert.NotZero(t, from.Cookie)
}

func TestFilterSuppressesEvents(t *testing.T) {
	dir := t.TempDir()
	w, err := New(8, "create")
	require.NoError(t, err)
	defer w.Close()

	w.SetFilter(func(wd int32, name string) bool {
		return filepath.Ext(name) != ".tmp"
	})
	require.NoError(t, w.Add(dir))
	require.NoError(t, w.Listen())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.tmp"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), nil, 0644))

	ev := nextEvent(t, w)
	assert.Equal(t, "keep.txt", ev.Name)
}

func TestAddRemoveLeavesRegistryEmpty(t *testing.T) {
	dir := t.TempDir()
	w, err := New(1, "create")
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add(dir))
	assert.Equal(t, 1, w.Len())
	require.NoError(t, w.Remove(dir))
	assert.Equal(t, 0, w.Len())

	assert.ErrorIs(t, w.Remove(dir), ErrNotWatched)
	assert.Equal(t, 0, w.Len())
}

func TestAddDuplicate(t *testing.T) {
	dir := t.TempDir()
	w, err := New(1, "create")
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add(dir))
	assert.ErrorIs(t, w.Add(dir), ErrAlreadyWatched)
	assert.Equal(t, 1, w.Len())
}

func TestAddErrors(t *testing.T) {
	dir := t.TempDir()
	w, err := New(1, "create")
	require.NoError(t, err)
	defer w.Close()

	var ufe *UnknownFlagError
	require.ErrorAs(t, w.Add(dir, "bogus"), &ufe)
	assert.Equal(t, "bogus", ufe.Flag)

	// OS registration failures surface the syscall and errno.
	err = w.Add(filepath.Join(dir, "does-not-exist"))
	var sysErr *os.SyscallError
	require.ErrorAs(t, err, &sysErr)
	assert.Equal(t, "inotify_add_watch", sysErr.Syscall)
	assert.True(t, errors.Is(err, unix.ENOENT))
}

func TestCloseUnblocksConsumer(t *testing.T) {
	dir := t.TempDir()
	w, err := New(0, "create")
	require.NoError(t, err)

	require.NoError(t, w.Add(dir))
	require.NoError(t, w.Listen())

	got := make(chan bool, 1)
	go func() {
		_, ok := <-w.Events
		got <- ok
	}()

	// Give the consumer a chance to park before tearing down.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, w.Close())

	select {
	case ok := <-got:
		assert.False(t, ok, "consumer must see a normal end-of-stream, not an event")
	case <-time.After(5 * time.Second):
		t.Fatal("consumer still blocked after Close")
	}
}

func TestClosedWatcherOperations(t *testing.T) {
	dir := t.TempDir()
	w, err := New(1, "create")
	require.NoError(t, err)
	require.NoError(t, w.Add(dir))
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.Add(dir), ErrWatcherClosed)
	assert.ErrorIs(t, w.Remove(dir), ErrWatcherClosed)
	assert.ErrorIs(t, w.Listen(), ErrWatcherClosed)

	// Close is idempotent, and a no-op on a watcher that never existed.
	assert.NoError(t, w.Close())
	assert.NoError(t, (*Watcher)(nil).Close())
}

func TestListenIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New(8, "create")
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add(dir))
	require.NoError(t, w.Listen())
	require.NoError(t, w.Listen())

	// A single loop serves the fd: one filesystem action, one event.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), nil, 0644))
	ev := nextEvent(t, w)
	assert.Contains(t, ev.Kinds, "create")

	select {
	case ev := <-w.Events:
		t.Fatalf("unexpected duplicate event %v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestUnknownFlagOnNew(t *testing.T) {
	_, err := New(1, "create", "nope")
	var ufe *UnknownFlagError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "nope", ufe.Flag)
}
