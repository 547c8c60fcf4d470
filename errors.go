package filewatch

import (
	"errors"
	"strconv"
)

// Errors returned by Watcher operations. OS-level failures are not listed
// here; they are returned as *os.SyscallError values wrapping the exact
// syscall name and errno so the root cause stays visible.
var (
	// ErrWatcherClosed is returned by Add, Remove and Listen after Close,
	// or when the notification channel was never successfully opened.
	ErrWatcherClosed = errors.New("filewatch: watcher is closed")

	// ErrNotWatched is returned by Remove for a path that was never added.
	ErrNotWatched = errors.New("filewatch: path is not being watched")

	// ErrAlreadyWatched is returned by Add for a path that is already
	// registered. Duplicate registrations fail loudly instead of silently
	// merging flag sets.
	ErrAlreadyWatched = errors.New("filewatch: path is already being watched")
)

// UnknownFlagError is returned when a symbolic flag name has no
// corresponding platform notification flag.
type UnknownFlagError struct {
	Flag string
}

func (e *UnknownFlagError) Error() string {
	return "filewatch: unknown flag " + strconv.Quote(e.Flag)
}
