//go:build linux

package filewatch

import "golang.org/x/sys/unix"

// Symbolic inotify flag names, sorted for binary search.
//
// "all" aliases IN_ALL_EVENTS, so decoding a mask that covers every event
// bit yields both the individual names and "all". "ignored" maps to
// IN_IGNORED, the bit the kernel sets when a watch is dropped; it is not an
// alias of "open".
var flagNames = []flagName{
	{"access", unix.IN_ACCESS},
	{"all", unix.IN_ALL_EVENTS},
	{"attrib", unix.IN_ATTRIB},
	{"close-nowrite", unix.IN_CLOSE_NOWRITE},
	{"close-write", unix.IN_CLOSE_WRITE},
	{"create", unix.IN_CREATE},
	{"delete", unix.IN_DELETE},
	{"delete-self", unix.IN_DELETE_SELF},
	{"ignored", unix.IN_IGNORED},
	{"modify", unix.IN_MODIFY},
	{"move-self", unix.IN_MOVE_SELF},
	{"moved-from", unix.IN_MOVED_FROM},
	{"moved-to", unix.IN_MOVED_TO},
	{"open", unix.IN_OPEN},
	{"q-overflow", unix.IN_Q_OVERFLOW},
	{"unmount", unix.IN_UNMOUNT},
}
