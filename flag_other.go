//go:build !linux

package filewatch

import "github.com/fsnotify/fsnotify"

// Symbolic flag names for the fsnotify-backed fallback, sorted for binary
// search. fsnotify reports a single Rename op, so the three move-related
// names intentionally alias one bit and all of them decode from a rename
// record.
var flagNames = []flagName{
	{"all", uint32(fsnotify.Create | fsnotify.Remove | fsnotify.Write | fsnotify.Rename | fsnotify.Chmod)},
	{"attrib", uint32(fsnotify.Chmod)},
	{"create", uint32(fsnotify.Create)},
	{"delete", uint32(fsnotify.Remove)},
	{"modify", uint32(fsnotify.Write)},
	{"move-self", uint32(fsnotify.Rename)},
	{"moved-from", uint32(fsnotify.Rename)},
	{"moved-to", uint32(fsnotify.Rename)},
}
