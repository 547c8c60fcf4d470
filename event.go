// Copyright (c) 2026 The Filewatch Authors. All rights reserved.
// Use of this source code is governed by the MIT license that can be
// found in the LICENSE file.

package filewatch

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Event is the decoded, caller-facing representation of a single raw
// filesystem notification record.
//
// It always describes one record, even when the OS coalesced several
// actions into one mask. WatchPath is the path the watch was registered
// for; Name is set only for events on entries inside a watched directory
// and is empty for events on the watched path itself. Cookie associates the
// two halves of a rename (moved-from/moved-to share one cookie).
//
// Kinds holds every symbolic flag name whose bits are fully contained in
// Mask; a single record can therefore carry more than one kind.
//
// An Event is immutable once constructed; ownership passes to the consumer
// on delivery.
type Event struct {
	Wd        int32    // watch handle the record arrived on
	WatchPath string   // registered path, "" if the handle is no longer registered
	Mask      uint32   // raw platform bitmask
	Name      string   // child name inside a watched directory
	Cookie    uint32   // rename correlation token, 0 if unused
	Kinds     []string // symbolic names matching Mask
}

// Path gives the full path the event refers to: the watched path itself, or
// the named child joined below it.
func (e Event) Path() string {
	if e.Name == "" {
		return e.WatchPath
	}
	return filepath.Join(e.WatchPath, e.Name)
}

// String implements fmt.Stringer interface.
func (e Event) String() string {
	kinds := strings.Join(e.Kinds, "|")
	if kinds == "" {
		kinds = "0x" + strconv.FormatUint(uint64(e.Mask), 16)
	}
	return kinds + `: "` + e.Path() + `"`
}
