// Copyright (c) 2026 The Filewatch Authors. All rights reserved.
// Use of this source code is governed by the MIT license that can be
// found in the LICENSE file.

// Package filewatch delivers filesystem change notifications for a set of
// registered paths over a single kernel notification channel.
//
// A Watcher multiplexes an arbitrary number of watched paths onto one OS
// handle (one inotify instance on Linux). Raw kernel records are drained
// with non-blocking reads, split into discrete events, resolved back to the
// registered path, classified into symbolic kinds and handed to the Events
// channel. Sends block when the consumer is slow; that backpressure is the
// throttling contract, not an error.
//
// Typical usage:
//
//	w, err := filewatch.New(64, "create", "delete")
//	if err != nil {
//		// ...
//	}
//	defer w.Close()
//	if err := w.Add("/tmp/d"); err != nil {
//		// ...
//	}
//	if err := w.Listen(); err != nil {
//		// ...
//	}
//	for ev := range w.Events {
//		fmt.Println(ev)
//	}
//
// Add and Remove are synchronous calls executed on the caller's goroutine.
// They are not safe to call concurrently on the same Watcher from multiple
// goroutines without external synchronization; the Events and Errors
// channels are the only parts of a Watcher designed for concurrent access.
package filewatch

// Filter inspects a raw event before it is decoded and reports whether the
// event should be delivered. The wd argument is the watch handle the event
// arrived on and name is the child name inside the watched directory, or ""
// when the event concerns the watched path itself.
//
// A nil Filter delivers everything. Filtering happens before path
// resolution and kind classification, so suppressed events cost no decoding
// work. SetFilter must be called before Listen.
type Filter func(wd int32, name string) bool
