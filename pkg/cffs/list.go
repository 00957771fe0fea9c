// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cffs

import "path/filepath"

// ListEntry is one row of a directory listing.
type ListEntry struct {
	Offset      uint64
	Name        string
	Length      uint32
	Date        uint32
	ChkSum      uint16
	Deleted     bool
	BadChecksum bool
}

// List walks the device and reports one ListEntry per slot up to
// EndOfFs, optionally filtered by glob patterns (standard
// filename-glob semantics, matched against the slot name). A nil or
// empty patterns list matches everything. list tolerates bad
// checksums and flags them rather than stopping.
func List(store BackingStore, patterns []string) ([]ListEntry, error) {
	sc := NewScanner(store)
	var entries []ListEntry
	for sc.Next() {
		rec := sc.Record()
		if len(patterns) > 0 && !matchesAny(patterns, rec.Header.Name()) {
			continue
		}
		payload := make([]byte, rec.PayloadLen)
		if err := store.ReadAt(rec.PayloadOffset, payload); err != nil {
			return entries, err
		}
		entry := ListEntry{
			Offset:  rec.Offset,
			Name:    rec.Header.Name(),
			Length:  rec.Header.Length(),
			Date:    rec.Header.Date(),
			Deleted: rec.Header.Deleted(),
		}
		if cb, ok := rec.Header.(*ClassBHeader); ok {
			entry.ChkSum = cb.ChkSum
			entry.BadChecksum = Checksum16(payload) != cb.ChkSum
		}
		entries = append(entries, entry)
	}
	if sc.EndOfFS() || sc.EOD() {
		return entries, nil
	}
	return entries, sc.Err()
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
