// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cffs

import "encoding/binary"

// classBFlagsOffset and classAFlag2Offset are the byte offsets (from a
// slot's start) of the field delete rewrites, per spec §4.4.4.
const (
	classBFlagsOffset = 10
	classAFlag2Offset = 100
)

// Delete locates every slot whose name matches any of patterns and
// logically deletes it by clearing bits in its flag word. The write
// never sets a bit 0->1: the new value must be a bitwise subset of the
// old one, asserted by reading the field back before rewriting it. A
// slot already deleted is left untouched (delete is idempotent).
//
// It returns the number of slots deleted and the first error
// encountered, if any; it stops at the first error.
func Delete(store BackingStore, patterns []string) (int, error) {
	sc := NewScanner(store)
	var matches []Record
	for sc.Next() {
		rec := sc.Record()
		if matchesAny(patterns, rec.Header.Name()) {
			matches = append(matches, rec)
		}
	}
	if sc.Err() != nil {
		return 0, sc.Err()
	}

	deleted := 0
	for _, rec := range matches {
		if rec.Header.Deleted() {
			continue
		}
		if err := deleteOne(store, rec); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func deleteOne(store BackingStore, rec Record) error {
	switch h := rec.Header.(type) {
	case *ClassBHeader:
		old := h.Flags
		neu := old &^ classBFlagDeleted
		return bitClearWrite16(store, rec.Offset+classBFlagsOffset, old, neu)
	case *ClassAHeader:
		old := h.Flag2
		neu := classAFlag2Deleted
		return bitClearWrite32(store, rec.Offset+classAFlag2Offset, old, neu)
	default:
		return &CorruptError{Offset: rec.Offset, Reason: "unknown header class"}
	}
}

// bitClearWrite16 rewrites a 16-bit big-endian field, asserting that
// neu is a bitwise subset of old (no 0->1 transition).
func bitClearWrite16(store BackingStore, offset uint64, old, neu uint16) error {
	if neu&^old != 0 {
		return &IllegalBitTransitionError{Offset: offset}
	}
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, neu)
	return store.WriteAt(offset, buf)
}

// bitClearWrite32 rewrites a 32-bit big-endian field, asserting that
// neu is a bitwise subset of old (no 0->1 transition).
func bitClearWrite32(store BackingStore, offset uint64, old, neu uint32) error {
	if neu&^old != 0 {
		return &IllegalBitTransitionError{Offset: offset}
	}
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, neu)
	return store.WriteAt(offset, buf)
}
