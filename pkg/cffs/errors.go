// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cffs

import "fmt"

// BadMagicError is returned by the scanner/codec when the word at
// offset matches neither known header class nor the end-of-fs
// sentinel.
type BadMagicError struct {
	Offset uint64
	Word   uint32
}

func (e *BadMagicError) Error() string {
	return fmt.Sprintf("cffs: bad magic %#08x at offset %#x", e.Word, e.Offset)
}

// ShortError is returned when fewer bytes remain than a header class
// requires.
type ShortError struct {
	Offset uint64
}

func (e *ShortError) Error() string {
	return fmt.Sprintf("cffs: short header at offset %#x", e.Offset)
}

// CorruptError is returned when the scanner must abort mid-walk for a
// reason other than a bad magic word.
type CorruptError struct {
	Offset uint64
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("cffs: corrupt filesystem at offset %#x: %s", e.Offset, e.Reason)
}

// BadChecksumError records a payload whose stored checksum does not
// match the computed one. list tolerates it and flags the entry;
// fsck collects it into its report.
type BadChecksumError struct {
	Name string
}

func (e *BadChecksumError) Error() string {
	return fmt.Sprintf("cffs: bad checksum for %q", e.Name)
}

// TailCorruptError is returned by fsck when a byte past the sentinel
// is not the erased fill value.
type TailCorruptError struct {
	Offset uint64
}

func (e *TailCorruptError) Error() string {
	return fmt.Sprintf("cffs: tail corrupt at offset %#x", e.Offset)
}

// NoSpaceError is returned by insert when the device has insufficient
// free tail for the requested append.
type NoSpaceError struct {
	Needed    uint64
	Available uint64
}

func (e *NoSpaceError) Error() string {
	return fmt.Sprintf("cffs: no space: needed %d, available %d", e.Needed, e.Available)
}

// IllegalBitTransitionError guards delete: a rewrite of a flag word
// that would set a bit from 0 to 1.
type IllegalBitTransitionError struct {
	Offset uint64
}

func (e *IllegalBitTransitionError) Error() string {
	return fmt.Sprintf("cffs: illegal 0->1 bit transition at offset %#x", e.Offset)
}
