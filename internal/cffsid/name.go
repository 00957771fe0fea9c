// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cffsid implements the fixed-width, NUL-padded name encoding
// shared by both CFFS header classes. It is adapted from the fmap
// package's String type: CFFS names are NUL-terminated ASCII, not
// 16-byte GUIDs, so the string-buffer codec is reused in place of
// fiano's GUID parser, which has no CFFS analogue.
package cffsid

import (
	"encoding/json"
	"strings"
)

// Name is a fixed-capacity, NUL-padded name field as stored on the
// flash medium. Capacity is the field's wire width, including the
// trailing NUL.
type Name struct {
	capacity int
	value    string
}

// NewName builds a Name for a field of the given wire capacity,
// truncating value to capacity-1 bytes if necessary.
func NewName(capacity int, value string) Name {
	if capacity < 1 {
		capacity = 1
	}
	if len(value) > capacity-1 {
		value = value[:capacity-1]
	}
	return Name{capacity: capacity, value: value}
}

// DecodeName reads a NUL-padded buffer, truncating at the first NUL
// byte and forcing the final byte to read as NUL regardless of its
// on-disk value (defensive, per the codec contract).
func DecodeName(buf []byte) Name {
	if len(buf) == 0 {
		return Name{capacity: 0, value: ""}
	}
	// The last byte is always treated as NUL regardless of its on-disk
	// value, so the scan never looks past len(buf)-1.
	limit := len(buf) - 1
	n := limit
	for i, b := range buf[:limit] {
		if b == 0 {
			n = i
			break
		}
	}
	return Name{capacity: len(buf), value: string(buf[:n])}
}

// String implements fmt.Stringer.
func (n Name) String() string {
	return strings.TrimRight(n.value, "\x00")
}

// Encode writes the name into a capacity-byte buffer, zero-padding the
// remainder and forcing the last byte to NUL.
func (n Name) Encode() []byte {
	buf := make([]byte, n.capacity)
	copy(buf, n.value)
	buf[len(buf)-1] = 0
	return buf
}

// MarshalJSON implements json.Marshaler.
func (n Name) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}
