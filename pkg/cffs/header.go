// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cffs

import (
	"encoding/binary"

	"github.com/linuxboot/cffs/internal/cffsid"
)

// Header magic numbers, read as a big-endian 32-bit word at the first
// four bytes of every slot.
const (
	MagicClassB uint32 = 0xBAD00B1E
	MagicClassA uint32 = 0x07158805
)

// Fixed on-flash sizes. Immutable per the wire format.
const (
	ClassBHeaderSize = 64
	ClassAHeaderSize = 128

	classBNameLen = 48
	classANameLen = 64
)

// Class B flag bits. A freshly erased slot has all bits set; writers
// clear a bit to assert the condition it names.
const (
	classBFlagDeleted uint16 = 1 << 0 // clear = deleted
	classBFlagHasDate uint16 = 1 << 1 // clear = date present
)

// Class A deletion sentinel for flag2.
const classAFlag2Deleted uint32 = 0xFFFEFFFF

// classAFlag1Default is the nominal flag1 value CFFS writers set on
// every live Class A slot.
const classAFlag1Default uint32 = 0xFFFFFFF8

// Class A file type tags.
const (
	ClassATypeConfig uint32 = 1
	ClassATypeImage  uint32 = 2
)

// Header is the common accessor surface over the two on-flash header
// layouts. Both ClassBHeader and ClassAHeader implement it.
type Header interface {
	// Class returns the magic discriminator for this header's layout.
	Class() uint32
	// HeaderSize returns the fixed byte size of this header's class.
	HeaderSize() int
	// Name returns the NUL-terminated file name stored in the header.
	Name() string
	// Length returns the payload length following the header.
	Length() uint32
	// Deleted reports whether the slot is logically deleted.
	Deleted() bool
	// Date returns the seconds-since-epoch date field.
	Date() uint32
	// Encode serializes the header back to its fixed-size wire form.
	Encode() []byte
}

// ClassBHeader is the 64-byte "BAD00B1E" header.
type ClassBHeader struct {
	ChkSum uint16
	Flags  uint16
	date   uint32
	length uint32
	name   cffsid.Name
}

// Class implements Header.
func (h *ClassBHeader) Class() uint32 { return MagicClassB }

// HeaderSize implements Header.
func (h *ClassBHeader) HeaderSize() int { return ClassBHeaderSize }

// Name implements Header.
func (h *ClassBHeader) Name() string { return h.name.String() }

// Length implements Header.
func (h *ClassBHeader) Length() uint32 { return h.length }

// Deleted implements Header. A Class B slot is deleted iff the DELETED
// bit (bit 0) is clear.
func (h *ClassBHeader) Deleted() bool { return h.Flags&classBFlagDeleted == 0 }

// HasDate reports whether a date was recorded for this slot (clear =
// present, per the spec's clear-to-assert convention).
func (h *ClassBHeader) HasDate() bool { return h.Flags&classBFlagHasDate == 0 }

// Date implements Header.
func (h *ClassBHeader) Date() uint32 { return h.date }

// Encode implements Header.
func (h *ClassBHeader) Encode() []byte {
	buf := make([]byte, ClassBHeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], MagicClassB)
	binary.BigEndian.PutUint32(buf[4:8], h.length)
	binary.BigEndian.PutUint16(buf[8:10], h.ChkSum)
	binary.BigEndian.PutUint16(buf[10:12], h.Flags)
	binary.BigEndian.PutUint32(buf[12:16], h.date)
	copy(buf[16:16+classBNameLen], h.name.Encode())
	return buf
}

func newClassBHeader(length uint32, chksum uint16, date uint32, hasDate bool, name string) *ClassBHeader {
	// DELETED is clear-to-assert: a live (non-deleted) slot keeps bit 0
	// set. HASDATE is also clear-to-assert: clear it only when a date
	// is actually present.
	flags := uint16(0xFFFF)
	if hasDate {
		flags &^= classBFlagHasDate
	}
	return &ClassBHeader{
		ChkSum: chksum,
		Flags:  flags,
		date:   date,
		length: length,
		name:   cffsid.NewName(classBNameLen, name),
	}
}

func decodeClassBHeader(buf []byte) (*ClassBHeader, error) {
	if len(buf) < ClassBHeaderSize {
		return nil, &ShortError{}
	}
	h := &ClassBHeader{
		length: binary.BigEndian.Uint32(buf[4:8]),
		ChkSum: binary.BigEndian.Uint16(buf[8:10]),
		Flags:  binary.BigEndian.Uint16(buf[10:12]),
		date:   binary.BigEndian.Uint32(buf[12:16]),
		name:   cffsid.DecodeName(buf[16 : 16+classBNameLen]),
	}
	return h, nil
}

// ClassAHeader is the 128-byte "07158805" header.
type ClassAHeader struct {
	FileNum uint32
	length  uint32
	Seek    uint32
	CRC     uint32
	Type    uint32
	date    uint32
	Unk     uint32
	Flag1   uint32
	Flag2   uint32
	name    cffsid.Name
}

// Class implements Header.
func (h *ClassAHeader) Class() uint32 { return MagicClassA }

// HeaderSize implements Header.
func (h *ClassAHeader) HeaderSize() int { return ClassAHeaderSize }

// Name implements Header.
func (h *ClassAHeader) Name() string { return h.name.String() }

// Length implements Header.
func (h *ClassAHeader) Length() uint32 { return h.length }

// Deleted implements Header. A Class A slot is deleted iff Flag2 equals
// the deletion sentinel.
func (h *ClassAHeader) Deleted() bool { return h.Flag2 == classAFlag2Deleted }

// Date implements Header.
func (h *ClassAHeader) Date() uint32 { return h.date }

// Encode implements Header.
func (h *ClassAHeader) Encode() []byte {
	buf := make([]byte, ClassAHeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], MagicClassA)
	binary.BigEndian.PutUint32(buf[4:8], h.FileNum)
	copy(buf[8:8+classANameLen], h.name.Encode())
	off := 8 + classANameLen
	binary.BigEndian.PutUint32(buf[off:off+4], h.length)
	binary.BigEndian.PutUint32(buf[off+4:off+8], h.Seek)
	binary.BigEndian.PutUint32(buf[off+8:off+12], h.CRC)
	binary.BigEndian.PutUint32(buf[off+12:off+16], h.Type)
	binary.BigEndian.PutUint32(buf[off+16:off+20], h.date)
	binary.BigEndian.PutUint32(buf[off+20:off+24], h.Unk)
	binary.BigEndian.PutUint32(buf[off+24:off+28], h.Flag1)
	binary.BigEndian.PutUint32(buf[off+28:off+32], h.Flag2)
	// Remaining 24 bytes are zero padding (buf is already zero-filled).
	return buf
}

func decodeClassAHeader(buf []byte) (*ClassAHeader, error) {
	if len(buf) < ClassAHeaderSize {
		return nil, &ShortError{}
	}
	h := &ClassAHeader{
		FileNum: binary.BigEndian.Uint32(buf[4:8]),
		name:    cffsid.DecodeName(buf[8 : 8+classANameLen]),
	}
	off := 8 + classANameLen
	h.length = binary.BigEndian.Uint32(buf[off : off+4])
	h.Seek = binary.BigEndian.Uint32(buf[off+4 : off+8])
	h.CRC = binary.BigEndian.Uint32(buf[off+8 : off+12])
	h.Type = binary.BigEndian.Uint32(buf[off+12 : off+16])
	h.date = binary.BigEndian.Uint32(buf[off+16 : off+20])
	h.Unk = binary.BigEndian.Uint32(buf[off+20 : off+24])
	h.Flag1 = binary.BigEndian.Uint32(buf[off+24 : off+28])
	h.Flag2 = binary.BigEndian.Uint32(buf[off+28 : off+32])
	return h, nil
}

// DecodeHeader reads the magic word at the start of buf and dispatches
// to the matching class decoder. It returns BadMagicError if neither
// magic matches, ShortError if buf is too small for that class.
func DecodeHeader(offset uint64, buf []byte) (Header, error) {
	if len(buf) < 4 {
		return nil, &ShortError{Offset: offset}
	}
	magic := binary.BigEndian.Uint32(buf[0:4])
	switch magic {
	case MagicClassB:
		h, err := decodeClassBHeader(buf)
		if err != nil {
			return nil, &ShortError{Offset: offset}
		}
		return h, nil
	case MagicClassA:
		h, err := decodeClassAHeader(buf)
		if err != nil {
			return nil, &ShortError{Offset: offset}
		}
		return h, nil
	default:
		return nil, &BadMagicError{Offset: offset, Word: magic}
	}
}
