// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cffs

import (
	"encoding/binary"

	"github.com/linuxboot/cffs/pkg/log"
)

// Sentinel is the all-ones 32-bit word marking end-of-filesystem.
const Sentinel uint32 = 0xFFFFFFFF

// Record is one scanned slot: its offset, decoded header, and the
// byte range of its payload. Scanner never reads the payload itself;
// callers perform a separate positioned read via Offset/PayloadOffset.
type Record struct {
	Offset        uint64
	Header        Header
	PayloadOffset uint64
	PayloadLen    uint32
}

// scanState is the terminal/non-terminal state of a Scanner, mirroring
// the state machine in spec §4.3: AtHeader -> InSlot -> AtHeader |
// EndOfFs | Error, with EOD as an additional terminal reached when the
// device runs out before a full header fits. A payload that runs past
// the end of the device is an error (CorruptError), not EOD.
type scanState int

const (
	scanAtHeader scanState = iota
	scanEndOfFS
	scanEOD
	scanError
)

// Scanner walks a BackingStore from offset 0, one slot per Next call.
// It is restartable only from the beginning; it holds its own cursor
// and shares no state with Operations.
type Scanner struct {
	store BackingStore
	pos   uint64
	state scanState
	rec   Record
	err   error

	tail      uint64
	classSeen uint32
}

// NewScanner returns a Scanner positioned at the start of store.
func NewScanner(store BackingStore) *Scanner {
	return &Scanner{store: store}
}

// Next advances to the next slot and reports whether one was found.
// It returns false at EndOfFs, EOD, or on error; call Err to
// distinguish EOD (nil error) from a genuine failure.
func (s *Scanner) Next() bool {
	if s.state != scanAtHeader {
		return false
	}

	size := s.store.Size()
	if s.pos+4 > size {
		s.state = scanEOD
		s.tail = s.pos
		return false
	}

	word := make([]byte, 4)
	if err := s.store.ReadAt(s.pos, word); err != nil {
		s.state = scanError
		s.err = err
		return false
	}
	magic := binary.BigEndian.Uint32(word)
	if magic == Sentinel {
		s.state = scanEndOfFS
		s.tail = s.pos
		return false
	}

	var hdrSize int
	switch magic {
	case MagicClassB:
		hdrSize = ClassBHeaderSize
	case MagicClassA:
		hdrSize = ClassAHeaderSize
	default:
		s.state = scanError
		s.err = &BadMagicError{Offset: s.pos, Word: magic}
		return false
	}

	if s.classSeen == 0 {
		s.classSeen = magic
	} else if s.classSeen != magic {
		log.Warnf("mixed header classes in scan: first %#08x, now %#08x at offset %#x", s.classSeen, magic, s.pos)
	}

	if s.pos+uint64(hdrSize) > size {
		s.state = scanEOD
		s.tail = s.pos
		return false
	}
	buf := make([]byte, hdrSize)
	if err := s.store.ReadAt(s.pos, buf); err != nil {
		s.state = scanError
		s.err = err
		return false
	}
	hdr, err := DecodeHeader(s.pos, buf)
	if err != nil {
		s.state = scanError
		s.err = err
		return false
	}

	payloadOffset := s.pos + uint64(hdrSize)
	payloadLen := hdr.Length()
	if payloadOffset+uint64(payloadLen) > size {
		s.state = scanError
		s.err = &CorruptError{Offset: s.pos, Reason: "payload exceeds device size"}
		return false
	}

	s.rec = Record{
		Offset:        s.pos,
		Header:        hdr,
		PayloadOffset: payloadOffset,
		PayloadLen:    payloadLen,
	}

	next := payloadOffset + uint64(payloadLen)
	s.pos = (next + 3) &^ 3
	return true
}

// Record returns the most recently scanned slot. Valid only after a
// call to Next returned true.
func (s *Scanner) Record() Record { return s.rec }

// Err returns the error that stopped the scan, or nil if it stopped at
// EndOfFs or EOD.
func (s *Scanner) Err() error { return s.err }

// EndOfFS reports whether the scan stopped at the sentinel.
func (s *Scanner) EndOfFS() bool { return s.state == scanEndOfFS }

// EOD reports whether the scan stopped because the device ran out
// before a header or its sentinel was read.
func (s *Scanner) EOD() bool { return s.state == scanEOD }

// Tail returns the offset at which the scan halted: the sentinel
// position on EndOfFs, or on EOD the 4-byte-aligned offset following
// the last complete slot. It is the offset insert appends the next
// slot at.
func (s *Scanner) Tail() uint64 { return s.tail }

// ObservedClass returns the magic of the first slot class encountered,
// or 0 if the scan produced no slots.
func (s *Scanner) ObservedClass() uint32 { return s.classSeen }
