// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cffs

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/linuxboot/cffs/internal/cffsid"
)

func TestClassBHeaderRoundTrip(t *testing.T) {
	h := newClassBHeader(5, Checksum16([]byte("hello")), 1700000000, true, "greeting")
	buf := h.Encode()
	if len(buf) != ClassBHeaderSize {
		t.Fatalf("encoded Class B header is %d bytes, want %d", len(buf), ClassBHeaderSize)
	}

	decoded, err := DecodeHeader(0, buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	got, ok := decoded.(*ClassBHeader)
	if !ok {
		t.Fatalf("decoded header is %T, want *ClassBHeader", decoded)
	}
	if diff := cmp.Diff(h, got, cmp.AllowUnexported(ClassBHeader{}), cmp.Comparer(func(a, b cffsid.Name) bool { return a.String() == b.String() })); diff != "" {
		t.Errorf("decode(encode(h)) mismatch (-want +got):\n%s", diff)
	}
}

func TestClassAHeaderRoundTrip(t *testing.T) {
	h := &ClassAHeader{
		FileNum: 3,
		length:  10,
		Seek:    256,
		CRC:     0,
		Type:    ClassATypeImage,
		date:    1700000000,
		Unk:     0,
		Flag1:   classAFlag1Default,
		Flag2:   0xFFFFFFFF,
		name:    cffsid.NewName(classANameLen, "firmware.bin"),
	}
	buf := h.Encode()
	if len(buf) != ClassAHeaderSize {
		t.Fatalf("encoded Class A header is %d bytes, want %d", len(buf), ClassAHeaderSize)
	}

	decoded, err := DecodeHeader(0, buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	got, ok := decoded.(*ClassAHeader)
	if !ok {
		t.Fatalf("decoded header is %T, want *ClassAHeader", decoded)
	}
	if diff := cmp.Diff(h, got, cmp.AllowUnexported(ClassAHeader{}), cmp.Comparer(func(a, b cffsid.Name) bool { return a.String() == b.String() })); diff != "" {
		t.Errorf("decode(encode(h)) mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeHeaderBadMagic(t *testing.T) {
	buf := make([]byte, ClassBHeaderSize)
	buf[0], buf[1], buf[2], buf[3] = 0xDE, 0xAD, 0xBE, 0xEF
	_, err := DecodeHeader(128, buf)
	bm, ok := err.(*BadMagicError)
	if !ok {
		t.Fatalf("expected *BadMagicError, got %T: %v", err, err)
	}
	if bm.Offset != 128 || bm.Word != 0xDEADBEEF {
		t.Fatalf("unexpected BadMagicError fields: %+v", bm)
	}
}

func TestDecodeHeaderShort(t *testing.T) {
	buf := make([]byte, 3)
	_, err := DecodeHeader(0, buf)
	if _, ok := err.(*ShortError); !ok {
		t.Fatalf("expected *ShortError for a 3-byte buffer, got %T: %v", err, err)
	}
}

func TestNameTruncationAndNULForcing(t *testing.T) {
	longName := make([]byte, 0)
	for i := 0; i < 100; i++ {
		longName = append(longName, 'x')
	}
	h := newClassBHeader(0, 0xFFFF, 0, true, string(longName))
	buf := h.Encode()
	nameField := buf[16 : 16+classBNameLen]
	if nameField[len(nameField)-1] != 0 {
		t.Fatalf("last byte of name field not forced to NUL: %#02x", nameField[len(nameField)-1])
	}
	decoded, err := DecodeHeader(0, buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if got := len(decoded.Name()); got != classBNameLen-1 {
		t.Fatalf("name not truncated to capacity-1: got length %d, want %d", got, classBNameLen-1)
	}
}

func TestZeroLengthPayloadHeader(t *testing.T) {
	h := newClassBHeader(0, Checksum16(nil), 1700000000, true, "empty")
	if h.Length() != 0 {
		t.Fatalf("Length() = %d, want 0", h.Length())
	}
	buf := h.Encode()
	if len(buf) != ClassBHeaderSize {
		t.Fatalf("zero-length payload still needs a full %d-byte header, got %d", ClassBHeaderSize, len(buf))
	}
}
