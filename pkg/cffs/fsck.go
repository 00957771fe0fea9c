// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cffs

import (
	"github.com/hashicorp/go-multierror"
)

const fsckTailChunkSize = 4096

// FileCheck is one fsck row: a slot's name and whether its stored
// checksum matched the computed one.
type FileCheck struct {
	Name   string
	ChkOK  bool
	Offset uint64
}

// Report is fsck's structured result. It is returned even when errs is
// non-nil, so a caller can inspect exactly what passed.
type Report struct {
	PerFile    []FileCheck
	FreeBytes  uint64
	TailOK     bool
	TailBadAt  uint64
	HasTailBad bool
}

// Fsck scans every slot, verifying stored checksums (Class B only;
// Class A carries no payload checksum), then confirms every byte from
// the sentinel to the device's end is the erased fill value. It
// collects every problem found rather than stopping at the first, per
// spec §7, and returns them as one multierror alongside the report.
func Fsck(store BackingStore) (*Report, error) {
	sc := NewScanner(store)
	report := &Report{TailOK: true}
	var result *multierror.Error

	for sc.Next() {
		rec := sc.Record()
		cb, isClassB := rec.Header.(*ClassBHeader)
		if !isClassB {
			report.PerFile = append(report.PerFile, FileCheck{
				Name: rec.Header.Name(), ChkOK: true, Offset: rec.Offset,
			})
			continue
		}
		payload := make([]byte, rec.PayloadLen)
		if err := store.ReadAt(rec.PayloadOffset, payload); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		ok := Checksum16(payload) == cb.ChkSum
		report.PerFile = append(report.PerFile, FileCheck{
			Name: rec.Header.Name(), ChkOK: ok, Offset: rec.Offset,
		})
		if !ok {
			result = multierror.Append(result, &BadChecksumError{Name: rec.Header.Name()})
		}
	}
	if sc.Err() != nil {
		result = multierror.Append(result, sc.Err())
	}

	size := store.Size()
	tail := sc.Tail()
	report.FreeBytes = size - tail

	chunk := make([]byte, fsckTailChunkSize)
	for off := tail; off < size; {
		n := fsckTailChunkSize
		if remaining := size - off; remaining < uint64(n) {
			n = int(remaining)
		}
		buf := chunk[:n]
		if err := store.ReadAt(off, buf); err != nil {
			result = multierror.Append(result, err)
			break
		}
		if ok, badIdx := isFillByte(buf, ErasedByte); !ok {
			report.TailOK = false
			report.HasTailBad = true
			report.TailBadAt = off + uint64(badIdx)
			result = multierror.Append(result, &TailCorruptError{Offset: report.TailBadAt})
			break
		}
		off += uint64(n)
	}

	return report, result.ErrorOrNil()
}
