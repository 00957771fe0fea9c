// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cffs

import (
	"time"

	"github.com/linuxboot/cffs/internal/cffsid"
)

// Insert appends a new slot for name/payload at the device's current
// append tail. The whole payload is read into memory by the caller so
// the checksum can be computed in one pass before anything is
// committed, per the engine's memory model. now supplies the date
// field (callers pass time.Now(); tests pass a fixed time).
//
// If the device already contains at least one slot, its header class
// is inherited for the new slot; a blank device defaults to Class B.
func Insert(store BackingStore, name string, payload []byte, now time.Time) error {
	sc := NewScanner(store)
	count := uint32(0)
	for sc.Next() {
		count++
	}
	if sc.Err() != nil {
		return sc.Err()
	}

	tail := sc.Tail()
	class := sc.ObservedClass()
	if class == 0 {
		class = MagicClassB
	}

	var hdr Header
	switch class {
	case MagicClassA:
		hdr = &ClassAHeader{
			FileNum: count + 1,
			length:  uint32(len(payload)),
			Seek:    uint32(tail) + ClassAHeaderSize,
			CRC:     0,
			Type:    ClassATypeImage,
			date:    uint32(now.Unix()),
			Flag1:   classAFlag1Default,
			Flag2:   0xFFFFFFFF,
			name:    cffsid.NewName(classANameLen, name),
		}
	default:
		hdr = newClassBHeader(uint32(len(payload)), Checksum16(payload), uint32(now.Unix()), true, name)
	}

	needed := uint64(hdr.HeaderSize()) + uint64(len(payload))
	available := store.Size() - tail
	if needed > available {
		return &NoSpaceError{Needed: needed, Available: available}
	}

	slot := make([]byte, 0, hdr.HeaderSize()+len(payload))
	slot = append(slot, hdr.Encode()...)
	slot = append(slot, payload...)

	// Written as one call so the following slot's header is never
	// visible before this slot's payload is fully committed.
	return store.WriteAt(tail, slot)
}
