// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cffs

import "fmt"

// ProgressFunc is called after each erase block completes, with the
// number of blocks erased so far and the total block count.
type ProgressFunc func(done, total int)

// Erase clears every erase block on the device. Confirmation is the
// caller's responsibility (the CLI collaborator); by the time Erase is
// called the operation is assumed approved.
func Erase(store BackingStore, progress ProgressFunc) error {
	geom, err := store.Geometry()
	if err != nil {
		return err
	}
	if geom.EraseBlockSize == 0 || geom.Size%geom.EraseBlockSize != 0 {
		return fmt.Errorf("cffs: erase: erase block size %d does not divide device size %d", geom.EraseBlockSize, geom.Size)
	}

	total := int(geom.Size / geom.EraseBlockSize)
	for i := 0; i < total; i++ {
		if err := store.EraseBlock(uint64(i) * geom.EraseBlockSize); err != nil {
			return err
		}
		if progress != nil {
			progress(i+1, total)
		}
	}
	return nil
}
