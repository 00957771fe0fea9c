// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cffs

import (
	"fmt"
	"os"
	"path/filepath"
)

// ExistsPolicy controls what Extract does when a host file already
// exists at the destination path. The decision is the external UI
// layer's to make; the engine only executes it.
type ExistsPolicy int

const (
	// Overwrite replaces an existing host file.
	Overwrite ExistsPolicy = iota
	// Skip leaves an existing host file untouched and continues.
	Skip
	// Fail aborts the extraction with an error.
	Fail
)

// Extract reads the payload of every slot matching patterns (or every
// live slot if patterns is empty) and writes it to destDir under the
// slot's on-flash name, creating the file with owner-only read/write
// permissions.
func Extract(store BackingStore, patterns []string, destDir string, policy ExistsPolicy) error {
	sc := NewScanner(store)
	for sc.Next() {
		rec := sc.Record()
		if len(patterns) > 0 && !matchesAny(patterns, rec.Header.Name()) {
			continue
		}
		if len(patterns) == 0 && rec.Header.Deleted() {
			continue
		}

		dest := filepath.Join(destDir, rec.Header.Name())
		if _, err := os.Stat(dest); err == nil {
			switch policy {
			case Skip:
				continue
			case Fail:
				return fmt.Errorf("cffs: extract: %s already exists", dest)
			case Overwrite:
				// fall through to write
			}
		}

		payload := make([]byte, rec.PayloadLen)
		if err := store.ReadAt(rec.PayloadOffset, payload); err != nil {
			return err
		}
		if err := os.WriteFile(dest, payload, 0o600); err != nil {
			return fmt.Errorf("cffs: extract %s: %w", dest, err)
		}
	}
	if sc.EndOfFS() || sc.EOD() {
		return nil
	}
	return sc.Err()
}
