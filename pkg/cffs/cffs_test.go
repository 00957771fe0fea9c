// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cffs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPutThenGetRoundTrips(t *testing.T) {
	store := NewMemDevice(64*1024, 4096)
	want := []byte("the quick brown fox")
	mustInsert(t, store, "fox.txt", want)

	dir := t.TempDir()
	if err := Extract(store, nil, dir, Fail); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "fox.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("roundtrip mismatch: got %q, want %q", got, want)
	}
}

func TestDeleteThenListReportsDeletedAndIsIdempotent(t *testing.T) {
	store := NewMemDevice(64*1024, 4096)
	mustInsert(t, store, "hello", []byte("hi"))

	n, err := Delete(store, []string{"hello"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 1 {
		t.Fatalf("Delete deleted %d slots, want 1", n)
	}

	entries, err := List(store, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || !entries[0].Deleted {
		t.Fatalf("expected one deleted entry, got %+v", entries)
	}

	// Re-issuing delete is a no-op: no error, no further bit transitions.
	n2, err := Delete(store, []string{"hello"})
	if err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if n2 != 0 {
		t.Fatalf("second Delete reported %d deletions, want 0 (idempotent)", n2)
	}
}

func TestEraseResetsDeviceToEmpty(t *testing.T) {
	store := NewMemDevice(64*1024, 4096)
	mustInsert(t, store, "hello", []byte("hi"))

	var lastDone, lastTotal int
	if err := Erase(store, func(done, total int) { lastDone, lastTotal = done, total }); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	if lastDone != lastTotal || lastTotal == 0 {
		t.Fatalf("progress callback never reached completion: %d/%d", lastDone, lastTotal)
	}

	entries, err := List(store, nil)
	if err != nil {
		t.Fatalf("List after erase: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("List after erase = %+v, want empty", entries)
	}

	report, err := Fsck(store)
	if err != nil {
		t.Fatalf("Fsck after erase: %v", err)
	}
	if !report.TailOK {
		t.Fatalf("TailOK = false after erase")
	}
	if report.FreeBytes != store.Size() {
		t.Fatalf("FreeBytes = %d after erase, want %d", report.FreeBytes, store.Size())
	}
}

func TestFsckDetectsTailCorruption(t *testing.T) {
	// Mirrors spec scenario 5: one live file, then a single corrupted
	// byte in the free tail.
	store := NewMemDevice(64*1024, 4096)
	mustInsert(t, store, "hello", []byte("hi"))

	corrupt := []byte{0xFE}
	if err := store.WriteAt(1000, corrupt); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	report, err := Fsck(store)
	if err == nil {
		t.Fatalf("expected Fsck to report an error for tail corruption")
	}
	if report.TailOK {
		t.Fatalf("TailOK = true, want false")
	}
	if report.TailBadAt != 1000 {
		t.Fatalf("TailBadAt = %d, want 1000", report.TailBadAt)
	}
}

func TestFsckCollectsMultipleBadChecksums(t *testing.T) {
	store := NewMemDevice(64*1024, 4096)
	mustInsert(t, store, "a", []byte("aaa"))
	mustInsert(t, store, "b", []byte("bbb"))

	// Corrupt both payloads in place (overwrite, not append: fine for a
	// test fixture even though the engine itself never does this).
	sc := NewScanner(store)
	var offsets []uint64
	for sc.Next() {
		offsets = append(offsets, sc.Record().PayloadOffset)
	}
	for _, off := range offsets {
		if err := store.WriteAt(off, []byte("ZZZ")); err != nil {
			t.Fatalf("WriteAt: %v", err)
		}
	}

	report, err := Fsck(store)
	if err == nil {
		t.Fatalf("expected Fsck to report bad checksums")
	}
	bad := 0
	for _, fc := range report.PerFile {
		if !fc.ChkOK {
			bad++
		}
	}
	if bad != 2 {
		t.Fatalf("fsck found %d bad checksums, want 2 (both, not just the first)", bad)
	}
}

func TestInsertNoSpace(t *testing.T) {
	// Mirrors spec scenario 6 exactly: device_size=200, one Class B file
	// of length 100 already present; inserting a 50-byte file fails with
	// NoSpace{needed:114, available:36}.
	store := NewMemDevice(200, 8)
	mustInsert(t, store, "a", make([]byte, 100))

	err := Insert(store, "b", make([]byte, 50), time.Unix(1700000000, 0))
	ns, ok := err.(*NoSpaceError)
	if !ok {
		t.Fatalf("expected *NoSpaceError, got %T: %v", err, err)
	}
	if ns.Needed != 114 || ns.Available != 36 {
		t.Fatalf("NoSpaceError = %+v, want {Needed:114 Available:36}", ns)
	}
}

func TestListFiltersByGlob(t *testing.T) {
	store := NewMemDevice(64*1024, 4096)
	mustInsert(t, store, "image.bin", []byte("x"))
	mustInsert(t, store, "config.cfg", []byte("y"))

	entries, err := List(store, []string{"*.bin"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "image.bin" {
		t.Fatalf("glob filter mismatch: %+v", entries)
	}
}

func TestExtractExistsPolicy(t *testing.T) {
	store := NewMemDevice(64*1024, 4096)
	mustInsert(t, store, "hello", []byte("first"))
	dir := t.TempDir()

	if err := Extract(store, nil, dir, Overwrite); err != nil {
		t.Fatalf("first Extract: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "hello"), []byte("host-edited"), 0o600); err != nil {
		t.Fatalf("seed host file: %v", err)
	}

	if err := Extract(store, nil, dir, Fail); err == nil {
		t.Fatalf("expected Fail policy to error when the host file already exists")
	}
	if err := Extract(store, nil, dir, Skip); err != nil {
		t.Fatalf("Skip policy should not error: %v", err)
	}
	got, _ := os.ReadFile(filepath.Join(dir, "hello"))
	if string(got) != "host-edited" {
		t.Fatalf("Skip policy overwrote the host file: %q", got)
	}

	if err := Extract(store, nil, dir, Overwrite); err != nil {
		t.Fatalf("Overwrite policy: %v", err)
	}
	got, _ = os.ReadFile(filepath.Join(dir, "hello"))
	if string(got) != "first" {
		t.Fatalf("Overwrite policy left stale content: %q", got)
	}
}
