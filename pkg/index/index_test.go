package index

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"kitcat/pkg/object"
)

const (
	hashA = object.Hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	hashB = object.Hash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func testEntry(path string, hash object.Hash) Entry {
	return Entry{
		CtimeSec:  1700000000,
		CtimeNsec: 123456789,
		MtimeSec:  1700000001,
		MtimeNsec: 987654321,
		Dev:       2049,
		Ino:       42,
		Mode:      0o100644,
		UID:       1000,
		GID:       1000,
		Size:      17,
		Hash:      hash,
		Flags:     MakeFlags(path, StageNormal),
		Path:      path,
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	entries := []Entry{
		testEntry("src/main.go", hashA),
		testEntry("README.md", hashB),
	}

	data, err := Encode(entries)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := Normalize(entries)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
	if got[0].Path != "README.md" || got[1].Path != "src/main.go" {
		t.Errorf("entries not sorted by path: %q, %q", got[0].Path, got[1].Path)
	}
}

func TestEncode_HeaderShape(t *testing.T) {
	data, err := Encode([]Entry{testEntry("a.txt", hashA)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(data[:4]) != "DIRC" {
		t.Errorf("magic = %q, want DIRC", data[:4])
	}
	// Version 2, one entry, both big-endian.
	if !bytes.Equal(data[4:12], []byte{0, 0, 0, 2, 0, 0, 0, 1}) {
		t.Errorf("header tail = %v", data[4:12])
	}
	// Entry region between header and trailer pads to 8-byte alignment.
	body := len(data) - 12 - 20
	if body%8 != 0 {
		t.Errorf("entry region is %d bytes, not 8-byte aligned", body)
	}
}

func TestDecode_ChecksumMismatch(t *testing.T) {
	data, err := Encode([]Entry{testEntry("a.txt", hashA)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	data[len(data)-1] ^= 0xff

	if _, err := Decode(data); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Decode(tampered) = %v, want ErrCorrupt", err)
	}
}

func TestDecode_Truncated(t *testing.T) {
	data, err := Encode([]Entry{testEntry("a.txt", hashA)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Decode(data[:len(data)-4]); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Decode(truncated) = %v, want ErrCorrupt", err)
	}
}

func TestDecode_LegacyTextFormat(t *testing.T) {
	legacy := string(hashA) + " b.txt\n" + string(hashB) + " a.txt\n"

	entries, err := Decode([]byte(legacy))
	if err != nil {
		t.Fatalf("Decode legacy: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Path != "a.txt" || entries[0].Hash != hashB {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Mode != 0o100644 {
		t.Errorf("legacy mode = %o, want 100644", entries[1].Mode)
	}
}

func TestDecode_LegacyBadLine(t *testing.T) {
	if _, err := Decode([]byte("nonsense\n")); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Decode(bad legacy) = %v, want ErrCorrupt", err)
	}
}

func TestStageBits(t *testing.T) {
	for _, stage := range []int{StageNormal, StageBase, StageOurs, StageTheirs} {
		e := Entry{Flags: MakeFlags("file.txt", stage), Path: "file.txt"}
		if got := e.Stage(); got != stage {
			t.Errorf("Stage() = %d, want %d", got, stage)
		}
		if int(e.Flags&nameLenMask) != len("file.txt") {
			t.Errorf("name length bits = %d", e.Flags&nameLenMask)
		}
	}
}

func TestStageBits_SurviveRoundTrip(t *testing.T) {
	e := testEntry("conflict.txt", hashA)
	e.Flags = MakeFlags(e.Path, StageTheirs)

	data, err := Encode([]Entry{e})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got[0].Stage() != StageTheirs {
		t.Errorf("stage = %d, want %d", got[0].Stage(), StageTheirs)
	}
}

func TestNormalize_LastWriteWins(t *testing.T) {
	entries := Normalize([]Entry{
		testEntry("a.txt", hashA),
		testEntry("b.txt", hashA),
		testEntry("a.txt", hashB),
	})
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Path != "a.txt" || entries[0].Hash != hashB {
		t.Errorf("duplicate not replaced: %+v", entries[0])
	}
}

func TestUpsertRemoveLookup(t *testing.T) {
	entries := Upsert(nil, testEntry("b.txt", hashA))
	entries = Upsert(entries, testEntry("a.txt", hashA))
	entries = Upsert(entries, testEntry("b.txt", hashB))

	if e, ok := Lookup(entries, "b.txt"); !ok || e.Hash != hashB {
		t.Errorf("Lookup(b.txt) = %+v, %v", e, ok)
	}

	entries, removed := Remove(entries, "a.txt")
	if !removed || len(entries) != 1 {
		t.Fatalf("Remove: removed=%v len=%d", removed, len(entries))
	}
	if _, removed := Remove(entries, "missing.txt"); removed {
		t.Error("Remove reported a missing path as removed")
	}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	entries, err := Load(filepath.Join(t.TempDir(), "index"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	want := Normalize([]Entry{testEntry("a.txt", hashA), testEntry("b.txt", hashB)})

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Errorf("lock file left behind: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestUpdate_ReadModifyWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	if err := Save(path, []Entry{testEntry("a.txt", hashA)}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	err := Update(path, func(entries []Entry) ([]Entry, error) {
		return Upsert(entries, testEntry("b.txt", hashB)), nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestUpdate_ConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")

	paths := []string{"a.txt", "b.txt", "c.txt", "d.txt"}
	errs := make(chan error, len(paths))
	for _, p := range paths {
		go func(p string) {
			errs <- Update(path, func(entries []Entry) ([]Entry, error) {
				return Upsert(entries, testEntry(p, hashA)), nil
			})
		}(p)
	}
	for range paths {
		if err := <-errs; err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != len(paths) {
		t.Errorf("got %d entries, want %d", len(entries), len(paths))
	}
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Errorf("lock file left behind: %v", err)
	}
}

func TestSave_StaleLockTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	if err := os.WriteFile(path+".lock", nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Save(path, []Entry{testEntry("a.txt", hashA)}); err == nil {
		t.Fatal("Save succeeded despite a held lock")
	}
}

func TestNewEntry_ModeFromPermissions(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "run.sh")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(exe)
	if err != nil {
		t.Fatal(err)
	}

	e := NewEntry("run.sh", hashA, info)
	if e.Mode != 0o100755 {
		t.Errorf("mode = %o, want 100755", e.Mode)
	}
	if e.Size != uint32(info.Size()) || e.MtimeSec == 0 {
		t.Errorf("metadata not captured: %+v", e)
	}
}
