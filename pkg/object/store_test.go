package object

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestPutGet_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	data := []byte("hello, kitcat\n")
	h, err := s.Put(TypeBlob, data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if len(h) != RawHashLen*2 {
		t.Fatalf("hash length = %d, want %d", len(h), RawHashLen*2)
	}

	objType, got, err := s.Get(h)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if objType != TypeBlob {
		t.Errorf("type = %q, want %q", objType, TypeBlob)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("payload = %q, want %q", got, data)
	}
}

func TestPut_Idempotent(t *testing.T) {
	s := newTestStore(t)

	data := []byte("same bytes")
	h1, err := s.Put(TypeBlob, data)
	if err != nil {
		t.Fatalf("first Put: %v", err)
	}
	h2, err := s.Put(TypeBlob, data)
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("hashes differ: %s vs %s", h1, h2)
	}

	// Exactly one object on disk.
	hashes, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(hashes) != 1 {
		t.Fatalf("stored %d objects, want 1: %v", len(hashes), hashes)
	}
}

func TestPut_StoresCompressedFrame(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	data := []byte("compress me")
	h, err := s.Put(TypeBlob, data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "objects", string(h[:2]), string(h[2:])))
	if err != nil {
		t.Fatalf("read object file: %v", err)
	}
	frame, err := Decompress(raw)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if HashBytes(frame) != h {
		t.Errorf("hash(frame) = %s, want file name %s", HashBytes(frame), h)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.Get("0123456789abcdef0123456789abcdef01234567")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGet_CorruptFrame(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	h, err := s.Put(TypeBlob, []byte("payload"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Rewrite the object with a frame missing its NUL separator.
	badFrame, err := Compress([]byte("blob 7payload"))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	path := filepath.Join(dir, "objects", string(h[:2]), string(h[2:]))
	if err := os.WriteFile(path, badFrame, 0o644); err != nil {
		t.Fatalf("write corrupt object: %v", err)
	}

	// Bypass the cache via a fresh store.
	s2 := NewStore(dir)
	_, _, err = s2.Get(h)
	if !errors.Is(err, ErrInvalidObject) {
		t.Fatalf("err = %v, want ErrInvalidObject", err)
	}
}

func TestResolve(t *testing.T) {
	s := newTestStore(t)

	h, err := s.Put(TypeBlob, []byte("resolve me"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Resolve(string(h[:8]))
	if err != nil {
		t.Fatalf("Resolve(%s): %v", h[:8], err)
	}
	if got != h {
		t.Errorf("Resolve = %s, want %s", got, h)
	}

	if _, err := s.Resolve("ffff"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(ffff) err = %v, want ErrNotFound", err)
	}
	if _, err := s.Resolve("f"); err == nil {
		t.Error("Resolve with 1-char prefix should fail")
	}
}

func TestResolve_Ambiguous(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	// Two fake objects sharing a 4-char prefix.
	bucket := filepath.Join(dir, "objects", "ab")
	if err := os.MkdirAll(bucket, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, rest := range []string{"cd111111111111111111111111111111111111", "cd222222222222222222222222222222222222"} {
		if err := os.WriteFile(filepath.Join(bucket, rest), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	_, err := s.Resolve("abcd")
	if !errors.Is(err, ErrAmbiguousHash) {
		t.Fatalf("err = %v, want ErrAmbiguousHash", err)
	}
}

func TestTypedReaders_KindMismatch(t *testing.T) {
	s := newTestStore(t)

	h, err := s.WriteBlob(&Blob{Data: []byte("not a commit")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := s.ReadCommit(h); err == nil {
		t.Error("ReadCommit on a blob should fail")
	}
	if _, err := s.ReadTree(h); err == nil {
		t.Error("ReadTree on a blob should fail")
	}
}
