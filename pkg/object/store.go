package object

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// frameCacheSize bounds the read-through cache of decompressed frames.
// Commit-graph walks (log, merge-base search) re-read the same commits
// repeatedly, so even a small cache removes most inflate work.
const frameCacheSize = 512

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123... Each file holds the
// zlib-compressed frame "type len\0content"; the file name is the SHA-1
// of the uncompressed frame, so a stored object is immutable by
// construction.
type Store struct {
	root  string
	cache *lru.Cache[Hash, []byte]
}

// NewStore creates a Store rooted at the given directory (the repository's
// metadata dir). The objects/ subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[Hash, []byte](frameCacheSize)
	return &Store{root: root, cache: cache}
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if s.cache.Contains(h) {
		return true
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Put stores an object and returns its content hash. The frame is
// "type len\0content"; the write is atomic (temp file + rename) and
// idempotent: if an object with that hash already exists the write is a
// no-op, since content-addressed objects never change.
func (s *Store) Put(objType ObjectType, data []byte) (Hash, error) {
	envelope := fmt.Sprintf("%s %d\x00", objType, len(data))
	frame := append([]byte(envelope), data...)

	h := HashObject(objType, data)

	if s.Has(h) {
		return h, nil
	}

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	compressed, err := Compress(frame)
	if err != nil {
		return "", fmt.Errorf("object write %s: %w", h, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}

	if err := os.Rename(tmpName, s.objectPath(h)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}

	s.cache.Add(h, frame)
	return h, nil
}

// Get retrieves an object by hash, returning its type and raw content.
func (s *Store) Get(h Hash) (ObjectType, []byte, error) {
	frame, err := s.frame(h)
	if err != nil {
		return "", nil, err
	}
	return parseFrame(h, frame)
}

// frame returns the decompressed frame bytes for a hash, via the cache.
func (s *Store) frame(h Hash) ([]byte, error) {
	if frame, ok := s.cache.Get(h); ok {
		return frame, nil
	}

	compressed, err := os.ReadFile(s.objectPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object %s: %w", h, ErrNotFound)
		}
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}

	frame, err := Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("object read %s: %w: %v", h, ErrInvalidObject, err)
	}

	s.cache.Add(h, frame)
	return frame, nil
}

// parseFrame splits "type len\0content" and validates the header.
func parseFrame(h Hash, frame []byte) (ObjectType, []byte, error) {
	nulIdx := bytes.IndexByte(frame, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("object %s: %w: no NUL separator", h, ErrInvalidObject)
	}
	header := string(frame[:nulIdx])
	content := frame[nulIdx+1:]

	objType, lenStr, ok := strings.Cut(header, " ")
	if !ok {
		return "", nil, fmt.Errorf("object %s: %w: header %q", h, ErrInvalidObject, header)
	}
	length, err := strconv.Atoi(lenStr)
	if err != nil {
		return "", nil, fmt.Errorf("object %s: %w: length %q", h, ErrInvalidObject, lenStr)
	}
	if len(content) != length {
		return "", nil, fmt.Errorf("object %s: %w: length mismatch (header=%d, actual=%d)",
			h, ErrInvalidObject, length, len(content))
	}

	return ObjectType(objType), content, nil
}

// Resolve expands a hash prefix of at least 2 characters to the full hash.
// Zero matches returns ErrNotFound; more than one returns ErrAmbiguousHash
// naming the candidates.
func (s *Store) Resolve(prefix string) (Hash, error) {
	if len(prefix) < 2 {
		return "", fmt.Errorf("resolve %q: prefix must be at least 2 characters", prefix)
	}
	if len(prefix) == RawHashLen*2 {
		h := Hash(prefix)
		if s.Has(h) {
			return h, nil
		}
		return "", fmt.Errorf("object %s: %w", prefix, ErrNotFound)
	}

	bucket := filepath.Join(s.root, "objects", prefix[:2])
	entries, err := os.ReadDir(bucket)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("object %s: %w", prefix, ErrNotFound)
		}
		return "", fmt.Errorf("resolve %q: %w", prefix, err)
	}

	rest := prefix[2:]
	var matches []Hash
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue // in-flight temp files
		}
		if strings.HasPrefix(name, rest) {
			matches = append(matches, Hash(prefix[:2]+name))
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i] < matches[j] })

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("object %s: %w", prefix, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("prefix %s: %w: candidates %v", prefix, ErrAmbiguousHash, matches)
	}
}

// Remove deletes a loose object. Only the prune path uses this; normal
// operation never deletes objects.
func (s *Store) Remove(h Hash) error {
	if err := os.Remove(s.objectPath(h)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("object remove %s: %w", h, err)
	}
	s.cache.Remove(h)
	return nil
}

// List walks the fan-out directories and returns every stored hash.
func (s *Store) List() ([]Hash, error) {
	objectsDir := filepath.Join(s.root, "objects")
	buckets, err := os.ReadDir(objectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("object list: %w", err)
	}

	var hashes []Hash
	for _, b := range buckets {
		if !b.IsDir() || len(b.Name()) != 2 {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(objectsDir, b.Name()))
		if err != nil {
			return nil, fmt.Errorf("object list %s: %w", b.Name(), err)
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".") {
				continue
			}
			hashes = append(hashes, Hash(b.Name()+e.Name()))
		}
	}
	return hashes, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteBlob stores raw file bytes as a blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Put(TypeBlob, b.Data)
}

// ReadBlob reads a blob's raw data.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	objType, data, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeBlob {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, TypeBlob)
	}
	return &Blob{Data: data}, nil
}

// WriteTree serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	data, err := MarshalTree(tr)
	if err != nil {
		return "", err
	}
	return s.Put(TypeTree, data)
}

// ReadTree reads and deserializes a TreeObj.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	objType, data, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeTree {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, TypeTree)
	}
	return UnmarshalTree(data)
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Put(TypeCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	objType, data, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeCommit {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, TypeCommit)
	}
	return UnmarshalCommit(data)
}
