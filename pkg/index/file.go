package index

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	indexLockRetryDelay = 5 * time.Millisecond
	indexLockWaitLimit  = 2 * time.Second
)

// Load reads and decodes the index file. A missing file is an empty
// index, not an error.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	entries, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	return entries, nil
}

// Save encodes entries and atomically replaces the index file. Writers
// serialize on <path>.lock for the whole operation; the new content is
// written to the lock file, fsynced, and renamed over the index so
// readers never observe a partial write.
func Save(path string, entries []Entry) error {
	return withLock(path, func() ([]byte, error) {
		return Encode(entries)
	})
}

// Update loads the index under the lock, applies fn to its entries, and
// writes the result back. This is the safe way to stage files from
// concurrent processes.
func Update(path string, fn func([]Entry) ([]Entry, error)) error {
	return withLock(path, func() ([]byte, error) {
		entries, err := Load(path)
		if err != nil {
			return nil, err
		}
		entries, err = fn(entries)
		if err != nil {
			return nil, err
		}
		return Encode(entries)
	})
}

// withLock serializes index writers. The lock file is created with
// O_EXCL so each writer owns a fresh inode, with a short retry spin
// while another writer holds it; an advisory flock is layered on top
// for writers that bypass the lock protocol. fn produces the new index
// content, which is written through the held descriptor, fsynced, and
// renamed over the index. The lock file is removed only when it was
// not renamed into place, so a successor's freshly created lock is
// never deleted out from under it.
func withLock(path string, fn func() ([]byte, error)) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	lockPath := path + ".lock"
	f, err := acquireIndexLock(lockPath)
	if err != nil {
		return err
	}
	renamed := false
	defer func() {
		unlockFile(f)
		f.Close()
		if !renamed {
			os.Remove(lockPath)
		}
	}()

	data, err := fn()
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync index: %w", err)
	}
	if err := os.Rename(lockPath, path); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	renamed = true
	return nil
}

// acquireIndexLock creates the lock file exclusively, retrying while a
// concurrent writer holds it. A lock left behind by a crashed process
// times out the acquisition rather than blocking forever.
func acquireIndexLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(indexLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
		if err == nil {
			if err := lockFile(f); err != nil {
				f.Close()
				os.Remove(lockPath)
				return nil, fmt.Errorf("lock index: %w", err)
			}
			return f, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("open index lock: %w", err)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("open index lock: timed out waiting for %s", lockPath)
		}
		time.Sleep(indexLockRetryDelay)
	}
}
