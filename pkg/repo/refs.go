package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"kitcat/pkg/object"
)

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

// Head reads the HEAD file. A symbolic HEAD returns its ref path (e.g.
// "refs/heads/main"); a detached HEAD returns the raw hash string.
func (r *Repository) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.KitDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")
	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimPrefix(content, "ref: "), nil
	}
	return content, nil
}

// SetHead points HEAD at a branch ref (symbolic) or, when target is a
// hash, detaches it.
func (r *Repository) SetHead(target string) error {
	content := target
	if strings.HasPrefix(target, "refs/") {
		content = "ref: " + target
	}
	if err := os.WriteFile(filepath.Join(r.KitDir, "HEAD"), []byte(content+"\n"), 0o644); err != nil {
		return fmt.Errorf("set HEAD: %w", err)
	}
	return nil
}

// CurrentBranch returns the branch name HEAD points at, or "" for a
// detached HEAD.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	const prefix = "refs/heads/"
	if strings.HasPrefix(head, prefix) {
		return strings.TrimPrefix(head, prefix), nil
	}
	return "", nil
}

// ResolveRef resolves a ref name to a hash.
//
// Resolution order:
//  1. "HEAD" resolves through the symbolic ref, or directly when detached.
//  2. Names starting with "refs/" read that ref file.
//  3. Anything else tries "refs/heads/<name>".
//
// An unborn branch (HEAD pointing at a ref file that does not exist yet)
// returns ErrNoCommits.
func (r *Repository) ResolveRef(name string) (object.Hash, error) {
	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(head, "refs/") {
			return r.ResolveRef(head)
		}
		return object.Hash(head), nil
	}

	refPath := filepath.Join(r.KitDir, filepath.FromSlash(name))
	if !strings.HasPrefix(name, "refs/") {
		refPath = filepath.Join(r.KitDir, "refs", "heads", name)
	}

	data, err := os.ReadFile(refPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("resolve ref %q: %w", name, ErrNoCommits)
		}
		return "", fmt.Errorf("resolve ref %q: %w", name, err)
	}
	return object.Hash(strings.TrimSpace(string(data))), nil
}

// ResolveCommit turns a user-supplied revision into a commit hash. It
// tries HEAD, branch names, then full or abbreviated object hashes.
func (r *Repository) ResolveCommit(rev string) (object.Hash, error) {
	if rev == "HEAD" {
		return r.ResolveRef("HEAD")
	}
	if h, err := r.ResolveRef(rev); err == nil {
		return h, nil
	} else if !errors.Is(err, ErrNoCommits) {
		return "", err
	}
	h, err := r.Store.Resolve(rev)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", rev, err)
	}
	return h, nil
}

// UpdateRef writes a hash to the named ref using lockfile + rename so a
// reader never sees a partial ref file.
func (r *Repository) UpdateRef(name string, h object.Hash) error {
	refPath := filepath.Join(r.KitDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			lockFile.Close()
		}
		if cleanupLock {
			os.Remove(lockPath)
		}
	}()

	if _, err := lockFile.WriteString(string(h) + "\n"); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Sync(); err != nil {
		return fmt.Errorf("update ref %q: sync: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	cleanupLock = false
	return nil
}

// advanceHead moves whatever HEAD points at to the given commit: the
// branch ref when symbolic, HEAD itself when detached.
func (r *Repository) advanceHead(h object.Hash) error {
	head, err := r.Head()
	if err != nil {
		return err
	}
	if strings.HasPrefix(head, "refs/") {
		return r.UpdateRef(head, h)
	}
	return r.SetHead(string(h))
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}

// ListRefs lists refs under refs/, names relative to the refs root,
// e.g. "heads/main".
func (r *Repository) ListRefs() (map[string]object.Hash, error) {
	root := filepath.Join(r.KitDir, "refs")

	refs := make(map[string]object.Hash)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(path, ".lock") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		refs[filepath.ToSlash(rel)] = object.Hash(strings.TrimSpace(string(data)))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	return refs, nil
}

// ListBranches returns branch names under refs/heads sorted
// alphabetically.
func (r *Repository) ListBranches() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.KitDir, "refs", "heads"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list branches: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".lock") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
