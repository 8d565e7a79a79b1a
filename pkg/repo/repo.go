// Package repo ties the storage, staging, diff, and merge engines
// together behind a Repository handle rooted at a working tree.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"kitcat/pkg/object"
)

// KitDirName is the metadata directory created in the working-tree root.
const KitDirName = ".kitcat"

var (
	ErrNotRepository   = errors.New("not a kitcat repository")
	ErrNoCommits       = errors.New("no commits yet")
	ErrBranchExists    = errors.New("branch already exists")
	ErrNoMergeProgress = errors.New("no merge in progress")
)

// Repository is an opened working tree. All state paths derive from
// KitDir; nothing else hard-codes repository-relative locations.
type Repository struct {
	Root   string        // working tree root
	KitDir string        // metadata directory under Root
	Store  *object.Store // content-addressed object store
}

// Init creates a fresh repository at path: the metadata directory with
// objects/, refs/heads/, and a HEAD pointing at an unborn main branch.
func Init(path string) (*Repository, error) {
	kitDir := filepath.Join(path, KitDirName)
	if _, err := os.Stat(kitDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", kitDir)
	}

	dirs := []string{
		filepath.Join(kitDir, "objects"),
		filepath.Join(kitDir, "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	headPath := filepath.Join(kitDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	return &Repository{
		Root:   path,
		KitDir: kitDir,
		Store:  object.NewStore(kitDir),
	}, nil
}

// Open searches upward from path for a repository metadata directory.
func Open(path string) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		kitDir := filepath.Join(cur, KitDirName)
		info, err := os.Stat(kitDir)
		if err == nil && info.IsDir() {
			return &Repository{
				Root:   cur,
				KitDir: kitDir,
				Store:  object.NewStore(kitDir),
			}, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open %s: %w", path, ErrNotRepository)
		}
		cur = parent
	}
}

// IndexPath is the staging area file inside the metadata directory.
func (r *Repository) IndexPath() string {
	return filepath.Join(r.KitDir, "index")
}

// WorkPath resolves a repository-relative forward-slash path to a
// filesystem path under the working tree root.
func (r *Repository) WorkPath(rel string) string {
	return filepath.Join(r.Root, filepath.FromSlash(rel))
}
