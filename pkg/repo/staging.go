package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"kitcat/pkg/index"
	"kitcat/pkg/object"
)

// Add stages files: each path's content is written to the object store
// as a blob, then the index entry for the path is replaced under the
// index lock. Directory arguments stage every file beneath them; the
// metadata directory is always skipped.
func (r *Repository) Add(paths []string) error {
	var files []string
	for _, p := range paths {
		expanded, err := r.expandPath(p)
		if err != nil {
			return fmt.Errorf("add %q: %w", p, err)
		}
		files = append(files, expanded...)
	}
	if len(files) == 0 {
		return fmt.Errorf("add: no files matched")
	}

	return index.Update(r.IndexPath(), func(entries []index.Entry) ([]index.Entry, error) {
		for _, rel := range files {
			entry, err := r.stageFile(rel)
			if err != nil {
				return nil, err
			}
			entries = index.Upsert(entries, entry)
		}
		return entries, nil
	})
}

// stageFile hashes one working-tree file into the store and builds its
// index entry.
func (r *Repository) stageFile(rel string) (index.Entry, error) {
	full := r.WorkPath(rel)
	data, err := os.ReadFile(full)
	if err != nil {
		return index.Entry{}, fmt.Errorf("stage %q: %w", rel, err)
	}
	info, err := os.Stat(full)
	if err != nil {
		return index.Entry{}, fmt.Errorf("stage %q: %w", rel, err)
	}

	h, err := r.Store.WriteBlob(&object.Blob{Data: data})
	if err != nil {
		return index.Entry{}, fmt.Errorf("stage %q: %w", rel, err)
	}
	return index.NewEntry(rel, h, info), nil
}

// Unstage drops a path from the index without touching the working tree.
func (r *Repository) Unstage(rel string) error {
	return index.Update(r.IndexPath(), func(entries []index.Entry) ([]index.Entry, error) {
		out, found := index.Remove(entries, rel)
		if !found {
			return nil, fmt.Errorf("unstage %q: not in index", rel)
		}
		return out, nil
	})
}

// LoadIndex reads the current staging entries. A fresh repository has an
// empty index.
func (r *Repository) LoadIndex() ([]index.Entry, error) {
	return index.Load(r.IndexPath())
}

// expandPath normalizes one add argument into repository-relative file
// paths, walking directories.
func (r *Repository) expandPath(arg string) ([]string, error) {
	rel, err := r.relPath(arg)
	if err != nil {
		return nil, err
	}

	full := r.WorkPath(rel)
	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{rel}, nil
	}

	var files []string
	err = filepath.WalkDir(full, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == KitDirName {
				return filepath.SkipDir
			}
			return nil
		}
		sub, err := filepath.Rel(r.Root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(sub))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// relPath turns an add argument into a forward-slash path relative to
// the working tree root. Absolute paths must fall inside the root;
// relative paths are taken as root-relative.
func (r *Repository) relPath(arg string) (string, error) {
	p := arg
	if filepath.IsAbs(arg) {
		rel, err := filepath.Rel(r.Root, arg)
		if err != nil {
			return "", err
		}
		p = rel
	}
	p = filepath.ToSlash(filepath.Clean(p))
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("path %q is outside the repository", arg)
	}
	if p == "." {
		p = ""
	}
	return p, nil
}
