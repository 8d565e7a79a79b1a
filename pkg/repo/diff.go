package repo

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"kitcat/pkg/diff"
	"kitcat/pkg/object"
)

// DiffWorktree diffs the index against the working tree: what would be
// staged by adding every tracked file.
func (r *Repository) DiffWorktree() ([]diff.FileDiff, error) {
	entries, err := r.LoadIndex()
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	var diffs []diff.FileDiff
	for _, e := range entries {
		oldData, err := r.blobData(e.Hash)
		if err != nil {
			return nil, fmt.Errorf("diff %s: %w", e.Path, err)
		}
		newData, err := os.ReadFile(r.WorkPath(e.Path))
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("diff %s: %w", e.Path, err)
		}

		d := diff.Texts("a/"+e.Path, "b/"+e.Path, oldData, newData)
		if d.HasChanges() {
			diffs = append(diffs, d)
		}
	}
	return diffs, nil
}

// DiffCached diffs HEAD against the index: what the next commit would
// contain. With no commits yet every staged file shows as added.
func (r *Repository) DiffCached() ([]diff.FileDiff, error) {
	entries, err := r.LoadIndex()
	if err != nil {
		return nil, fmt.Errorf("diff --cached: %w", err)
	}

	headFiles := make(map[string]object.Hash)
	if head, err := r.ResolveRef("HEAD"); err == nil && head != "" {
		headFiles, err = r.CommitFiles(head)
		if err != nil {
			return nil, fmt.Errorf("diff --cached: %w", err)
		}
	} else if err != nil && !errors.Is(err, ErrNoCommits) {
		return nil, fmt.Errorf("diff --cached: %w", err)
	}

	indexFiles := make(map[string]object.Hash, len(entries))
	for _, e := range entries {
		indexFiles[e.Path] = e.Hash
	}
	return r.diffFileMaps(headFiles, indexFiles)
}

// DiffCommits diffs the trees of two commits.
func (r *Repository) DiffCommits(a, b object.Hash) ([]diff.FileDiff, error) {
	oldFiles, err := r.CommitFiles(a)
	if err != nil {
		return nil, fmt.Errorf("diff %s: %w", a, err)
	}
	newFiles, err := r.CommitFiles(b)
	if err != nil {
		return nil, fmt.Errorf("diff %s: %w", b, err)
	}
	return r.diffFileMaps(oldFiles, newFiles)
}

// diffFileMaps diffs two {path -> blob hash} maps over the union of
// their paths, sorted for stable output.
func (r *Repository) diffFileMaps(oldFiles, newFiles map[string]object.Hash) ([]diff.FileDiff, error) {
	seen := make(map[string]struct{}, len(oldFiles)+len(newFiles))
	var paths []string
	for p := range oldFiles {
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	for p := range newFiles {
		if _, ok := seen[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var diffs []diff.FileDiff
	for _, path := range paths {
		oldHash, hasOld := oldFiles[path]
		newHash, hasNew := newFiles[path]
		if hasOld && hasNew && oldHash == newHash {
			continue
		}

		var oldData, newData []byte
		var err error
		if hasOld {
			if oldData, err = r.blobData(oldHash); err != nil {
				return nil, fmt.Errorf("diff %s: %w", path, err)
			}
		}
		if hasNew {
			if newData, err = r.blobData(newHash); err != nil {
				return nil, fmt.Errorf("diff %s: %w", path, err)
			}
		}

		d := diff.Texts("a/"+path, "b/"+path, oldData, newData)
		if d.HasChanges() {
			diffs = append(diffs, d)
		}
	}
	return diffs, nil
}

func (r *Repository) blobData(h object.Hash) ([]byte, error) {
	blob, err := r.Store.ReadBlob(h)
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}
