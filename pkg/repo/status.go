package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"kitcat/pkg/index"
	"kitcat/pkg/object"
)

// Status summarizes the three-way comparison between HEAD, the index,
// and the working tree.
type Status struct {
	Branch   string // "" when HEAD is detached
	Detached bool

	// Index vs HEAD.
	StagedAdded    []string
	StagedModified []string
	StagedDeleted  []string

	// Working tree vs index.
	Modified []string
	Deleted  []string

	Untracked []string
}

// HasUncommittedChanges reports whether any tracked file differs from
// HEAD or the index. Untracked files do not count.
func (s *Status) HasUncommittedChanges() bool {
	return len(s.StagedAdded)+len(s.StagedModified)+len(s.StagedDeleted)+
		len(s.Modified)+len(s.Deleted) > 0
}

// IsClean reports a fully clean tree, untracked files included.
func (s *Status) IsClean() bool {
	return !s.HasUncommittedChanges() && len(s.Untracked) == 0
}

// Status computes the current repository status.
func (r *Repository) Status() (*Status, error) {
	st := &Status{}

	branch, err := r.CurrentBranch()
	if err != nil {
		return nil, err
	}
	st.Branch = branch
	st.Detached = branch == ""

	entries, err := r.LoadIndex()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	headFiles := make(map[string]object.Hash)
	if head, err := r.ResolveRef("HEAD"); err == nil && head != "" {
		headFiles, err = r.CommitFiles(head)
		if err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
	} else if err != nil && !errors.Is(err, ErrNoCommits) {
		return nil, fmt.Errorf("status: %w", err)
	}

	// Index vs HEAD.
	staged := make(map[string]object.Hash, len(entries))
	for _, e := range entries {
		staged[e.Path] = e.Hash
		headHash, inHead := headFiles[e.Path]
		switch {
		case !inHead:
			st.StagedAdded = append(st.StagedAdded, e.Path)
		case headHash != e.Hash:
			st.StagedModified = append(st.StagedModified, e.Path)
		}
	}
	for path := range headFiles {
		if _, ok := staged[path]; !ok {
			st.StagedDeleted = append(st.StagedDeleted, path)
		}
	}

	// Working tree vs index.
	for _, e := range entries {
		changed, missing, err := r.workingFileChanged(e)
		if err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		if missing {
			st.Deleted = append(st.Deleted, e.Path)
		} else if changed {
			st.Modified = append(st.Modified, e.Path)
		}
	}

	untracked, err := r.untrackedFiles(staged)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	st.Untracked = untracked

	for _, s := range [][]string{
		st.StagedAdded, st.StagedModified, st.StagedDeleted,
		st.Modified, st.Deleted,
	} {
		sort.Strings(s)
	}
	return st, nil
}

// workingFileChanged compares a working-tree file against its index
// entry. Matching size and mtime skip the content hash, the usual case
// for a clean tree.
func (r *Repository) workingFileChanged(e index.Entry) (changed, missing bool, err error) {
	full := r.WorkPath(e.Path)
	info, err := os.Stat(full)
	if os.IsNotExist(err) {
		return false, true, nil
	}
	if err != nil {
		return false, false, err
	}

	if uint32(info.Size()) == e.Size && e.MtimeSec != 0 {
		probe := index.NewEntry(e.Path, e.Hash, info)
		if probe.MtimeSec == e.MtimeSec && probe.MtimeNsec == e.MtimeNsec {
			return false, false, nil
		}
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return false, false, err
	}
	return object.HashObject(object.TypeBlob, data) != e.Hash, false, nil
}

// untrackedFiles walks the working tree for files absent from the index.
func (r *Repository) untrackedFiles(tracked map[string]object.Hash) ([]string, error) {
	var untracked []string
	err := filepath.WalkDir(r.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == KitDirName {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(r.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if _, ok := tracked[rel]; !ok {
			untracked = append(untracked, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(untracked)
	return untracked, nil
}
