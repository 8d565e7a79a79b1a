package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"kitcat/pkg/index"
	"kitcat/pkg/object"
)

// ErrUncommittedChanges blocks a checkout that would clobber local work.
var ErrUncommittedChanges = errors.New("uncommitted changes present")

// Checkout switches the working tree to a branch or commit. Branch names
// leave HEAD symbolic; anything else detaches it. Without force the
// switch refuses to run while tracked files carry uncommitted changes.
// The working tree and index are rewritten to match the target commit;
// tracked files absent from the target are removed.
func (r *Repository) Checkout(target string, force bool) error {
	var commitHash object.Hash
	var newHead string

	branchHash, branchErr := r.ResolveRef("refs/heads/" + target)
	if branchErr == nil {
		commitHash = branchHash
		newHead = "refs/heads/" + target
	} else {
		h, err := r.ResolveCommit(target)
		if err != nil {
			return fmt.Errorf("checkout %q: %w", target, err)
		}
		commitHash = h
		newHead = string(h)
	}

	if !force {
		st, err := r.Status()
		if err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
		if st.HasUncommittedChanges() {
			return fmt.Errorf("checkout %q: %w", target, ErrUncommittedChanges)
		}
	}

	targetFiles, err := r.CommitFiles(commitHash)
	if err != nil {
		return fmt.Errorf("checkout %q: %w", target, err)
	}

	// Remove tracked files that do not exist in the target.
	current, err := r.LoadIndex()
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	for _, e := range current {
		if _, keep := targetFiles[e.Path]; !keep {
			os.Remove(r.WorkPath(e.Path))
		}
	}

	newEntries, err := r.materializeFiles(targetFiles)
	if err != nil {
		return fmt.Errorf("checkout %q: %w", target, err)
	}
	if err := index.Save(r.IndexPath(), newEntries); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if err := r.SetHead(newHead); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	return nil
}

// materializeFiles writes blob contents into the working tree and
// returns fresh index entries for them.
func (r *Repository) materializeFiles(files map[string]object.Hash) ([]index.Entry, error) {
	entries := make([]index.Entry, 0, len(files))
	for rel, blobHash := range files {
		blob, err := r.Store.ReadBlob(blobHash)
		if err != nil {
			return nil, fmt.Errorf("materialize %q: %w", rel, err)
		}

		full := r.WorkPath(rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return nil, fmt.Errorf("materialize %q: %w", rel, err)
		}
		if err := os.WriteFile(full, blob.Data, 0o644); err != nil {
			return nil, fmt.Errorf("materialize %q: %w", rel, err)
		}

		info, err := os.Stat(full)
		if err != nil {
			return nil, fmt.Errorf("materialize %q: %w", rel, err)
		}
		entries = append(entries, index.NewEntry(rel, blobHash, info))
	}
	return index.Normalize(entries), nil
}

// RestoreFile rewrites one working-tree file from the HEAD commit,
// discarding local modifications.
func (r *Repository) RestoreFile(rel string) error {
	head, err := r.ResolveRef("HEAD")
	if err != nil {
		return fmt.Errorf("restore %q: %w", rel, err)
	}
	files, err := r.CommitFiles(head)
	if err != nil {
		return fmt.Errorf("restore %q: %w", rel, err)
	}
	blobHash, ok := files[rel]
	if !ok {
		return fmt.Errorf("restore %q: not in HEAD: %w", rel, object.ErrNotFound)
	}

	blob, err := r.Store.ReadBlob(blobHash)
	if err != nil {
		return fmt.Errorf("restore %q: %w", rel, err)
	}
	full := r.WorkPath(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("restore %q: %w", rel, err)
	}
	if err := os.WriteFile(full, blob.Data, 0o644); err != nil {
		return fmt.Errorf("restore %q: %w", rel, err)
	}
	return nil
}
