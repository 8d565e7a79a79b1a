package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kitcat/pkg/object"
)

// CreateBranch creates refs/heads/<name> pointing at target. Creating a
// branch that already exists fails with ErrBranchExists.
func (r *Repository) CreateBranch(name string, target object.Hash) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "/ \t") {
		return fmt.Errorf("create branch: invalid name %q", name)
	}
	refPath := filepath.Join(r.KitDir, "refs", "heads", name)
	if _, err := os.Stat(refPath); err == nil {
		return fmt.Errorf("create branch %q: %w", name, ErrBranchExists)
	}
	if err := r.UpdateRef("refs/heads/"+name, target); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return nil
}

// DeleteBranch removes refs/heads/<name>. The checked-out branch cannot
// be deleted.
func (r *Repository) DeleteBranch(name string) error {
	current, err := r.CurrentBranch()
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if current == name {
		return fmt.Errorf("delete branch: cannot delete current branch %q", name)
	}

	refPath := filepath.Join(r.KitDir, "refs", "heads", name)
	if err := os.Remove(refPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete branch: branch %q does not exist", name)
		}
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	return nil
}
