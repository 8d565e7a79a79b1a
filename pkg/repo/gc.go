package repo

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"kitcat/pkg/object"
)

// GCSummary reports what a prune pass did (or would do in dry-run).
type GCSummary struct {
	Reachable int
	Pruned    []object.Hash
}

// GC removes loose objects unreachable from any ref, HEAD, or a pending
// merge head. With dryRun the summary lists what would be pruned without
// deleting anything.
func (r *Repository) GC(dryRun bool) (*GCSummary, error) {
	roots, err := r.gcRoots()
	if err != nil {
		return nil, fmt.Errorf("gc: %w", err)
	}

	reachable := make(map[object.Hash]struct{})
	for _, root := range roots {
		if err := r.markReachable(root, reachable); err != nil {
			return nil, fmt.Errorf("gc: %w", err)
		}
	}

	all, err := r.Store.List()
	if err != nil {
		return nil, fmt.Errorf("gc: %w", err)
	}

	summary := &GCSummary{Reachable: len(reachable)}
	for _, h := range all {
		if _, ok := reachable[h]; ok {
			continue
		}
		if !dryRun {
			if err := r.Store.Remove(h); err != nil {
				return nil, fmt.Errorf("gc: prune %s: %w", h, err)
			}
		}
		summary.Pruned = append(summary.Pruned, h)
	}
	sort.Slice(summary.Pruned, func(i, j int) bool { return summary.Pruned[i] < summary.Pruned[j] })
	return summary, nil
}

// gcRoots collects the hashes reachability starts from.
func (r *Repository) gcRoots() ([]object.Hash, error) {
	rootSet := make(map[object.Hash]struct{})

	refs, err := r.ListRefs()
	if err != nil {
		return nil, err
	}
	for _, h := range refs {
		if h != "" {
			rootSet[h] = struct{}{}
		}
	}

	if head, err := r.ResolveRef("HEAD"); err == nil && head != "" {
		rootSet[head] = struct{}{}
	} else if err != nil && !errors.Is(err, ErrNoCommits) {
		return nil, err
	}

	if data, err := os.ReadFile(r.mergeHeadPath()); err == nil {
		if h := object.Hash(strings.TrimSpace(string(data))); h != "" {
			rootSet[h] = struct{}{}
		}
	}

	roots := make([]object.Hash, 0, len(rootSet))
	for h := range rootSet {
		roots = append(roots, h)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots, nil
}

// markReachable walks from a commit through its tree, subtrees, blobs,
// and parents, adding every hash to the set.
func (r *Repository) markReachable(h object.Hash, reachable map[object.Hash]struct{}) error {
	if _, seen := reachable[h]; seen {
		return nil
	}

	objType, payload, err := r.Store.Get(h)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return nil
		}
		return err
	}
	reachable[h] = struct{}{}

	switch objType {
	case object.TypeCommit:
		c, err := object.UnmarshalCommit(payload)
		if err != nil {
			return fmt.Errorf("walk commit %s: %w", h, err)
		}
		if err := r.markReachable(c.TreeHash, reachable); err != nil {
			return err
		}
		for _, parent := range c.Parents {
			if err := r.markReachable(parent, reachable); err != nil {
				return err
			}
		}

	case object.TypeTree:
		tree, err := object.UnmarshalTree(payload)
		if err != nil {
			return fmt.Errorf("walk tree %s: %w", h, err)
		}
		for _, entry := range tree.Entries {
			if err := r.markReachable(entry.Hash, reachable); err != nil {
				return err
			}
		}
	}
	return nil
}
