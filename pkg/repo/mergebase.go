package repo

import (
	"fmt"
	"sort"

	"kitcat/pkg/object"
)

// FindMergeBase returns the common ancestor of two commits best
// approximating the lowest common ancestor: full ancestor sets of both
// sides are intersected, and the candidate minimizing the summed BFS
// distance from both commits wins. Candidates are visited in sorted hash
// order so equal-distance graphs resolve deterministically. This is not
// a canonical multi-base algorithm for criss-cross histories; the
// approximation is intentional. Returns "" when the histories share no
// commit.
func (r *Repository) FindMergeBase(ours, theirs object.Hash) (object.Hash, error) {
	if ours == theirs {
		return ours, nil
	}

	ourAncestors, err := r.ancestors(ours)
	if err != nil {
		return "", fmt.Errorf("merge base: %w", err)
	}
	theirAncestors, err := r.ancestors(theirs)
	if err != nil {
		return "", fmt.Errorf("merge base: %w", err)
	}

	var common []object.Hash
	for h := range ourAncestors {
		if _, ok := theirAncestors[h]; ok {
			common = append(common, h)
		}
	}
	if len(common) == 0 {
		return "", nil
	}
	sort.Slice(common, func(i, j int) bool { return common[i] < common[j] })

	var best object.Hash
	bestDistance := -1
	for _, candidate := range common {
		d1, err := r.distance(ours, candidate)
		if err != nil {
			return "", fmt.Errorf("merge base: %w", err)
		}
		d2, err := r.distance(theirs, candidate)
		if err != nil {
			return "", fmt.Errorf("merge base: %w", err)
		}
		if total := d1 + d2; bestDistance < 0 || total < bestDistance {
			bestDistance = total
			best = candidate
		}
	}
	return best, nil
}

// IsAncestor reports whether ancestor is reachable from start through
// parent links.
func (r *Repository) IsAncestor(ancestor, start object.Hash) (bool, error) {
	set, err := r.ancestors(start)
	if err != nil {
		return false, err
	}
	_, ok := set[ancestor]
	return ok, nil
}

// CanFastForward reports whether merging theirs into ours needs no merge
// commit: true iff ours is already an ancestor of theirs.
func (r *Repository) CanFastForward(ours, theirs object.Hash) (bool, error) {
	return r.IsAncestor(ours, theirs)
}

// ancestors walks the commit graph from start, returning every reachable
// commit including start itself. The visited set makes the walk safe on
// cyclic graphs.
func (r *Repository) ancestors(start object.Hash) (map[object.Hash]struct{}, error) {
	visited := make(map[object.Hash]struct{})
	queue := []object.Hash{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}

		parents, err := r.commitParents(current)
		if err != nil {
			return nil, err
		}
		queue = append(queue, parents...)
	}
	return visited, nil
}

// distance is the BFS hop count from start back to target, or -1 when
// target is unreachable.
func (r *Repository) distance(start, target object.Hash) (int, error) {
	if start == target {
		return 0, nil
	}

	type item struct {
		hash object.Hash
		dist int
	}
	seen := map[object.Hash]struct{}{start: {}}
	queue := []item{{start, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.hash == target {
			return cur.dist, nil
		}

		parents, err := r.commitParents(cur.hash)
		if err != nil {
			return 0, err
		}
		for _, p := range parents {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			queue = append(queue, item{p, cur.dist + 1})
		}
	}
	return -1, nil
}

func (r *Repository) commitParents(h object.Hash) ([]object.Hash, error) {
	c, err := r.Store.ReadCommit(h)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", h, err)
	}
	return c.Parents, nil
}
