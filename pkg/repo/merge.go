package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kitcat/pkg/index"
	"kitcat/pkg/merge"
	"kitcat/pkg/object"
)

// MergeOptions controls merge behavior.
type MergeOptions struct {
	NoFF    bool   // force a merge commit even when fast-forward is possible
	FFOnly  bool   // refuse to create a merge commit
	Message string // merge commit message; empty generates a default
}

// MergeOutcome reports what a merge did.
type MergeOutcome struct {
	AlreadyUpToDate bool
	FastForward     bool
	CommitHash      object.Hash
	Conflicts       []string
}

// mergeStateDir holds the pending-merge bookkeeping between a conflicted
// merge and its continue/abort.
func (r *Repository) mergeStateDir() string {
	return filepath.Join(r.KitDir, "merge")
}

func (r *Repository) mergeHeadPath() string {
	return filepath.Join(r.KitDir, "MERGE_HEAD")
}

// MergeInProgress reports whether a conflicted merge is pending.
func (r *Repository) MergeInProgress() bool {
	_, err := os.Stat(r.mergeHeadPath())
	return err == nil
}

// Merge merges target (branch name or commit) into the current HEAD.
//
// Outcomes in order of checking: already up to date, fast-forward
// (skipped with NoFF, mandatory with FFOnly), refusal for unrelated
// histories, then a three-way tree merge. A clean merge stages the
// results and creates a two-parent commit; a conflicted merge writes
// marker files to the working tree, persists pending state, and reports
// the conflicted paths for a later ContinueMerge.
func (r *Repository) Merge(target string, opts MergeOptions) (*MergeOutcome, error) {
	if r.MergeInProgress() {
		return nil, fmt.Errorf("merge: a merge is already in progress (resolve it or abort)")
	}

	ourHash, err := r.ResolveRef("HEAD")
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	ourLabel, err := r.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if ourLabel == "" {
		ourLabel = "HEAD"
	}

	theirHash, err := r.ResolveCommit(target)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	if ourHash == theirHash {
		return &MergeOutcome{AlreadyUpToDate: true, CommitHash: ourHash}, nil
	}

	canFF, err := r.CanFastForward(ourHash, theirHash)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if canFF && !opts.NoFF {
		if err := r.fastForward(theirHash); err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		return &MergeOutcome{FastForward: true, CommitHash: theirHash}, nil
	}
	if opts.FFOnly {
		return nil, fmt.Errorf("merge %q: cannot fast-forward, a merge commit would be required", target)
	}

	// Their branch may already contain ours: nothing to merge.
	if behind, err := r.IsAncestor(theirHash, ourHash); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	} else if behind {
		return &MergeOutcome{AlreadyUpToDate: true, CommitHash: ourHash}, nil
	}

	baseHash, err := r.FindMergeBase(ourHash, theirHash)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if baseHash == "" {
		return nil, fmt.Errorf("merge %q: refusing to merge unrelated histories", target)
	}

	baseFiles, err := r.CommitFiles(baseHash)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	ourFiles, err := r.CommitFiles(ourHash)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	theirFiles, err := r.CommitFiles(theirHash)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	result, err := merge.Trees(baseFiles, ourFiles, theirFiles, r.Store)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	if result.HasConflicts() {
		if err := r.saveMergeState(ourHash, theirHash, ourLabel, target); err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}

		outcome := &MergeOutcome{}
		for _, c := range result.Conflicts {
			content := c.Markers(ourLabel, target)
			if err := r.writeWorkFile(c.Path, content); err != nil {
				return nil, fmt.Errorf("merge: %w", err)
			}
			outcome.Conflicts = append(outcome.Conflicts, c.Path)
		}
		for path, content := range result.MergedFiles {
			if err := r.writeWorkFile(path, content); err != nil {
				return nil, fmt.Errorf("merge: %w", err)
			}
		}
		return outcome, nil
	}

	// Clean merge: materialize and stage results, then commit with both
	// parents.
	if err := r.stageMergedFiles(result.MergedFiles); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	message := opts.Message
	if message == "" {
		message = fmt.Sprintf("Merge %s into %s", target, ourLabel)
	}
	commitHash, err := r.commitMerge(message, ourHash, theirHash)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	return &MergeOutcome{CommitHash: commitHash}, nil
}

// ContinueMerge finishes a conflicted merge after the user resolved and
// staged the files. It refuses while any tracked working file still
// contains conflict markers.
func (r *Repository) ContinueMerge(message string) (object.Hash, error) {
	if !r.MergeInProgress() {
		return "", fmt.Errorf("merge --continue: %w", ErrNoMergeProgress)
	}

	entries, err := r.LoadIndex()
	if err != nil {
		return "", fmt.Errorf("merge --continue: %w", err)
	}
	for _, e := range entries {
		data, err := os.ReadFile(r.WorkPath(e.Path))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("merge --continue: %w", err)
		}
		if merge.HasConflictMarkers(string(data)) {
			return "", fmt.Errorf("merge --continue: unresolved conflict in %s", e.Path)
		}
	}

	state, err := r.loadMergeState()
	if err != nil {
		return "", fmt.Errorf("merge --continue: %w", err)
	}

	if message == "" {
		message = fmt.Sprintf("Merge %s into %s", state.theirLabel, state.ourLabel)
	}
	commitHash, err := r.commitMerge(message, state.ourCommit, state.theirCommit)
	if err != nil {
		return "", fmt.Errorf("merge --continue: %w", err)
	}
	if err := r.clearMergeState(); err != nil {
		return "", fmt.Errorf("merge --continue: %w", err)
	}
	return commitHash, nil
}

// AbortMerge discards a conflicted merge and restores the working tree
// to the pre-merge commit.
func (r *Repository) AbortMerge() error {
	if !r.MergeInProgress() {
		return fmt.Errorf("merge --abort: %w", ErrNoMergeProgress)
	}

	state, err := r.loadMergeState()
	if err != nil {
		return fmt.Errorf("merge --abort: %w", err)
	}

	files, err := r.CommitFiles(state.ourCommit)
	if err != nil {
		return fmt.Errorf("merge --abort: %w", err)
	}
	entries, err := r.materializeFiles(files)
	if err != nil {
		return fmt.Errorf("merge --abort: %w", err)
	}
	if err := index.Save(r.IndexPath(), entries); err != nil {
		return fmt.Errorf("merge --abort: %w", err)
	}
	if err := r.clearMergeState(); err != nil {
		return fmt.Errorf("merge --abort: %w", err)
	}
	return nil
}

// fastForward advances HEAD's target to the commit and syncs the working
// tree and index to it.
func (r *Repository) fastForward(target object.Hash) error {
	files, err := r.CommitFiles(target)
	if err != nil {
		return err
	}

	// Drop tracked files the target no longer has.
	current, err := r.LoadIndex()
	if err != nil {
		return err
	}
	for _, e := range current {
		if _, keep := files[e.Path]; !keep {
			os.Remove(r.WorkPath(e.Path))
		}
	}

	entries, err := r.materializeFiles(files)
	if err != nil {
		return err
	}
	if err := index.Save(r.IndexPath(), entries); err != nil {
		return err
	}
	return r.advanceHead(target)
}

// stageMergedFiles writes merged contents to the working tree and
// replaces their index entries under the index lock.
func (r *Repository) stageMergedFiles(files map[string][]byte) error {
	if len(files) == 0 {
		return nil
	}
	for path, content := range files {
		if err := r.writeWorkFile(path, content); err != nil {
			return err
		}
	}
	return index.Update(r.IndexPath(), func(entries []index.Entry) ([]index.Entry, error) {
		for path := range files {
			entry, err := r.stageFile(path)
			if err != nil {
				return nil, err
			}
			entries = index.Upsert(entries, entry)
		}
		return entries, nil
	})
}

// commitMerge builds the tree from the index and writes a two-parent
// commit, advancing HEAD's target.
func (r *Repository) commitMerge(message string, ours, theirs object.Hash) (object.Hash, error) {
	entries, err := r.LoadIndex()
	if err != nil {
		return "", err
	}
	treeHash, err := r.BuildTree(entries)
	if err != nil {
		return "", err
	}
	return r.writeCommit(message, treeHash, []object.Hash{ours, theirs})
}

func (r *Repository) writeWorkFile(rel string, content []byte) error {
	full := r.WorkPath(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, content, 0o644)
}

type mergeState struct {
	ourCommit   object.Hash
	theirCommit object.Hash
	ourLabel    string
	theirLabel  string
}

func (r *Repository) saveMergeState(ours, theirs object.Hash, ourLabel, theirLabel string) error {
	if err := os.MkdirAll(r.mergeStateDir(), 0o755); err != nil {
		return err
	}
	writes := []struct {
		path    string
		content string
	}{
		{r.mergeHeadPath(), string(theirs)},
		{filepath.Join(r.mergeStateDir(), "our_commit"), string(ours)},
		{filepath.Join(r.mergeStateDir(), "their_commit"), string(theirs)},
		{filepath.Join(r.mergeStateDir(), "our_branch"), ourLabel},
		{filepath.Join(r.mergeStateDir(), "their_branch"), theirLabel},
	}
	for _, w := range writes {
		if err := os.WriteFile(w.path, []byte(w.content+"\n"), 0o644); err != nil {
			return fmt.Errorf("save merge state: %w", err)
		}
	}
	return nil
}

func (r *Repository) loadMergeState() (*mergeState, error) {
	read := func(name string) (string, error) {
		data, err := os.ReadFile(filepath.Join(r.mergeStateDir(), name))
		if err != nil {
			return "", fmt.Errorf("load merge state: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	ourCommit, err := read("our_commit")
	if err != nil {
		return nil, err
	}
	theirCommit, err := read("their_commit")
	if err != nil {
		return nil, err
	}
	ourLabel, err := read("our_branch")
	if err != nil {
		return nil, err
	}
	theirLabel, err := read("their_branch")
	if err != nil {
		return nil, err
	}
	return &mergeState{
		ourCommit:   object.Hash(ourCommit),
		theirCommit: object.Hash(theirCommit),
		ourLabel:    ourLabel,
		theirLabel:  theirLabel,
	}, nil
}

func (r *Repository) clearMergeState() error {
	if err := os.Remove(r.mergeHeadPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.RemoveAll(r.mergeStateDir()); err != nil {
		return err
	}
	return nil
}
