package repo

import (
	"errors"
	"fmt"
	"time"

	"kitcat/pkg/object"
)

// Commit snapshots the staging area: build the tree, create a commit
// object whose parent is the current HEAD commit (none for the first
// commit), and advance the current branch ref.
func (r *Repository) Commit(message string) (object.Hash, error) {
	entries, err := r.LoadIndex()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("commit: nothing staged")
	}

	treeHash, err := r.BuildTree(entries)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	var parents []object.Hash
	parentHash, err := r.ResolveRef("HEAD")
	if err == nil && parentHash != "" {
		parents = append(parents, parentHash)
	} else if err != nil && !errors.Is(err, ErrNoCommits) {
		return "", fmt.Errorf("commit: %w", err)
	}

	return r.writeCommit(message, treeHash, parents)
}

// writeCommit creates the commit object with author identity and the
// current timestamp, then moves HEAD's target forward.
func (r *Repository) writeCommit(message string, treeHash object.Hash, parents []object.Hash) (object.Hash, error) {
	author, err := r.AuthorIdent()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	now := time.Now()
	commitObj := &object.CommitObj{
		TreeHash:   treeHash,
		Parents:    parents,
		Author:     author,
		AuthorTime: now.Unix(),
		AuthorTZ:   now.Format("-0700"),
		Message:    message,
	}

	commitHash, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return "", fmt.Errorf("commit: write commit: %w", err)
	}
	if err := r.advanceHead(commitHash); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return commitHash, nil
}

// LogEntry pairs a commit with its hash for history rendering.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.CommitObj
}

// Log walks history from start following first-parent links, newest
// first. limit <= 0 means unlimited.
func (r *Repository) Log(start object.Hash, limit int) ([]LogEntry, error) {
	var entries []LogEntry
	current := start

	for current != "" && (limit <= 0 || len(entries) < limit) {
		c, err := r.Store.ReadCommit(current)
		if err != nil {
			if errors.Is(err, object.ErrNotFound) {
				break
			}
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		entries = append(entries, LogEntry{Hash: current, Commit: c})

		if len(c.Parents) == 0 {
			break
		}
		current = c.Parents[0]
	}
	return entries, nil
}
