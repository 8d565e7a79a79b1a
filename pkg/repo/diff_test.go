package repo

import (
	"strings"
	"testing"

	"kitcat/pkg/diff"
)

func TestDiffWorktree(t *testing.T) {
	r := newTestRepo(t)
	commitFile(t, r, "a.txt", "1\n2\n3\n", "initial commit")

	diffs, err := r.DiffWorktree()
	if err != nil {
		t.Fatalf("DiffWorktree: %v", err)
	}
	if len(diffs) != 0 {
		t.Fatalf("clean tree produced diffs: %v", diffs)
	}

	writeWorkFile(t, r, "a.txt", "1\n2x\n3\n")
	diffs, err = r.DiffWorktree()
	if err != nil {
		t.Fatalf("DiffWorktree: %v", err)
	}
	if len(diffs) != 1 {
		t.Fatalf("len(diffs) = %d, want 1", len(diffs))
	}
	d := diffs[0]
	if d.OldPath != "a/a.txt" || d.NewPath != "b/a.txt" {
		t.Errorf("paths = %q, %q", d.OldPath, d.NewPath)
	}
	out := diff.Unified(&d, diff.Options{})
	if !strings.Contains(out, "+2x") || !strings.Contains(out, "-2") {
		t.Errorf("Unified output missing changed lines:\n%s", out)
	}
}

func TestDiffCached(t *testing.T) {
	r := newTestRepo(t)

	// With no commits yet every staged file shows as an addition.
	writeWorkFile(t, r, "a.txt", "new\n")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	diffs, err := r.DiffCached()
	if err != nil {
		t.Fatalf("DiffCached: %v", err)
	}
	if len(diffs) != 1 || diffs[0].Additions() != 1 || diffs[0].Deletions() != 0 {
		t.Fatalf("diffs = %+v, want one pure addition", diffs)
	}

	if _, err := r.Commit("initial commit"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// Unstaged worktree edits do not show up in the cached diff.
	writeWorkFile(t, r, "a.txt", "edited\n")
	diffs, err = r.DiffCached()
	if err != nil {
		t.Fatalf("DiffCached: %v", err)
	}
	if len(diffs) != 0 {
		t.Fatalf("unstaged edit leaked into cached diff: %v", diffs)
	}

	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	diffs, err = r.DiffCached()
	if err != nil {
		t.Fatalf("DiffCached: %v", err)
	}
	if len(diffs) != 1 {
		t.Fatalf("len(diffs) = %d, want 1", len(diffs))
	}
}

func TestDiffCommits(t *testing.T) {
	r := newTestRepo(t)
	first := commitFile(t, r, "a.txt", "1\n2\n3\n", "first")
	second := commitFile(t, r, "b.txt", "added\n", "second")

	diffs, err := r.DiffCommits(first, second)
	if err != nil {
		t.Fatalf("DiffCommits: %v", err)
	}
	if len(diffs) != 1 {
		t.Fatalf("len(diffs) = %d, want 1", len(diffs))
	}
	if diffs[0].NewPath != "b/b.txt" {
		t.Errorf("NewPath = %q", diffs[0].NewPath)
	}

	// Reversed order shows the same file as a deletion.
	diffs, err = r.DiffCommits(second, first)
	if err != nil {
		t.Fatalf("DiffCommits: %v", err)
	}
	if len(diffs) != 1 || diffs[0].Deletions() != 1 {
		t.Fatalf("diffs = %+v, want one pure deletion", diffs)
	}
}
