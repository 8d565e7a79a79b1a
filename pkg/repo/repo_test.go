package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kitcat/pkg/object"
)

// newTestRepo initializes a repository in a temp dir with a configured
// author identity.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	cfg := &Config{User: UserConfig{Name: "Test User", Email: "test@example.com"}}
	if err := r.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	return r
}

func writeWorkFile(t *testing.T, r *Repository, rel, content string) {
	t.Helper()
	full := r.WorkPath(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

// commitFile writes, stages, and commits a single file, returning the
// commit hash.
func commitFile(t *testing.T, r *Repository, rel, content, message string) object.Hash {
	t.Helper()
	writeWorkFile(t, r, rel, content)
	if err := r.Add([]string{rel}); err != nil {
		t.Fatalf("Add %s: %v", rel, err)
	}
	h, err := r.Commit(message)
	if err != nil {
		t.Fatalf("Commit %q: %v", message, err)
	}
	return h
}

func TestInit_CreatesLayout(t *testing.T) {
	r := newTestRepo(t)

	for _, rel := range []string{"objects", filepath.Join("refs", "heads")} {
		info, err := os.Stat(filepath.Join(r.KitDir, rel))
		if err != nil || !info.IsDir() {
			t.Errorf("missing dir %s: %v", rel, err)
		}
	}

	head, err := r.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head != "refs/heads/main" {
		t.Errorf("HEAD = %q, want refs/heads/main", head)
	}
}

func TestInit_RefusesExisting(t *testing.T) {
	r := newTestRepo(t)
	if _, err := Init(r.Root); err == nil {
		t.Fatal("second Init succeeded")
	}
}

func TestOpen_SearchesUpward(t *testing.T) {
	r := newTestRepo(t)
	sub := filepath.Join(r.Root, "deeply", "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	opened, err := Open(sub)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opened.Root != r.Root {
		t.Errorf("Open root = %q, want %q", opened.Root, r.Root)
	}
}

func TestOpen_NotARepository(t *testing.T) {
	if _, err := Open(t.TempDir()); !errors.Is(err, ErrNotRepository) {
		t.Errorf("Open = %v, want ErrNotRepository", err)
	}
}

func TestResolveRef_UnbornBranch(t *testing.T) {
	r := newTestRepo(t)
	if _, err := r.ResolveRef("HEAD"); !errors.Is(err, ErrNoCommits) {
		t.Errorf("ResolveRef(HEAD) = %v, want ErrNoCommits", err)
	}
}

func TestResolveCommit_ShortHash(t *testing.T) {
	r := newTestRepo(t)
	h := commitFile(t, r, "a.txt", "content\n", "initial commit")

	got, err := r.ResolveCommit(string(h[:8]))
	if err != nil {
		t.Fatalf("ResolveCommit(short): %v", err)
	}
	if got != h {
		t.Errorf("resolved %s, want %s", got, h)
	}
}

func TestConfig_RoundTripAndDefaults(t *testing.T) {
	r := newTestRepo(t)

	ident, err := r.AuthorIdent()
	if err != nil {
		t.Fatalf("AuthorIdent: %v", err)
	}
	if ident != "Test User <test@example.com>" {
		t.Errorf("ident = %q", ident)
	}

	// Unset config falls back to placeholders.
	if err := os.Remove(filepath.Join(r.KitDir, "config")); err != nil {
		t.Fatal(err)
	}
	ident, err = r.AuthorIdent()
	if err != nil {
		t.Fatalf("AuthorIdent: %v", err)
	}
	if ident != "Unknown <unknown@localhost>" {
		t.Errorf("default ident = %q", ident)
	}
}
