package repo

import (
	"testing"

	"kitcat/pkg/index"
	"kitcat/pkg/object"
)

func TestAdd_StagesBlobAndEntry(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "src/main.go", "package main\n")

	if err := r.Add([]string{"src/main.go"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	entries, err := r.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "src/main.go" {
		t.Fatalf("entries = %+v", entries)
	}

	blob, err := r.Store.ReadBlob(entries[0].Hash)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if string(blob.Data) != "package main\n" {
		t.Errorf("blob = %q", blob.Data)
	}
}

func TestAdd_DirectoryWalks(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "pkg/a.go", "a\n")
	writeWorkFile(t, r, "pkg/sub/b.go", "b\n")

	if err := r.Add([]string{"pkg"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	entries, err := r.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[0].Path != "pkg/a.go" || entries[1].Path != "pkg/sub/b.go" {
		t.Errorf("paths = %q, %q", entries[0].Path, entries[1].Path)
	}
}

func TestAdd_ReplacesExistingEntry(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "a.txt", "one\n")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	writeWorkFile(t, r, "a.txt", "two\n")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add again: %v", err)
	}

	entries, err := r.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Hash != object.HashObject(object.TypeBlob, []byte("two\n")) {
		t.Errorf("entry not replaced: %+v", entries[0])
	}
}

func TestUnstage(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "a.txt", "x\n")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := r.Unstage("a.txt"); err != nil {
		t.Fatalf("Unstage: %v", err)
	}
	entries, err := r.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %+v", entries)
	}

	if err := r.Unstage("a.txt"); err == nil {
		t.Error("unstaging a missing path succeeded")
	}
}

func TestBuildTree_DeterministicUnderPermutation(t *testing.T) {
	r := newTestRepo(t)

	entry := func(path, content string) index.Entry {
		h, err := r.Store.WriteBlob(&object.Blob{Data: []byte(content)})
		if err != nil {
			t.Fatalf("WriteBlob: %v", err)
		}
		return index.Entry{
			Mode:  0o100644,
			Hash:  h,
			Flags: index.MakeFlags(path, index.StageNormal),
			Path:  path,
		}
	}

	a := entry("src/a.go", "a\n")
	b := entry("src/sub/b.go", "b\n")
	c := entry("top.txt", "c\n")

	h1, err := r.BuildTree([]index.Entry{a, b, c})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	h2, err := r.BuildTree([]index.Entry{c, b, a})
	if err != nil {
		t.Fatalf("BuildTree permuted: %v", err)
	}
	if h1 != h2 {
		t.Errorf("tree hashes differ: %s vs %s", h1, h2)
	}
}

func TestBuildTree_FlattenRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "a.txt", "a\n")
	writeWorkFile(t, r, "dir/b.txt", "b\n")
	writeWorkFile(t, r, "dir/deep/c.txt", "c\n")
	if err := r.Add([]string{"a.txt", "dir"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	entries, err := r.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	root, err := r.BuildTree(entries)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	files, err := r.FlattenTree(root)
	if err != nil {
		t.Fatalf("FlattenTree: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("flattened %d files, want 3: %v", len(files), files)
	}
	for _, e := range entries {
		if files[e.Path] != e.Hash {
			t.Errorf("files[%s] = %s, want %s", e.Path, files[e.Path], e.Hash)
		}
	}
}

func TestCommit_ChainAndLog(t *testing.T) {
	r := newTestRepo(t)

	first := commitFile(t, r, "a.txt", "one\n", "first")
	second := commitFile(t, r, "a.txt", "two\n", "second")

	c, err := r.Store.ReadCommit(second)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if len(c.Parents) != 1 || c.Parents[0] != first {
		t.Errorf("parents = %v, want [%s]", c.Parents, first)
	}
	if c.Author != "Test User <test@example.com>" {
		t.Errorf("author = %q", c.Author)
	}
	if c.AuthorTime == 0 || c.AuthorTZ == "" {
		t.Errorf("timestamp not recorded: %+v", c)
	}

	entries, err := r.Log(second, 0)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("log has %d entries, want 2", len(entries))
	}
	if entries[0].Hash != second || entries[1].Hash != first {
		t.Errorf("log order = %s, %s", entries[0].Hash, entries[1].Hash)
	}
	if entries[0].Commit.Message != "second" {
		t.Errorf("message = %q", entries[0].Commit.Message)
	}
}

func TestCommit_NothingStaged(t *testing.T) {
	r := newTestRepo(t)
	if _, err := r.Commit("empty"); err == nil {
		t.Fatal("commit with empty index succeeded")
	}
}

func TestCommit_FirstCommitUpdatesBranch(t *testing.T) {
	r := newTestRepo(t)
	h := commitFile(t, r, "a.txt", "x\n", "initial commit")

	got, err := r.ResolveRef("refs/heads/main")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if got != h {
		t.Errorf("main = %s, want %s", got, h)
	}
}
