package repo

import (
	"errors"
	"reflect"
	"testing"
)

func TestCreateBranch(t *testing.T) {
	r := newTestRepo(t)
	h := commitFile(t, r, "a.txt", "x\n", "initial commit")

	if err := r.CreateBranch("feature", h); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	got, err := r.ResolveRef("refs/heads/feature")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if got != h {
		t.Errorf("feature = %s, want %s", got, h)
	}

	if err := r.CreateBranch("feature", h); !errors.Is(err, ErrBranchExists) {
		t.Errorf("duplicate CreateBranch = %v, want ErrBranchExists", err)
	}
}

func TestCreateBranch_InvalidName(t *testing.T) {
	r := newTestRepo(t)
	h := commitFile(t, r, "a.txt", "x\n", "initial commit")

	for _, name := range []string{"", "  ", "bad name", "nested/name"} {
		if err := r.CreateBranch(name, h); err == nil {
			t.Errorf("CreateBranch(%q) succeeded", name)
		}
	}
}

func TestDeleteBranch(t *testing.T) {
	r := newTestRepo(t)
	h := commitFile(t, r, "a.txt", "x\n", "initial commit")
	if err := r.CreateBranch("feature", h); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	if err := r.DeleteBranch("feature"); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}
	if err := r.DeleteBranch("feature"); err == nil {
		t.Error("deleting a missing branch succeeded")
	}
}

func TestDeleteBranch_RefusesCurrent(t *testing.T) {
	r := newTestRepo(t)
	commitFile(t, r, "a.txt", "x\n", "initial commit")

	if err := r.DeleteBranch("main"); err == nil {
		t.Fatal("deleting the current branch succeeded")
	}
}

func TestListBranches(t *testing.T) {
	r := newTestRepo(t)
	h := commitFile(t, r, "a.txt", "x\n", "initial commit")
	for _, name := range []string{"zeta", "alpha"} {
		if err := r.CreateBranch(name, h); err != nil {
			t.Fatalf("CreateBranch(%s): %v", name, err)
		}
	}

	names, err := r.ListBranches()
	if err != nil {
		t.Fatalf("ListBranches: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "main", "zeta"}) {
		t.Errorf("branches = %v", names)
	}
}
