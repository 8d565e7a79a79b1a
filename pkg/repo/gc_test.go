package repo

import (
	"testing"

	"kitcat/pkg/object"
)

func TestGC_PrunesUnreachableObjects(t *testing.T) {
	r := newTestRepo(t)
	commitFile(t, r, "a.txt", "kept\n", "initial commit")

	orphan, err := r.Store.WriteBlob(&object.Blob{Data: []byte("never referenced\n")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	summary, err := r.GC(false)
	if err != nil {
		t.Fatalf("GC: %v", err)
	}
	if len(summary.Pruned) != 1 || summary.Pruned[0] != orphan {
		t.Errorf("Pruned = %v, want [%s]", summary.Pruned, orphan)
	}
	// One commit, one tree, one blob.
	if summary.Reachable != 3 {
		t.Errorf("Reachable = %d, want 3", summary.Reachable)
	}
	if r.Store.Has(orphan) {
		t.Error("orphan blob survived GC")
	}
}

func TestGC_DryRunKeepsObjects(t *testing.T) {
	r := newTestRepo(t)
	commitFile(t, r, "a.txt", "kept\n", "initial commit")

	orphan, err := r.Store.WriteBlob(&object.Blob{Data: []byte("never referenced\n")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	summary, err := r.GC(true)
	if err != nil {
		t.Fatalf("GC: %v", err)
	}
	if len(summary.Pruned) != 1 || summary.Pruned[0] != orphan {
		t.Errorf("Pruned = %v, want [%s]", summary.Pruned, orphan)
	}
	if !r.Store.Has(orphan) {
		t.Error("dry run deleted the orphan blob")
	}
}

func TestGC_KeepsFullHistory(t *testing.T) {
	r := newTestRepo(t)
	first := commitFile(t, r, "a.txt", "1\n", "first")
	second := commitFile(t, r, "a.txt", "2\n", "second")

	summary, err := r.GC(false)
	if err != nil {
		t.Fatalf("GC: %v", err)
	}
	if len(summary.Pruned) != 0 {
		t.Errorf("Pruned = %v, want none", summary.Pruned)
	}
	for _, h := range []object.Hash{first, second} {
		if !r.Store.Has(h) {
			t.Errorf("commit %s was pruned", h)
		}
	}
}
