package storage

import (
	"bytes"
	"testing"
)

func TestLocalStorePutGetDelete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}

	data := []byte("hello chunk zero")
	ref, err := store.Put("t1", 0, data)
	if err != nil {
		t.Fatalf("failed to put chunk: %v", err)
	}
	if ref != "t1/0.chunk" {
		t.Errorf("unexpected storage ref: %q", ref)
	}

	got, err := store.Get(ref)
	if err != nil {
		t.Fatalf("failed to get chunk: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("retrieved chunk does not match stored data")
	}

	if err := store.Delete(ref); err != nil {
		t.Fatalf("failed to delete chunk: %v", err)
	}
	if _, err := store.Get(ref); err == nil {
		t.Errorf("expected error reading deleted chunk")
	}
}

func TestLocalStoreRefsDoNotCollide(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}

	refs := map[string]bool{}
	for _, tc := range []struct {
		transferID string
		index      int
	}{
		{"t1", 0}, {"t1", 1}, {"t2", 0}, {"t2", 1},
	} {
		ref, err := store.Put(tc.transferID, tc.index, []byte("x"))
		if err != nil {
			t.Fatalf("failed to put chunk %s/%d: %v", tc.transferID, tc.index, err)
		}
		if refs[ref] {
			t.Errorf("storage ref collision: %q", ref)
		}
		refs[ref] = true
	}
}

func TestLocalStoreDeleteMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}
	if err := store.Delete("ghost/0.chunk"); err == nil {
		t.Errorf("expected error deleting missing chunk")
	}
}

func TestLocalStoreRejectsBadIDs(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}
	for _, id := range []string{"", "../evil", `a/b`, `a\b`} {
		if _, err := store.Put(id, 0, []byte("x")); err == nil {
			t.Errorf("expected rejection of transfer id %q", id)
		}
	}
	if _, err := store.Get("../outside"); err == nil {
		t.Errorf("expected rejection of traversal ref")
	}
}

func TestLocalStoreLastWriteWins(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}

	if _, err := store.Put("t1", 3, []byte("first")); err != nil {
		t.Fatalf("failed first put: %v", err)
	}
	ref, err := store.Put("t1", 3, []byte("second"))
	if err != nil {
		t.Fatalf("failed second put: %v", err)
	}
	got, err := store.Get(ref)
	if err != nil {
		t.Fatalf("failed to get chunk: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("expected last write to win, got %q", got)
	}
}
