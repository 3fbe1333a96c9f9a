package session

import (
	"sync"
	"testing"
)

func TestBindReceiverOnce(t *testing.T) {
	s := NewSession("t1", "sender-1")

	if !s.BindReceiver("recv-1") {
		t.Fatalf("first receiver bind should succeed")
	}
	if s.BindReceiver("recv-2") {
		t.Errorf("second receiver bind should fail")
	}
	if got := s.Receiver(); got != "recv-1" {
		t.Errorf("original receiver binding changed: %q", got)
	}
	if snap := s.Snapshot(); snap.Status != StatusConnected {
		t.Errorf("expected connected status, got %q", snap.Status)
	}
}

func TestStatusIsMonotonic(t *testing.T) {
	s := NewSession("t1", "sender-1")

	s.BeginUpload(FileInfo{Name: "a.txt", Size: 20, TotalChunks: 2})
	if snap := s.Snapshot(); snap.Status != StatusUploading {
		t.Fatalf("expected uploading, got %q", snap.Status)
	}

	// A receiver joining mid-upload must not regress the status.
	s.BindReceiver("recv-1")
	if snap := s.Snapshot(); snap.Status != StatusUploading {
		t.Errorf("status regressed to %q after late join", snap.Status)
	}

	s.Complete()
	if snap := s.Snapshot(); snap.Status != StatusCompleted {
		t.Errorf("expected completed, got %q", snap.Status)
	}
}

func TestFileInfoSetOnce(t *testing.T) {
	s := NewSession("t1", "sender-1")
	s.BeginUpload(FileInfo{Name: "a.txt", Size: 20, TotalChunks: 2})
	s.BeginUpload(FileInfo{Name: "b.txt", Size: 99, TotalChunks: 9})

	snap := s.Snapshot()
	if snap.FileInfo == nil || snap.FileInfo.Name != "a.txt" {
		t.Errorf("file info was overwritten: %+v", snap.FileInfo)
	}
	if snap.TotalChunks != 2 {
		t.Errorf("expected totalChunks 2, got %d", snap.TotalChunks)
	}
}

func TestAppendChunkConcurrent(t *testing.T) {
	s := NewSession("t1", "sender-1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AppendChunk(ChunkRecord{Index: i, StorageRef: "t1/x", Size: 10})
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.ChunksReceived != 50 {
		t.Errorf("expected 50 chunks, got %d", snap.ChunksReceived)
	}
	if snap.BytesStored != 500 {
		t.Errorf("expected 500 bytes stored, got %d", snap.BytesStored)
	}
}

func TestRegistryConnections(t *testing.T) {
	r := NewRegistry()

	r.AddConnection("c1")
	r.BindConnection("c1", RoleSender, "t1")

	c, ok := r.Connection("c1")
	if !ok || c.Role != RoleSender || c.TransferID != "t1" {
		t.Fatalf("unexpected connection record: %+v ok=%v", c, ok)
	}

	removed, ok := r.RemoveConnection("c1")
	if !ok || removed.TransferID != "t1" {
		t.Fatalf("remove returned %+v ok=%v", removed, ok)
	}
	if _, ok := r.Connection("c1"); ok {
		t.Errorf("connection record survived removal")
	}
	if _, ok := r.RemoveConnection("c1"); ok {
		t.Errorf("second removal should report missing")
	}
}

func TestRegistrySessions(t *testing.T) {
	r := NewRegistry()

	s := NewSession("t1", "sender-1")
	r.PutSession(s)
	if r.SessionCount() != 1 {
		t.Fatalf("expected one session")
	}

	got, ok := r.Session("t1")
	if !ok || got != s {
		t.Fatalf("lookup returned wrong session")
	}

	if _, ok := r.RemoveSession("t1"); !ok {
		t.Fatalf("expected removal to find session")
	}
	if _, ok := r.RemoveSession("t1"); ok {
		t.Errorf("second removal should be a no-op")
	}
}
