package history

import (
	"testing"
	"time"
)

func TestHistoryPutAndRecent(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open history store: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := Record{
			TransferID:   []string{"t1", "t2", "t3"}[i],
			FileName:     "file.bin",
			FileSize:     1024,
			FileType:     "application/octet-stream",
			TotalChunks:  4,
			BytesRelayed: 1024,
			CompletedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Put(rec); err != nil {
			t.Fatalf("failed to put record %d: %v", i, err)
		}
	}

	recs, err := store.Recent(2)
	if err != nil {
		t.Fatalf("failed to list recent records: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].TransferID != "t3" || recs[1].TransferID != "t2" {
		t.Errorf("expected newest-first ordering, got %s then %s", recs[0].TransferID, recs[1].TransferID)
	}
	if recs[0].TotalChunks != 4 || recs[0].FileName != "file.bin" {
		t.Errorf("record fields do not roundtrip: %+v", recs[0])
	}
}

func TestHistoryRecentEmpty(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open history store: %v", err)
	}
	defer store.Close()

	recs, err := store.Recent(10)
	if err != nil {
		t.Fatalf("failed to list recent records: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected empty history, got %d records", len(recs))
	}
}
