package state

import (
	"testing"

	"github.com/vidprefetch/cache/internal/model"
)

func TestUpsertInsertsOnce(t *testing.T) {
	tbl := NewDiscoveredTable()
	d := model.VideoDescriptor{ID: "a", URL: "https://example.com/a.mp4"}
	v1, created1 := tbl.Upsert(d)
	if !created1 {
		t.Fatalf("expected first upsert to create a record")
	}
	v1.DownloadedBytes = 42

	v2, created2 := tbl.Upsert(d)
	if created2 {
		t.Fatalf("expected second upsert to be a no-op")
	}
	if v2.DownloadedBytes != 42 {
		t.Fatalf("second upsert clobbered progress: got %d", v2.DownloadedBytes)
	}
}

func TestMutateIsAtomicAgainstUnknownID(t *testing.T) {
	tbl := NewDiscoveredTable()
	if ok := tbl.Mutate("missing", func(v *model.VideoDownload) { v.DownloadedBytes = 1 }); ok {
		t.Fatalf("expected Mutate on unknown id to return false")
	}
}

func TestDeleteRemovesRecord(t *testing.T) {
	tbl := NewDiscoveredTable()
	d := model.VideoDescriptor{ID: "a"}
	tbl.Upsert(d)
	removed := tbl.Delete("a")
	if removed == nil || removed.ID != "a" {
		t.Fatalf("expected delete to return removed record")
	}
	if tbl.Get("a") != nil {
		t.Fatalf("expected record gone after delete")
	}
	if tbl.Delete("a") != nil {
		t.Fatalf("expected second delete to be a no-op")
	}
}

func TestSnapshotSharesLiveRecords(t *testing.T) {
	tbl := NewDiscoveredTable()
	tbl.Upsert(model.VideoDescriptor{ID: "a"})
	snap := tbl.Snapshot()
	snap[0].DownloadedBytes = 999
	if got := tbl.Get("a").DownloadedBytes; got != 999 {
		t.Fatalf("snapshot should share the live record so progress is visible, got %d", got)
	}
}

func TestCloneIsIndependentCopy(t *testing.T) {
	tbl := NewDiscoveredTable()
	tbl.Upsert(model.VideoDescriptor{ID: "a"})
	cp := tbl.Get("a").Clone()
	cp.DownloadedBytes = 999
	if got := tbl.Get("a").DownloadedBytes; got != 0 {
		t.Fatalf("mutating a clone leaked into table: got %d", got)
	}
}
