package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{SQLitePath: filepath.Join(t.TempDir(), "repowiki.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newWarehouse(t *testing.T, s *Store) *Warehouse {
	t.Helper()
	w := &Warehouse{Name: "demo", UserID: "u1", IsActive: true}
	if err := s.CreateWarehouse(context.Background(), w); err != nil {
		t.Fatal(err)
	}
	return w
}

func TestWarehouse_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	w := newWarehouse(t, s)

	got, err := s.GetWarehouse(ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "demo" || !got.IsActive || got.Taxonomy != "" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := s.SetTaxonomy(ctx, w.ID, "cli_tool"); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetWarehouse(ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Taxonomy != "cli_tool" {
		t.Fatalf("taxonomy = %q", got.Taxonomy)
	}

	if _, err := s.GetWarehouse(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentCountInvariant(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	w := newWarehouse(t, s)

	for _, path := range []string{"a.go", "b.go"} {
		err := s.SaveDocumentWithCommit(ctx,
			&Document{WarehouseID: w.ID, Path: path, Title: path, Content: "doc"},
			&CommitRecord{WarehouseID: w.ID, Target: "doc:" + path, CommitID: "c1"})
		if err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.GetWarehouse(ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DocumentCount != 2 {
		t.Fatalf("document_count = %d, want 2", got.DocumentCount)
	}

	// Rewriting the same path must not inflate the count.
	err = s.SaveDocumentWithCommit(ctx,
		&Document{WarehouseID: w.ID, Path: "a.go", Title: "a.go", Content: "doc v2"},
		&CommitRecord{WarehouseID: w.ID, Target: "doc:a.go", CommitID: "c2"})
	if err != nil {
		t.Fatal(err)
	}
	got, err = s.GetWarehouse(ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DocumentCount != 2 {
		t.Fatalf("document_count after upsert = %d, want 2", got.DocumentCount)
	}
}

func TestCommitRecord_SupersedeNotDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	w := newWarehouse(t, s)
	target := "doc:a.go"

	need, err := s.NeedsRegeneration(ctx, w.ID, target, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if !need {
		t.Fatal("no record yet: regeneration must be needed")
	}

	err = s.SaveDocumentWithCommit(ctx,
		&Document{WarehouseID: w.ID, Path: "a.go", Content: "v1"},
		&CommitRecord{WarehouseID: w.ID, Target: target, CommitID: "c1"})
	if err != nil {
		t.Fatal(err)
	}

	// Round-trip: the record just written is the current one.
	cur, err := s.CurrentCommit(ctx, w.ID, target)
	if err != nil {
		t.Fatal(err)
	}
	if cur.CommitID != "c1" || !cur.Current {
		t.Fatalf("current = %+v", cur)
	}
	need, err = s.NeedsRegeneration(ctx, w.ID, target, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if need {
		t.Fatal("same commit must not need regeneration")
	}
	need, err = s.NeedsRegeneration(ctx, w.ID, target, "c2")
	if err != nil {
		t.Fatal(err)
	}
	if !need {
		t.Fatal("changed commit must need regeneration")
	}

	// A later record supersedes, it does not delete.
	err = s.SaveDocumentWithCommit(ctx,
		&Document{WarehouseID: w.ID, Path: "a.go", Content: "v2"},
		&CommitRecord{WarehouseID: w.ID, Target: target, CommitID: "c2"})
	if err != nil {
		t.Fatal(err)
	}
	hist, err := s.CommitHistory(ctx, w.ID, target)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 {
		t.Fatalf("history length = %d, want 2", len(hist))
	}
	var currents int
	for _, rec := range hist {
		if rec.Current {
			currents++
			if rec.CommitID != "c2" {
				t.Fatalf("wrong current record: %+v", rec)
			}
		}
	}
	if currents != 1 {
		t.Fatalf("expected exactly one current record, got %d", currents)
	}
}

func TestSupersedeAllCurrent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	w := newWarehouse(t, s)

	err := s.SaveDocumentWithCommit(ctx,
		&Document{WarehouseID: w.ID, Path: "a.go", Content: "v1"},
		&CommitRecord{WarehouseID: w.ID, Target: "doc:a.go", CommitID: "c1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SupersedeAllCurrent(ctx, w.ID); err != nil {
		t.Fatal(err)
	}
	need, err := s.NeedsRegeneration(ctx, w.ID, "doc:a.go", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if !need {
		t.Fatal("after supersede-all, regeneration must be needed again")
	}
	// The document itself stays retrievable.
	doc, err := s.GetDocument(ctx, w.ID, "a.go")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Content != "v1" {
		t.Fatalf("document content = %q", doc.Content)
	}
}

func TestCatalogOverviewMiniMap(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	w := newWarehouse(t, s)

	err := s.SaveCatalogWithCommit(ctx, w.ID, "c1", []byte(`{"root":{}}`), "analysis text",
		&CommitRecord{WarehouseID: w.ID, Target: "catalog", CommitID: "c1"})
	if err != nil {
		t.Fatal(err)
	}
	tree, analysis, commitID, err := s.GetCatalog(ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if string(tree) != `{"root":{}}` || analysis != "analysis text" || commitID != "c1" {
		t.Fatalf("catalog round trip: %s / %s / %s", tree, analysis, commitID)
	}

	err = s.SaveOverviewWithCommit(ctx, w.ID, "overview text",
		&CommitRecord{WarehouseID: w.ID, Target: "overview", CommitID: "c1"})
	if err != nil {
		t.Fatal(err)
	}
	ov, err := s.GetOverview(ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ov != "overview text" {
		t.Fatalf("overview = %q", ov)
	}

	err = s.SaveMiniMapWithCommit(ctx, w.ID, []byte(`{"nodes":[]}`),
		&CommitRecord{WarehouseID: w.ID, Target: "minimap", CommitID: "c1"})
	if err != nil {
		t.Fatal(err)
	}
	mm, err := s.GetMiniMap(ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if string(mm) != `{"nodes":[]}` {
		t.Fatalf("minimap = %s", mm)
	}
}

func TestDeleteWarehouse_Cascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	w := newWarehouse(t, s)

	err := s.SaveDocumentWithCommit(ctx,
		&Document{WarehouseID: w.ID, Path: "a.go", Content: "v1"},
		&CommitRecord{WarehouseID: w.ID, Target: "doc:a.go", CommitID: "c1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteWarehouse(ctx, w.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetWarehouse(ctx, w.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("warehouse not deleted: %v", err)
	}
	if _, err := s.GetDocument(ctx, w.ID, "a.go"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("documents not cascaded: %v", err)
	}
	if _, err := s.CurrentCommit(ctx, w.ID, "doc:a.go"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("commit records not cascaded: %v", err)
	}
}

func TestRuns_Lifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	w := newWarehouse(t, s)

	run := &Run{WarehouseID: w.ID, CommitID: "c1", State: "analyzing"}
	if err := s.StartRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateRunState(ctx, run.ID, "generating"); err != nil {
		t.Fatal(err)
	}
	if err := s.FinishRun(ctx, run.ID, "completed", "", `[]`); err != nil {
		t.Fatal(err)
	}
	latest, err := s.LatestRun(ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if latest.State != "completed" || latest.FinishedAt.IsZero() {
		t.Fatalf("latest run = %+v", latest)
	}
	if err := s.ClearRuns(ctx, w.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LatestRun(ctx, w.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("runs not cleared: %v", err)
	}
}

func TestTimestamps_SortChronologically(t *testing.T) {
	// A trailing-zero fraction must not make a later instant sort before an
	// earlier one under string ORDER BY.
	early := time.Date(2026, 8, 29, 12, 0, 0, 500_000_000, time.UTC)
	late := time.Date(2026, 8, 29, 12, 0, 1, 42, time.UTC)

	a := early.Format(timeLayout)
	b := late.Format(timeLayout)
	if len(a) != len(b) {
		t.Fatalf("layout is not fixed width: %q vs %q", a, b)
	}
	if !(a < b) {
		t.Fatalf("string order disagrees with time order: %q !< %q", a, b)
	}
	if got := parseTime(b); !got.Equal(late) {
		t.Fatalf("round trip = %v, want %v", got, late)
	}
}
