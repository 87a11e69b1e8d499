package catalog

import (
	"context"
	"errors"
	"testing"
	"time"
)

// openTestCatalog opens an in-memory Catalog for use in tests.
func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory catalog: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func Test_Catalog_InsertAndGet(t *testing.T) {
	t.Parallel()
	c := openTestCatalog(t)
	ctx := context.Background()

	want := Document{
		DocID:      "ab12cd34",
		Filename:   "minutes.pdf",
		UploadedAt: time.Unix(1700000000, 0).UTC(),
		ChunkCount: 3,
		StoredPath: "/data/docs/ab12cd34.pdf",
	}
	if err := c.Insert(ctx, want); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := c.Get(ctx, "ab12cd34")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Errorf("get: want %+v, got %+v", want, got)
	}
}

func Test_Catalog_GetUnknown(t *testing.T) {
	t.Parallel()
	c := openTestCatalog(t)

	_, err := c.Get(context.Background(), "nope0000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func Test_Catalog_ListOrderedByUploadTime(t *testing.T) {
	t.Parallel()
	c := openTestCatalog(t)
	ctx := context.Background()

	// Inserted out of order; List must return upload-time ascending.
	docs := []Document{
		{DocID: "cc000003", Filename: "c.pdf", UploadedAt: time.Unix(300, 0), ChunkCount: 1, StoredPath: "/d/c.pdf"},
		{DocID: "aa000001", Filename: "a.pdf", UploadedAt: time.Unix(100, 0), ChunkCount: 1, StoredPath: "/d/a.pdf"},
		{DocID: "bb000002", Filename: "b.pdf", UploadedAt: time.Unix(200, 0), ChunkCount: 1, StoredPath: "/d/b.pdf"},
	}
	for _, d := range docs {
		if err := c.Insert(ctx, d); err != nil {
			t.Fatalf("insert %s: %v", d.DocID, err)
		}
	}

	got, err := c.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 documents, got %d", len(got))
	}
	for i, wantID := range []string{"aa000001", "bb000002", "cc000003"} {
		if got[i].DocID != wantID {
			t.Errorf("position %d: want %s, got %s", i, wantID, got[i].DocID)
		}
	}
}

func Test_Catalog_DeleteRemovesRow(t *testing.T) {
	t.Parallel()
	c := openTestCatalog(t)
	ctx := context.Background()

	doc := Document{DocID: "dd000004", Filename: "d.pdf", UploadedAt: time.Unix(1, 0), ChunkCount: 2, StoredPath: "/d/d.pdf"}
	if err := c.Insert(ctx, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := c.Delete(ctx, "dd000004"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, "dd000004"); !errors.Is(err, ErrNotFound) {
		t.Errorf("document should be gone, got %v", err)
	}
}

func Test_Catalog_DeleteUnknownReportsNotFound(t *testing.T) {
	t.Parallel()
	c := openTestCatalog(t)

	err := c.Delete(context.Background(), "nope0000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func Test_Catalog_DuplicateInsertRejected(t *testing.T) {
	t.Parallel()
	c := openTestCatalog(t)
	ctx := context.Background()

	doc := Document{DocID: "ee000005", Filename: "e.pdf", UploadedAt: time.Unix(1, 0), ChunkCount: 1, StoredPath: "/d/e.pdf"}
	if err := c.Insert(ctx, doc); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := c.Insert(ctx, doc); err == nil {
		t.Error("expected primary-key violation on duplicate insert")
	}
}

func Test_Catalog_CountAndPing(t *testing.T) {
	t.Parallel()
	c := openTestCatalog(t)
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	n, err := c.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("empty catalog: want 0, got %d", n)
	}
}
