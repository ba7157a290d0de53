package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LISSConsulting/LISSTech.Whisker/internal/store"
)

// Compile-time check.
var _ store.Writer = (*store.JSONL)(nil)

func label(s string) *string { return &s }

func TestCreate_CreatesDirAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unarchived", "tok.jsonl")
	s, err := store.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer func() { _ = s.Close() }()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %v", err)
	}
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
}

func TestAppend_ReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.jsonl")
	s, err := store.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()

	now := time.Now().UTC().Truncate(time.Second)
	recs := []store.Record{
		{ID: "a", Filename: "a.png", Annotation: label("cat"), UpdatedAt: now},
		{ID: "b", Filename: "b.png", UpdatedAt: now},
	}
	for _, r := range recs {
		if err := s.Append(r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, skipped, err := store.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || skipped != 0 {
		t.Fatalf("ReadFile: got %d records, %d skipped; want 2, 0", len(got), skipped)
	}
	if got[0].ID != "a" || got[0].Annotation == nil || *got[0].Annotation != "cat" {
		t.Errorf("first record = %+v, want annotated a", got[0])
	}
	if !got[0].UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", got[0].UpdatedAt, now)
	}
	if got[1].Annotated() {
		t.Errorf("second record should be unannotated, got %+v", got[1])
	}
}

func TestCreate_ReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.jsonl")
	s, err := store.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Append(store.Record{ID: "x", Annotation: label("cat")})
	_ = s.Close()

	s2, err := store.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s2.Close() }()
	_ = s2.Append(store.Record{ID: "y"})

	recs, skipped, err := store.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || skipped != 0 {
		t.Fatalf("ReadFile: got %d records, %d skipped; want 2, 0", len(recs), skipped)
	}
	if recs[0].ID != "x" || recs[1].ID != "y" {
		t.Errorf("reopening should keep existing lines, got %s, %s", recs[0].ID, recs[1].ID)
	}
}

func TestReadFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		recs, skipped, err := store.ReadFile(filepath.Join(t.TempDir(), "none.jsonl"))
		if err != nil || recs != nil || skipped != 0 {
			t.Errorf("got %v, %d, %v; want nil, 0, nil", recs, skipped, err)
		}
	})

	t.Run("skips malformed lines", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "r.jsonl")
		content := `{"id":"a","filename":"a.png","annotation":"cat"}
not json
{"filename":"no-id.png"}

{"id":"b","filename":"b.png","annotation":null}
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		recs, skipped, err := store.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 2 {
			t.Fatalf("expected 2 records, got %d", len(recs))
		}
		if skipped != 2 {
			t.Errorf("expected 2 skipped lines, got %d", skipped)
		}
		if recs[1].Annotated() {
			t.Error("null annotation should decode as unannotated")
		}
	})
}

func TestWriteFile_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.jsonl")
	if err := store.WriteFile(path, []store.Record{{ID: "old"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.WriteFile(path, []store.Record{{ID: "a"}, {ID: "b"}}); err != nil {
		t.Fatal(err)
	}
	recs, _, err := store.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != "a" {
		t.Errorf("got %+v, want records a, b", recs)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestMerge(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older := []store.Record{
		{ID: "a", Annotation: label("cat"), UpdatedAt: t0},
		{ID: "b", Annotation: label("cat"), UpdatedAt: t0},
	}
	newer := []store.Record{
		{ID: "a", Annotation: label("dog"), UpdatedAt: t0.Add(time.Hour)},
		{ID: "c", Annotation: label("dog"), UpdatedAt: t0},
	}

	got := store.Merge(older, newer)
	if len(got) != 3 {
		t.Fatalf("expected 3 merged records, got %d", len(got))
	}
	if got[0].ID != "a" || *got[0].Annotation != "dog" {
		t.Errorf("latest update should win and sort first, got %+v", got[0])
	}
	if got[1].ID != "b" || got[2].ID != "c" {
		t.Errorf("ties should sort by id ascending, got %s, %s", got[1].ID, got[2].ID)
	}

	// A stale record arriving later must not overwrite a newer one.
	got = store.Merge(newer, older)
	for _, r := range got {
		if r.ID == "a" && *r.Annotation != "dog" {
			t.Errorf("stale record overwrote newer one: %+v", r)
		}
	}
}
