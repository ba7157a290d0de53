package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Missing(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.PositionID != -1 || s.MaxLength != nil || len(s.IDList) != 0 {
		t.Errorf("got %+v, want initial state", s)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".whisker", "state.json")
	n := 3
	want := State{PositionID: 1, MaxLength: &n, IDList: []string{"a", "b", "c"}}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.PositionID != 1 || got.MaxLength == nil || *got.MaxLength != 3 || len(got.IDList) != 3 {
		t.Errorf("got %+v, want %+v", got, want)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the state file, got %d entries", len(entries))
	}
}

func TestLoad_NullFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"position_id": -1, "max_length": null, "id_list": null}`), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.IDList == nil {
		t.Error("IDList should be normalized to an empty slice")
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
