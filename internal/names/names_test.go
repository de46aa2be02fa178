package names

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestResolve(t *testing.T) {
	m := map[string]string{"b1": "Jean", "b2": ""}

	tests := []struct {
		name string
		id   string
		m    map[string]string
		want string
	}{
		{"present", "b1", m, "Jean"},
		{"absent", "xyz123", m, "xyz123"},
		{"empty label falls back", "b2", m, "b2"},
		{"empty map", "xyz123", map[string]string{}, "xyz123"},
		{"nil map", "xyz123", nil, "xyz123"},
		{"empty id", "", nil, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.id, tt.m); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestResolve_IsTotal(t *testing.T) {
	inputs := []string{"", " ", "a", "é", "0000000000000000", "b1"}
	for _, in := range inputs {
		if Resolve(in, map[string]string{"b1": "Jean"}) == "" {
			t.Errorf("Resolve(%q) returned empty string", in)
		}
	}
}

func TestTable_LoadAndResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bikeNames.json")
	if err := os.WriteFile(path, []byte(`{"b1":"Jean","b2":"Marie"}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	table := NewTable()
	if table.IsLoaded() {
		t.Error("new table should not be loaded")
	}
	if got := table.Resolve("b1"); got != "b1" {
		t.Errorf("before load Resolve(b1) = %q, want b1", got)
	}

	if err := table.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !table.IsLoaded() || table.Count() != 2 {
		t.Errorf("loaded=%v count=%d, want true/2", table.IsLoaded(), table.Count())
	}
	if got := table.Resolve("b2"); got != "Marie" {
		t.Errorf("Resolve(b2) = %q, want Marie", got)
	}
}

func TestTable_LoadErrors(t *testing.T) {
	table := NewTable()
	if err := table.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	_ = os.WriteFile(path, []byte(`["not","an","object"]`), 0o644)
	if err := table.Load(path); err == nil {
		t.Error("expected error for non-object JSON")
	}
	if table.IsLoaded() {
		t.Error("failed load must not mark table loaded")
	}
}

func TestTable_NilIsUsable(t *testing.T) {
	var table *Table
	if got := table.Resolve("abc"); got != "abc" {
		t.Errorf("nil table Resolve = %q, want abc", got)
	}
	if table.Count() != 0 || table.IsLoaded() {
		t.Error("nil table should be empty and unloaded")
	}
}

func TestTable_ConcurrentResolve(t *testing.T) {
	table := FromMap(map[string]string{"b1": "Jean"})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if table.Resolve("b1") != "Jean" {
					t.Error("unexpected label")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestAssign(t *testing.T) {
	pool := []string{"Jean", "Marie"}
	got := Assign([]string{"x", "y", "z", "x", ""}, pool)

	want := map[string]string{"x": "Jean", "y": "Marie", "z": "Name3"}
	if len(got) != len(want) {
		t.Fatalf("got %d labels, want %d: %v", len(got), len(want), got)
	}
	for id, label := range want {
		if got[id] != label {
			t.Errorf("Assign[%s] = %q, want %q", id, got[id], label)
		}
	}
}

func TestWriteFile_RoundTripsThroughLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.json")
	if err := WriteFile(path, map[string]string{"b1": "Chloé"}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	table := NewTable()
	if err := table.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := table.Resolve("b1"); got != "Chloé" {
		t.Errorf("Resolve(b1) = %q, want Chloé", got)
	}
}
