package sqlite

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

func attach(t *testing.T, dir string, opts ...Option) *Backend {
	t.Helper()
	b := NewBackend(opts...)
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(func() { b.Detach() })
	return b
}

func unitsTableOf(t *testing.T, b *Backend) types.Table {
	t.Helper()
	tbl, err := b.GetTable(types.UnitsTable)
	if err != nil {
		t.Fatalf("GetTable failed: %v", err)
	}
	return tbl
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested", "data")

	b := NewBackend()
	config := types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}
	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()

	for _, name := range []string{dbFile, unitsJSONL, unitSourcesJSONL} {
		if _, err := os.Stat(filepath.Join(tmpDir, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}

	if err := b.Attach(config); !errors.Is(err, types.ErrAlreadyAttached) {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	b := NewBackend()
	if err := b.Attach(types.Config{DataDir: t.TempDir()}); !errors.Is(err, types.ErrBackendEmpty) {
		t.Errorf("expected ErrBackendEmpty, got %v", err)
	}
	if err := b.Attach(types.Config{Backend: "postgres"}); !errors.Is(err, types.ErrBackendUnknown) {
		t.Errorf("expected ErrBackendUnknown, got %v", err)
	}
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	tbl := unitsTableOf(t, b)

	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Errorf("second Detach should not error, got %v", err)
	}

	if _, err := b.GetTable(types.UnitsTable); !errors.Is(err, types.ErrStoreDetached) {
		t.Errorf("expected ErrStoreDetached, got %v", err)
	}
	if _, err := tbl.Fetch(nil); !errors.Is(err, types.ErrStoreDetached) {
		t.Errorf("expected ErrStoreDetached from a stale table, got %v", err)
	}
}

func TestBackend_GetTable(t *testing.T) {
	b := attach(t, t.TempDir())

	for _, name := range types.StandardTableNames {
		if _, err := b.GetTable(name); err != nil {
			t.Errorf("GetTable(%q) failed: %v", name, err)
		}
	}
	if _, err := b.GetTable("terms"); !errors.Is(err, types.ErrTableNotFound) {
		t.Errorf("expected ErrTableNotFound, got %v", err)
	}
}

func TestBackend_ReloadFromJSONL(t *testing.T) {
	dir := t.TempDir()

	b := NewBackend()
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	tbl := unitsTableOf(t, b)
	letters, err := tbl.Set("", &types.UnitSpec{
		Name: "letters", Family: types.FamilyCombination, Width: 2,
		Sources: []types.SourceSpec{{Items: []any{"A", "B", "C", 7.5}}},
	})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	perm, err := tbl.Set("", &types.UnitSpec{
		Family: types.FamilyPermutation, Width: 2,
		Sources: []types.SourceSpec{{UnitID: letters}},
	})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}

	b2 := attach(t, dir)
	got, err := unitsTableOf(t, b2).Get(perm)
	if err != nil {
		t.Fatalf("Get after reload failed: %v", err)
	}
	spec := got.(*types.UnitSpec)
	if spec.Family != types.FamilyPermutation || spec.Width != 2 {
		t.Errorf("unexpected spec after reload: %+v", spec)
	}
	if len(spec.Sources) != 1 || spec.Sources[0].UnitID != letters {
		t.Errorf("sources not restored: %+v", spec.Sources)
	}

	got, err = unitsTableOf(t, b2).Get(letters)
	if err != nil {
		t.Fatalf("Get after reload failed: %v", err)
	}
	items := got.(*types.UnitSpec).Sources[0].Items
	if len(items) != 4 || items[0] != "A" || items[3] != 7.5 {
		t.Errorf("items not restored: %#v", items)
	}
}

func TestBackend_MalformedLinesSkipped(t *testing.T) {
	dir := t.TempDir()
	units := strings.Join([]string{
		`{"unit_id":"u1","name":"","family":"permutation","r":1,"created_at":"2026-01-01T00:00:00Z"}`,
		`not json`,
		`{"unit_id":"u2","name":"two","family":"combination","r":1,"created_at":"2026-01-02T00:00:00Z","extra":true}`,
		``,
	}, "\n")
	sources := strings.Join([]string{
		`{"unit_id":"u1","position":0,"source_unit_id":null,"items":["x","y"]}`,
		`{"unit_id":"u2","position":0,"source_unit_id":"u1","items":null}`,
		`{"unit_id":"ghost","position":0,"source_unit_id":null,"items":["z"]}`,
		`{broken`,
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, unitsJSONL), []byte(units), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, unitSourcesJSONL), []byte(sources), 0o644); err != nil {
		t.Fatal(err)
	}

	b := attach(t, dir)
	all, err := unitsTableOf(t, b).Fetch(nil)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 units, got %d", len(all))
	}
	first := all[0].(*types.UnitSpec)
	second := all[1].(*types.UnitSpec)
	if first.UnitID != "u1" || len(first.Sources[0].Items) != 2 {
		t.Errorf("unexpected first unit: %+v", first)
	}
	if second.UnitID != "u2" || second.Sources[0].UnitID != "u1" {
		t.Errorf("unexpected second unit: %+v", second)
	}
}

func TestBackend_BadCreatedAt(t *testing.T) {
	dir := t.TempDir()
	units := `{"unit_id":"u1","name":"","family":"permutation","r":1,"created_at":"yesterday"}`
	sources := `{"unit_id":"u1","position":0,"source_unit_id":null,"items":["x"]}`
	if err := os.WriteFile(filepath.Join(dir, unitsJSONL), []byte(units), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, unitSourcesJSONL), []byte(sources), 0o644); err != nil {
		t.Fatal(err)
	}

	b := attach(t, dir)
	_, err := unitsTableOf(t, b).Get("u1")
	if err == nil {
		t.Fatal("expected error for unparsable created_at")
	}
	if !strings.Contains(err.Error(), "created_at") {
		t.Errorf("error %q does not mention created_at", err)
	}
	if _, err := unitsTableOf(t, b).Fetch(nil); err == nil {
		t.Error("expected Fetch to fail on unparsable created_at")
	}
}

func TestBackend_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	b := attach(t, t.TempDir(), WithLogger(logger))
	if _, err := unitsTableOf(t, b).Set("", &types.UnitSpec{
		Family: types.FamilyPermutation, Width: 1,
		Sources: []types.SourceSpec{{Items: []any{"a"}}},
	}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"store attached", "unit saved", "persisted JSONL"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestBackend_SyncOnClose(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: dir,
		SQLite:  types.SQLiteConfig{SyncStrategy: types.SyncOnClose},
	}
	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if _, err := unitsTableOf(t, b).Set("", &types.UnitSpec{
		Family: types.FamilyPermutation, Width: 1,
		Sources: []types.SourceSpec{{Items: []any{"a"}}},
	}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if lines := countLines(t, filepath.Join(dir, unitsJSONL)); lines != 0 {
		t.Errorf("expected no persisted units before Detach, got %d", lines)
	}
	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if lines := countLines(t, filepath.Join(dir, unitsJSONL)); lines != 1 {
		t.Errorf("expected 1 persisted unit after Detach, got %d", lines)
	}
}

func TestBackend_SyncBatchSize(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: dir,
		SQLite:  types.SQLiteConfig{SyncStrategy: types.SyncBatch, BatchSize: 2, BatchInterval: 3600},
	}
	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()
	tbl := unitsTableOf(t, b)

	add := func() {
		t.Helper()
		if _, err := tbl.Set("", &types.UnitSpec{
			Family: types.FamilyPermutation, Width: 1,
			Sources: []types.SourceSpec{{Items: []any{"a"}}},
		}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	add()
	if lines := countLines(t, filepath.Join(dir, unitsJSONL)); lines != 0 {
		t.Errorf("expected batch to hold the first write, got %d lines", lines)
	}
	add()
	if lines := countLines(t, filepath.Join(dir, unitsJSONL)); lines != 2 {
		t.Errorf("expected full batch to flush 2 units, got %d lines", lines)
	}
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return strings.Count(string(data), "\n")
}
