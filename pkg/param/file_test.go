package param

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestFileParamTextRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	f := NewFileParam(path, TextFormat{})

	if err := f.UpdateData("calibration notes"); err != nil {
		t.Fatalf("UpdateData: %v", err)
	}
	data, err := f.Data()
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if data != "calibration notes" {
		t.Errorf("Data = %v, want calibration notes", data)
	}
}

func TestFileParamUpdateBumpsTimestamp(t *testing.T) {
	f := NewFileParam(filepath.Join(t.TempDir(), "x.txt"), TextFormat{})
	before := f.LastOwnUpdate()

	if err := f.UpdateData("v2"); err != nil {
		t.Fatalf("UpdateData: %v", err)
	}
	if f.LastOwnUpdate().Before(before) {
		t.Error("UpdateData should advance the own timestamp")
	}
}

func TestFileParamGeneratedPath(t *testing.T) {
	f := NewFileParam("", JSONFormat{})
	if f.Path() == "" {
		t.Fatal("empty path should be replaced with a generated one")
	}
	if !strings.HasSuffix(f.Path(), ".json") {
		t.Errorf("generated path %q should carry the format extension", f.Path())
	}
}

func TestFileParamLazyLoad(t *testing.T) {
	// Data is materialized per call; a missing side file fails on access,
	// not at construction.
	f := NewFileParam(filepath.Join(t.TempDir(), "missing.txt"), TextFormat{})
	if _, err := f.Data(); err == nil {
		t.Error("Data on a missing side file should fail")
	}
}

func TestJSONFormatRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.json")
	f := NewFileParam(path, JSONFormat{})

	payload := map[string]any{"points": []any{1.0, 2.0, 3.0}}
	if err := f.UpdateData(payload); err != nil {
		t.Fatalf("UpdateData: %v", err)
	}
	got, err := f.Data()
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("Data = %T, want map", got)
	}
	if pts, ok := m["points"].([]any); !ok || len(pts) != 3 {
		t.Errorf("payload did not round-trip: %v", got)
	}
}

func TestRegisterFileFormatAppendOnly(t *testing.T) {
	if err := RegisterFileFormat(TextFormat{}); err == nil {
		t.Error("re-registering a format name should fail")
	}
	if _, ok := LookupFileFormat("text"); !ok {
		t.Error("built-in text format should be registered")
	}
	if _, ok := LookupFileFormat("parquet"); ok {
		t.Error("unknown format should not be found")
	}
}
