package render

import (
	"strings"
	"testing"

	"github.com/PainterQubits/paramdb/pkg/errors"
)

func record(tag string, fields map[string]any) map[string]any {
	doc := map[string]any{
		"__type":         tag,
		"__last_updated": "2024-06-01T12:00:00Z",
	}
	for k, v := range fields {
		doc[k] = v
	}
	return doc
}

func TestToDOTSingleNode(t *testing.T) {
	doc := record("Root", map[string]any{"value": 1.23})

	dot, err := ToDOT(doc, Options{})
	if err != nil {
		t.Fatalf("ToDOT error: %v", err)
	}
	if !strings.Contains(dot, "digraph params") {
		t.Error("missing digraph header")
	}
	if !strings.Contains(dot, `label="Root"`) {
		t.Errorf("missing root node label:\n%s", dot)
	}
	// Compact labels omit leaf values.
	if strings.Contains(dot, "1.23") {
		t.Error("compact mode should not include leaf values")
	}
}

func TestToDOTDetailedLabels(t *testing.T) {
	doc := record("Root", map[string]any{
		"value": 1.23,
		"when": map[string]any{
			"__type":  "datetime",
			"__value": "2024-06-01T12:00:00Z",
		},
		"freq": map[string]any{
			"__type":  "quantity",
			"__value": 5.2,
			"__unit":  "GHz",
		},
	})

	dot, err := ToDOT(doc, Options{Detailed: true})
	if err != nil {
		t.Fatalf("ToDOT error: %v", err)
	}
	for _, want := range []string{"value: 1.23", "freq: 5.2 GHz", "updated: 2024-06-01T12:00:00Z"} {
		if !strings.Contains(dot, want) {
			t.Errorf("detailed label missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTNestedEdges(t *testing.T) {
	child := record("Child", map[string]any{"gain": int64(3)})
	doc := map[string]any{
		"__type":         "dict",
		"__last_updated": "2024-06-01T12:00:00Z",
		"__items": []any{
			[]any{"amp", child},
			[]any{"threshold", 0.5},
		},
	}

	dot, err := ToDOT(doc, Options{})
	if err != nil {
		t.Fatalf("ToDOT error: %v", err)
	}
	if !strings.Contains(dot, `label="dict"`) || !strings.Contains(dot, `label="Child"`) {
		t.Errorf("missing node labels:\n%s", dot)
	}
	if !strings.Contains(dot, `n0 -> n1 [label="amp"]`) {
		t.Errorf("missing labeled edge:\n%s", dot)
	}
}

func TestToDOTListIndices(t *testing.T) {
	doc := map[string]any{
		"__type":         "list",
		"__last_updated": "2024-06-01T12:00:00Z",
		"__items":        []any{record("Child", nil), record("Child", nil)},
	}

	dot, err := ToDOT(doc, Options{})
	if err != nil {
		t.Fatalf("ToDOT error: %v", err)
	}
	for _, want := range []string{`[label="[0]"]`, `[label="[1]"]`} {
		if !strings.Contains(dot, want) {
			t.Errorf("missing list index edge %q:\n%s", want, dot)
		}
	}
}

func TestToDOTRejectsUntaggedRoot(t *testing.T) {
	if _, err := ToDOT("not a document", Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
	if _, err := ToDOT(map[string]any{"x": 1}, Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}
