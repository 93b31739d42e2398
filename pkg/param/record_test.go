package param

import (
	"testing"
	"time"

	"github.com/PainterQubits/paramdb/pkg/errors"
)

func TestRecordConstructionRequiresAllFields(t *testing.T) {
	rt := declare(t, "Osc", Field("frequency", KindFloat), Field("power", KindFloat))

	if _, err := rt.New(map[string]any{"frequency": 5.2}); err == nil {
		t.Error("New should fail when a declared field is missing")
	}
	r, err := rt.New(map[string]any{"frequency": 5.2, "power": -13.0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := r.MustGet("frequency"); got != 5.2 {
		t.Errorf("frequency = %v, want 5.2", got)
	}
}

func TestRecordUnknownField(t *testing.T) {
	rt := declare(t, "Osc", Field("frequency", KindFloat))
	r := newRecord(t, rt, map[string]any{"frequency": 5.2})

	err := r.Set("gain", 3.0)
	if err == nil {
		t.Fatal("Set on an undeclared field should fail")
	}
	if !errors.Is(err, errors.ErrCodeUnknownField) {
		t.Errorf("error code = %q, want UNKNOWN_FIELD", errors.GetCode(err))
	}

	if _, ok := r.Get("gain"); ok {
		t.Error("Get on an undeclared field should report absence")
	}
}

func TestRecordTypeValidation(t *testing.T) {
	rt := declare(t, "Osc", Field("frequency", KindFloat), Field("label", KindString)).
		WithValidator(TypeChecker{})

	r, err := rt.New(map[string]any{"frequency": 5.2, "label": "q1 drive"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = r.Set("frequency", "fast")
	if err == nil {
		t.Fatal("Set with a mismatched value should fail")
	}
	if !errors.Is(err, errors.ErrCodeValidation) {
		t.Errorf("error code = %q, want VALIDATION_FAILED", errors.GetCode(err))
	}
	if got := r.MustGet("frequency"); got != 5.2 {
		t.Errorf("failed Set should leave the old value, got %v", got)
	}

	// Construction goes through the same validated path.
	if _, err := rt.New(map[string]any{"frequency": "fast", "label": "x"}); err == nil {
		t.Error("New with a mismatched value should fail")
	}
}

func TestTypeCheckerKinds(t *testing.T) {
	rt := declare(t, "Every",
		Field("b", KindBool),
		Field("i", KindInt),
		Field("f", KindFloat),
		Field("s", KindString),
		Field("t", KindTime),
		Field("q", KindQuantity),
		Field("n", KindNode),
		Field("a", KindAny),
	).WithValidator(TypeChecker{})

	_, err := rt.New(map[string]any{
		"b": true,
		"i": 7, // any integer width normalizes to int64
		"f": float32(1.5),
		"s": "ok",
		"t": time.Now(),
		"q": Quantity{Value: 12.5, Unit: "GHz"},
		"n": NewDict(),
		"a": nil,
	})
	if err != nil {
		t.Fatalf("New with matching kinds: %v", err)
	}

	bad := map[string]any{
		"b": 1,
		"i": 1.5,
		"f": "x",
		"s": 3,
		"t": "2024-01-01",
		"q": 12.5,
		"n": "not a node",
	}
	base := map[string]any{
		"b": true, "i": int64(1), "f": 1.0, "s": "s",
		"t": time.Now(), "q": Quantity{}, "n": NewList(), "a": 0,
	}
	for field, v := range bad {
		values := map[string]any{}
		for k, bv := range base {
			values[k] = bv
		}
		values[field] = v
		if _, err := rt.New(values); err == nil {
			t.Errorf("field %s: value %v (%T) should be rejected", field, v, v)
		}
	}
}

func TestRecordFieldTimestamps(t *testing.T) {
	rt := declare(t, "Osc", Field("frequency", KindFloat), Field("power", KindFloat))
	r := newRecord(t, rt, map[string]any{"frequency": 5.2, "power": -13.0})

	powerBefore, ok := r.FieldUpdatedAt("power")
	if !ok {
		t.Fatal("non-node field should carry a slot timestamp")
	}

	if err := r.Set("frequency", 5.3); err != nil {
		t.Fatalf("Set: %v", err)
	}
	freqAfter, _ := r.FieldUpdatedAt("frequency")
	powerAfter, _ := r.FieldUpdatedAt("power")

	if freqAfter.Before(powerBefore) {
		t.Error("reassigned field's slot timestamp should advance")
	}
	if !powerAfter.Equal(powerBefore) {
		t.Error("untouched field's slot timestamp should be unchanged")
	}
	if r.LastOwnUpdate().Before(freqAfter) {
		t.Error("own timestamp should be at least the newest slot timestamp")
	}
}

func TestRegistryAppendOnly(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Declare("Osc", Field("frequency", KindFloat)); err != nil {
		t.Fatalf("Declare: %v", err)
	}
	if _, err := reg.Declare("Osc", Field("other", KindInt)); err == nil {
		t.Error("re-declaring a registered name should fail")
	}

	rt, ok := reg.Lookup("Osc")
	if !ok || rt.Name() != "Osc" {
		t.Error("Lookup should find the declared type")
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "Osc" {
		t.Errorf("Names = %v, want [Osc]", names)
	}
}

func TestRecordTypeDeclarationErrors(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Declare("", Field("x", KindAny)); err == nil {
		t.Error("empty type name should be rejected")
	}
	if _, err := reg.Declare("Dup", Field("x", KindAny), Field("x", KindAny)); err == nil {
		t.Error("duplicate field names should be rejected")
	}
	if _, err := reg.Declare("Reserved", Field("__type", KindAny)); err == nil {
		t.Error("reserved field names should be rejected")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{int(3), int64(3)},
		{int32(3), int64(3)},
		{uint16(3), int64(3)},
		{float32(1.5), float64(1.5)},
		{"s", "s"},
		{true, true},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%v %T) = %v %T, want %v %T", tt.in, tt.in, got, got, tt.want, tt.want)
		}
	}
}
