package codec

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/PainterQubits/paramdb/pkg/errors"
	"github.com/PainterQubits/paramdb/pkg/param"
)

func declare(t *testing.T, reg *param.Registry, name string, fields ...param.FieldDef) *param.RecordType {
	t.Helper()
	rt, err := reg.Declare(name, fields...)
	if err != nil {
		t.Fatalf("Declare(%s): %v", name, err)
	}
	return rt
}

func newRecord(t *testing.T, rt *param.RecordType, values map[string]any) *param.Record {
	t.Helper()
	r, err := rt.New(values)
	if err != nil {
		t.Fatalf("%s.New: %v", rt.Name(), err)
	}
	return r
}

func roundTrip(t *testing.T, c *Codec, root param.Node) param.Node {
	t.Helper()
	data, err := c.Encode(root)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return decoded
}

func TestRoundTripRecord(t *testing.T) {
	reg := param.NewRegistry()
	rt := declare(t, reg, "Osc",
		param.Field("frequency", param.KindFloat),
		param.Field("averages", param.KindInt),
		param.Field("label", param.KindString),
		param.Field("enabled", param.KindBool),
		param.Field("note", param.KindAny),
	)
	c := New(reg)

	r := newRecord(t, rt, map[string]any{
		"frequency": 5.2,
		"averages":  1024,
		"label":     "q1 drive",
		"enabled":   true,
		"note":      nil,
	})

	got := roundTrip(t, c, r).(*param.Record)
	if got.Type().Name() != "Osc" {
		t.Errorf("type = %q, want Osc", got.Type().Name())
	}
	if v := got.MustGet("frequency"); v != 5.2 {
		t.Errorf("frequency = %v (%T), want 5.2 (float64)", v, v)
	}
	if v := got.MustGet("averages"); v != int64(1024) {
		t.Errorf("averages = %v (%T), want 1024 (int64)", v, v)
	}
	if v := got.MustGet("label"); v != "q1 drive" {
		t.Errorf("label = %v", v)
	}
	if v := got.MustGet("enabled"); v != true {
		t.Errorf("enabled = %v", v)
	}
	if v := got.MustGet("note"); v != nil {
		t.Errorf("note = %v, want nil", v)
	}
}

func TestRoundTripPreservesTimestamps(t *testing.T) {
	reg := param.NewRegistry()
	leafType := declare(t, reg, "Leaf", param.Field("value", param.KindFloat))
	rootType := declare(t, reg, "Top", param.Field("leaf", param.KindNode), param.Field("gain", param.KindFloat))
	c := New(reg)

	leaf := newRecord(t, leafType, map[string]any{"value": 1.0})
	root := newRecord(t, rootType, map[string]any{"leaf": leaf, "gain": 3.5})
	if err := leaf.Set("value", 2.0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got := roundTrip(t, c, root).(*param.Record)
	gotLeaf := got.MustGet("leaf").(*param.Record)

	if !got.LastOwnUpdate().Equal(root.LastOwnUpdate()) {
		t.Errorf("root own stamp %v != %v", got.LastOwnUpdate(), root.LastOwnUpdate())
	}
	if !got.LastUpdated().Equal(root.LastUpdated()) {
		t.Errorf("root aggregate %v != %v", got.LastUpdated(), root.LastUpdated())
	}
	if !gotLeaf.LastOwnUpdate().Equal(leaf.LastOwnUpdate()) {
		t.Errorf("leaf own stamp %v != %v", gotLeaf.LastOwnUpdate(), leaf.LastOwnUpdate())
	}
	wantGain, _ := root.FieldUpdatedAt("gain")
	if gain, ok := got.FieldUpdatedAt("gain"); !ok || !gain.Equal(wantGain) {
		t.Errorf("gain slot stamp %v != %v", gain, wantGain)
	}
	if p, ok := gotLeaf.Parent(); !ok || p != param.Node(got) {
		t.Error("decoded leaf should be attached to the decoded root")
	}
}

func TestRoundTripCollections(t *testing.T) {
	reg := param.NewRegistry()
	c := New(reg)

	d := param.NewDict()
	inner := param.NewList(int64(1), "two", 3.0, param.Quantity{Value: 12.5, Unit: "GHz"})
	if err := d.Set("seq", inner); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := d.Set("when", time.Date(2024, 6, 1, 12, 30, 0, 123456789, time.FixedZone("CET", 3600))); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got := roundTrip(t, c, d).(*param.Dict)
	if keys := got.Keys(); len(keys) != 2 || keys[0] != "seq" || keys[1] != "when" {
		t.Fatalf("Keys = %v, want [seq when]", keys)
	}

	gotList := mustGet(t, got, "seq").(*param.List)
	if gotList.Len() != 4 {
		t.Fatalf("list Len = %d, want 4", gotList.Len())
	}
	if v, _ := gotList.Get(0); v != int64(1) {
		t.Errorf("item 0 = %v (%T), want int64(1)", v, v)
	}
	if v, _ := gotList.Get(1); v != "two" {
		t.Errorf("item 1 = %v", v)
	}
	if v, _ := gotList.Get(2); v != 3.0 {
		t.Errorf("item 2 = %v (%T), want float64(3)", v, v)
	}
	if q, _ := gotList.Get(3); q != (param.Quantity{Value: 12.5, Unit: "GHz"}) {
		t.Errorf("item 3 = %v", q)
	}

	want := time.Date(2024, 6, 1, 12, 30, 0, 123456789, time.FixedZone("CET", 3600))
	if v := mustGet(t, got, "when").(time.Time); !v.Equal(want) {
		t.Errorf("when = %v, want %v", v, want)
	}

	// Per-slot timestamps survive for plain items.
	wantStamp, _ := inner.ItemUpdatedAt(1)
	gotStamp, ok := gotList.ItemUpdatedAt(1)
	if !ok || !gotStamp.Equal(wantStamp) {
		t.Errorf("slot stamp %v != %v", gotStamp, wantStamp)
	}
}

func mustGet(t *testing.T, d *param.Dict, key string) any {
	t.Helper()
	v, ok := d.Get(key)
	if !ok {
		t.Fatalf("dict is missing key %q", key)
	}
	return v
}

func TestRoundTripFileParam(t *testing.T) {
	reg := param.NewRegistry()
	rootType := declare(t, reg, "Top", param.Field("trace", param.KindNode))
	c := New(reg)

	path := filepath.Join(t.TempDir(), "trace.txt")
	f := param.NewFileParam(path, param.TextFormat{})
	if err := f.UpdateData("1,2,3"); err != nil {
		t.Fatalf("UpdateData: %v", err)
	}
	root := newRecord(t, rootType, map[string]any{"trace": f})

	got := roundTrip(t, c, root).(*param.Record)
	gotFile := got.MustGet("trace").(*param.FileParam)
	if gotFile.Path() != path {
		t.Errorf("path = %q, want %q", gotFile.Path(), path)
	}
	if gotFile.Format().Name() != "text" {
		t.Errorf("format = %q, want text", gotFile.Format().Name())
	}
	// Only the descriptor is in the snapshot; the payload still loads from
	// the side file.
	data, err := gotFile.Data()
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if data != "1,2,3" {
		t.Errorf("Data = %v", data)
	}
}

func TestDecodeUnregisteredTag(t *testing.T) {
	writer := param.NewRegistry()
	declareType := declare(t, writer, "Exotic", param.Field("value", param.KindFloat))
	r := newRecord(t, declareType, map[string]any{"value": 1.0})

	data, err := New(writer).Encode(r)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// A reader without the declaration fails in strict mode.
	reader := New(param.NewRegistry())
	_, err = reader.Decode(data)
	if err == nil {
		t.Fatal("Decode should fail for an unregistered tag")
	}
	if !errors.Is(err, errors.ErrCodeUnregisteredType) {
		t.Errorf("error code = %q, want UNREGISTERED_TYPE", errors.GetCode(err))
	}

	// Raw mode yields the untyped document instead.
	doc, err := reader.DecodeRaw(data)
	if err != nil {
		t.Fatalf("DecodeRaw: %v", err)
	}
	m, ok := doc.(map[string]any)
	if !ok {
		t.Fatalf("DecodeRaw = %T, want map", doc)
	}
	if m["__type"] != "Exotic" {
		t.Errorf("__type = %v, want Exotic", m["__type"])
	}
	if m["value"] != 1.0 {
		t.Errorf("value = %v (%T), want 1.0", m["value"], m["value"])
	}
}

func TestEncodeRejectsUnsupportedValues(t *testing.T) {
	reg := param.NewRegistry()
	rt := declare(t, reg, "Top", param.Field("blob", param.KindAny))
	c := New(reg)

	r := newRecord(t, rt, map[string]any{"blob": nil})
	if err := r.Set("blob", make(chan int)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Encode(r); err == nil {
		t.Error("Encode should reject values outside the canonical type set")
	}

	// Unsigned values above math.MaxInt64 cannot be represented as int64
	// and must fail the same way instead of wrapping to a negative number.
	if err := r.Set("blob", uint64(math.MaxUint64)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Encode(r); !errors.Is(err, errors.ErrCodeInvalidPayload) {
		t.Errorf("Encode of out-of-range uint64 error = %v, want INVALID_PAYLOAD", err)
	}
}

func TestEncodeDocumentShape(t *testing.T) {
	reg := param.NewRegistry()
	rt := declare(t, reg, "Top", param.Field("value", param.KindFloat))
	c := New(reg)

	r := newRecord(t, rt, map[string]any{"value": 1.23})
	doc, err := c.EncodeDocument(r)
	if err != nil {
		t.Fatalf("EncodeDocument: %v", err)
	}
	if doc["__type"] != "Top" {
		t.Errorf("__type = %v", doc["__type"])
	}
	if _, ok := doc["__last_updated"].(string); !ok {
		t.Error("document should carry a __last_updated string")
	}
	if _, ok := doc["value"]; !ok {
		t.Error("record fields should appear inline")
	}
}

func TestRawJSONDecompresses(t *testing.T) {
	reg := param.NewRegistry()
	rt := declare(t, reg, "Top", param.Field("value", param.KindFloat))
	c := New(reg)

	r := newRecord(t, rt, map[string]any{"value": 1.23})
	data, err := c.Encode(r)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	raw, err := c.RawJSON(data)
	if err != nil {
		t.Fatalf("RawJSON: %v", err)
	}
	if len(raw) == 0 || raw[0] != '{' {
		t.Errorf("RawJSON should return the canonical JSON object, got %q", raw)
	}
}

func TestDecodeGarbageFails(t *testing.T) {
	c := New(param.NewRegistry())
	if _, err := c.Decode([]byte("not zstd")); err == nil {
		t.Error("Decode of garbage should fail")
	}
	if !errors.Is(mustErr(c.Decode([]byte("not zstd"))), errors.ErrCodeInvalidPayload) {
		t.Error("garbage should map to INVALID_PAYLOAD")
	}
}

func mustErr(_ any, err error) error { return err }
