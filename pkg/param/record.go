package param

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/PainterQubits/paramdb/pkg/errors"
)

// Kind identifies the declared shape of a record field.
type Kind int

const (
	// KindAny accepts any value, node or not.
	KindAny Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
	KindQuantity
	// KindNode accepts any [Node] value.
	KindNode
)

var kindNames = map[Kind]string{
	KindAny:      "any",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindString:   "string",
	KindTime:     "time",
	KindQuantity: "quantity",
	KindNode:     "node",
}

// String returns the kind's name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// FieldDef declares one named field of a record type.
type FieldDef struct {
	Name string
	Kind Kind
}

// Field is a convenience constructor for a [FieldDef].
func Field(name string, kind Kind) FieldDef {
	return FieldDef{Name: name, Kind: kind}
}

// RecordType is the static declaration of a fixed-shape named-field node.
// Types are created through [NewRecordType] or [Registry.Declare], which
// also registers them for decoding.
type RecordType struct {
	name      string
	fields    []FieldDef
	index     map[string]int
	validator Validator
	registry  *Registry
}

func newRecordType(name string, fields []FieldDef) (*RecordType, error) {
	if err := errors.ValidateTypeName(name); err != nil {
		return nil, err
	}
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		if err := errors.ValidateFieldName(f.Name); err != nil {
			return nil, err
		}
		if _, dup := index[f.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"record type %q declares field %q twice", name, f.Name)
		}
		index[f.Name] = i
	}
	return &RecordType{name: name, fields: fields, index: index}, nil
}

// Name returns the registered type-tag name.
func (rt *RecordType) Name() string { return rt.name }

// Fields returns the declared fields in declaration order.
func (rt *RecordType) Fields() []FieldDef {
	out := make([]FieldDef, len(rt.fields))
	copy(out, rt.fields)
	return out
}

// WithValidator attaches a validation capability to the type. The validator
// runs on construction and on every assignment. It returns rt for chaining.
func (rt *RecordType) WithValidator(v Validator) *RecordType {
	rt.validator = v
	return rt
}

// New constructs a record, requiring a value for every declared field.
// Each value goes through the same path as a post-construction [Record.Set],
// including validation and child attachment.
func (rt *RecordType) New(values map[string]any) (*Record, error) {
	if missing := rt.missingFields(values); len(missing) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"record type %q requires fields: %s", rt.name, strings.Join(missing, ", "))
	}
	r := &Record{rt: rt, values: make([]any, len(rt.fields))}
	touch(r, time.Now())
	for _, f := range rt.fields {
		if err := r.Set(f.Name, values[f.Name]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (rt *RecordType) missingFields(values map[string]any) []string {
	var missing []string
	for _, f := range rt.fields {
		if _, ok := values[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Restore rebuilds a record from decoded data without re-stamping: field
// values are assigned directly, timestamps are taken from the snapshot, and
// validation is skipped since the data was validated when written. Used by
// the codec.
func (rt *RecordType) Restore(values map[string]any, own time.Time, childTimes map[string]time.Time) (*Record, error) {
	r := &Record{rt: rt, values: make([]any, len(rt.fields))}
	var nodeChildren []Node
	for name, v := range values {
		i, ok := rt.index[name]
		if !ok {
			return nil, errors.New(errors.ErrCodeUnknownField,
				"record type %q has no field %q", rt.name, name)
		}
		r.values[i] = normalize(v)
		if n, isNode := asNode(v); isNode {
			attachChild(r, n)
			nodeChildren = append(nodeChildren, n)
		}
	}
	restoreTimes(r, own, childTimes, nodeChildren)
	return r, nil
}

// Record is a fixed-shape named-field node. Instances are created through
// [RecordType.New]; the zero value is not usable.
type Record struct {
	Base
	rt     *RecordType
	values []any
}

// Type returns the record's declared type.
func (r *Record) Type() *RecordType { return r.rt }

// Get returns the value of the named field. The second result is false if
// the type does not declare the field.
func (r *Record) Get(name string) (any, bool) {
	i, ok := r.rt.index[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// MustGet returns the value of the named field, panicking if the field is
// not declared. Useful in tests and short scripts.
func (r *Record) MustGet(name string) any {
	v, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("record type %q has no field %q", r.rt.name, name))
	}
	return v
}

// Set assigns the named field. Undeclared names fail with UNKNOWN_FIELD; if
// the type carries a validator, mismatched values fail with
// VALIDATION_FAILED. Node values are attached as children, other values
// update the field's child timestamp.
func (r *Record) Set(name string, value any) error {
	i, ok := r.rt.index[name]
	if !ok {
		return errors.New(errors.ErrCodeUnknownField,
			"record type %q has no field %q", r.rt.name, name)
	}
	value = normalize(value)
	if r.rt.validator != nil {
		if violations := r.rt.validator.Validate(r.rt, name, value); len(violations) > 0 {
			return validationError(r.rt.name, violations)
		}
	}
	old := r.values[i]
	r.values[i] = value
	now := time.Now()
	if oldNode, wasNode := asNode(old); wasNode {
		detachChild(r, oldNode)
	}
	if n, isNode := asNode(value); isNode {
		attachChild(r, n)
		delete(r.st.children, name)
	} else {
		stampChild(r, name, now)
	}
	touch(r, now)
	return nil
}

// FieldUpdatedAt returns when the named non-node field was last assigned.
// Node-valued fields track time on the node itself, so this returns
// (zero, false) for them and for undeclared names.
func (r *Record) FieldUpdatedAt(name string) (time.Time, bool) {
	t, ok := r.state().children[name]
	return t, ok
}

// String returns a compact representation for debugging.
func (r *Record) String() string {
	var b strings.Builder
	b.WriteString(r.rt.name)
	b.WriteByte('(')
	for i, f := range r.rt.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", f.Name, r.values[i])
	}
	b.WriteByte(')')
	return b.String()
}

// normalize converts primitive values to their canonical in-memory form:
// integers to int64 and float32 to float64. This keeps encode/decode
// round-trips exact. Unsigned values above math.MaxInt64 have no int64
// form and pass through unchanged, so the encoder rejects them instead of
// silently wrapping.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		if uint64(x) > math.MaxInt64 {
			return v
		}
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return v
		}
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}
