package param

import (
	"fmt"
	"strings"
	"time"

	"github.com/PainterQubits/paramdb/pkg/errors"
)

// Violation describes one way a value failed validation.
type Violation struct {
	Field  string
	Reason string
}

// Validator is the pluggable validation capability of a record type.
// It is invoked on construction and on every assignment; a non-empty result
// makes the setter fail with VALIDATION_FAILED.
type Validator interface {
	Validate(rt *RecordType, field string, value any) []Violation
}

// validationError converts violations into a single structured error.
func validationError(typeName string, violations []Violation) error {
	reasons := make([]string, len(violations))
	for i, v := range violations {
		reasons[i] = fmt.Sprintf("%s: %s", v.Field, v.Reason)
	}
	return errors.New(errors.ErrCodeValidation,
		"record type %q: %s", typeName, strings.Join(reasons, "; "))
}

// TypeChecker validates values against the declared field kinds. It is the
// validator most record types want:
//
//	rt, _ := param.NewRecordType("Root",
//	    param.Field("frequency", param.KindFloat),
//	).WithValidator(param.TypeChecker{})
//
// Values are checked after normalization, so any Go integer type satisfies
// KindInt and float32 satisfies KindFloat. No coercion across kinds is
// performed: an int is not accepted where a float is declared.
type TypeChecker struct {
	// AllowNil accepts nil for any field kind when set.
	AllowNil bool
}

// Validate implements [Validator].
func (c TypeChecker) Validate(rt *RecordType, field string, value any) []Violation {
	kind := KindAny
	for _, f := range rt.fields {
		if f.Name == field {
			kind = f.Kind
			break
		}
	}
	if kind == KindAny {
		return nil
	}
	if value == nil {
		if c.AllowNil {
			return nil
		}
		return []Violation{{Field: field, Reason: fmt.Sprintf("nil is not a valid %s", kind)}}
	}
	if kindOf(value) != kind {
		return []Violation{{
			Field:  field,
			Reason: fmt.Sprintf("value %v (%T) does not match declared kind %s", value, value, kind),
		}}
	}
	return nil
}

// kindOf reports the kind of a normalized value, or -1 for values that match
// no declared kind.
func kindOf(v any) Kind {
	switch v.(type) {
	case bool:
		return KindBool
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case time.Time:
		return KindTime
	case Quantity:
		return KindQuantity
	case Node:
		return KindNode
	}
	return Kind(-1)
}
