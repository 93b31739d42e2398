package codec

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PainterQubits/paramdb/pkg/errors"
	"github.com/PainterQubits/paramdb/pkg/param"
)

// encodeValue converts a model value into its canonical JSON-ready form.
func encodeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return x, nil
	case string:
		return x, nil
	case int64:
		return json.Number(strconv.FormatInt(x, 10)), nil
	case float64:
		return floatNumber(x)
	case time.Time:
		return map[string]any{
			keyType:  tagDatetime,
			keyValue: formatTime(x),
		}, nil
	case param.Quantity:
		value, err := floatNumber(x.Value)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			keyType:  tagQuantity,
			keyValue: value,
			keyUnit:  x.Unit,
		}, nil
	case *param.Record:
		return encodeRecord(x)
	case *param.List:
		return encodeList(x)
	case *param.Dict:
		return encodeDict(x)
	case *param.FileParam:
		return map[string]any{
			keyType:        tagFile,
			keyLastUpdated: formatTime(x.LastOwnUpdate()),
			keyPath:        x.Path(),
			keyFormat:      x.Format().Name(),
		}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidPayload,
			"value of type %T is not encodable", v)
	}
}

func encodeRecord(r *param.Record) (any, error) {
	childTimes := map[string]any{}
	doc := map[string]any{
		keyType:        r.Type().Name(),
		keyLastUpdated: formatTime(r.LastOwnUpdate()),
		keyChildTimes:  childTimes,
	}
	for _, f := range r.Type().Fields() {
		v, _ := r.Get(f.Name)
		encoded, err := encodeValue(v)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "field %q", f.Name)
		}
		doc[f.Name] = encoded
		if t, ok := r.FieldUpdatedAt(f.Name); ok {
			childTimes[f.Name] = formatTime(t)
		}
	}
	return doc, nil
}

func encodeList(l *param.List) (any, error) {
	items := l.Items()
	encoded := make([]any, len(items))
	childTimes := make([]any, len(items))
	for i, v := range items {
		e, err := encodeValue(v)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "item %d", i)
		}
		encoded[i] = e
		if t, ok := l.ItemUpdatedAt(i); ok {
			childTimes[i] = formatTime(t)
		}
	}
	return map[string]any{
		keyType:        tagList,
		keyLastUpdated: formatTime(l.LastOwnUpdate()),
		keyChildTimes:  childTimes,
		keyItems:       encoded,
	}, nil
}

func encodeDict(d *param.Dict) (any, error) {
	childTimes := map[string]any{}
	items := make([]any, 0, d.Len())
	for _, k := range d.Keys() {
		v, _ := d.Get(k)
		e, err := encodeValue(v)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "key %q", k)
		}
		items = append(items, []any{k, e})
		if t, ok := d.KeyUpdatedAt(k); ok {
			childTimes[k] = formatTime(t)
		}
	}
	return map[string]any{
		keyType:        tagDict,
		keyLastUpdated: formatTime(d.LastOwnUpdate()),
		keyChildTimes:  childTimes,
		keyItems:       items,
	}, nil
}

// floatNumber renders a float with a guaranteed decimal point or exponent so
// decoding keeps the int/float distinction.
func floatNumber(f float64) (json.Number, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errors.New(errors.ErrCodeInvalidPayload, "float value %v is not representable in JSON", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return json.Number(s), nil
}

// formatTime renders a timestamp as RFC 3339 with nanoseconds, keeping the
// zone offset.
func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// parseTime reverses formatTime.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrap(errors.ErrCodeInvalidPayload, err, "parse timestamp %q", s)
	}
	return t, nil
}
