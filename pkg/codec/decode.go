package codec

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/PainterQubits/paramdb/pkg/errors"
	"github.com/PainterQubits/paramdb/pkg/param"
)

// unmarshalNumbers parses JSON keeping the int/float distinction: plain
// integers become int64, everything else float64.
func unmarshalNumbers(raw []byte, out *any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	*out = convertNumbers(doc)
	return nil
}

func convertNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if !strings.ContainsAny(x.String(), ".eE") {
			if i, err := x.Int64(); err == nil {
				return i
			}
		}
		f, _ := x.Float64()
		return f
	case []any:
		for i := range x {
			x[i] = convertNumbers(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = convertNumbers(x[k])
		}
		return x
	default:
		return v
	}
}

// decodeValue reconstructs a model value from its canonical form.
func (c *Codec) decodeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, int64, float64, string:
		return x, nil
	case map[string]any:
		return c.decodeTagged(x)
	default:
		return nil, errors.New(errors.ErrCodeInvalidPayload, "unexpected value of type %T in payload", v)
	}
}

func (c *Codec) decodeTagged(doc map[string]any) (any, error) {
	tag, ok := doc[keyType].(string)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "tagged object is missing %q", keyType)
	}
	switch tag {
	case tagDatetime:
		s, ok := doc[keyValue].(string)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidPayload, "datetime without a string %q", keyValue)
		}
		return parseTime(s)
	case tagQuantity:
		value, err := floatValue(doc[keyValue])
		if err != nil {
			return nil, err
		}
		unit, _ := doc[keyUnit].(string)
		return param.Quantity{Value: value, Unit: unit}, nil
	case tagList:
		return c.decodeList(doc)
	case tagDict:
		return c.decodeDict(doc)
	case tagFile:
		return c.decodeFile(doc)
	default:
		return c.decodeRecord(tag, doc)
	}
}

func (c *Codec) decodeRecord(tag string, doc map[string]any) (any, error) {
	rt, ok := c.registry.Lookup(tag)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnregisteredType, "type tag %q is not registered", tag)
	}
	own, err := ownTime(doc)
	if err != nil {
		return nil, err
	}
	childTimes, err := childTimeMap(doc)
	if err != nil {
		return nil, err
	}
	values := map[string]any{}
	for k, raw := range doc {
		if strings.HasPrefix(k, "__") {
			continue
		}
		v, err := c.decodeValue(raw)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "field %q of %q", k, tag)
		}
		values[k] = v
	}
	return rt.Restore(values, own, childTimes)
}

func (c *Codec) decodeList(doc map[string]any) (any, error) {
	own, err := ownTime(doc)
	if err != nil {
		return nil, err
	}
	rawItems, _ := doc[keyItems].([]any)
	items := make([]any, len(rawItems))
	for i, raw := range rawItems {
		v, err := c.decodeValue(raw)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "list item %d", i)
		}
		items[i] = v
	}
	rawTimes, _ := doc[keyChildTimes].([]any)
	itemTimes := make([]time.Time, len(rawTimes))
	for i, raw := range rawTimes {
		if s, ok := raw.(string); ok {
			t, err := parseTime(s)
			if err != nil {
				return nil, err
			}
			itemTimes[i] = t
		}
	}
	return param.RestoreList(items, own, itemTimes), nil
}

func (c *Codec) decodeDict(doc map[string]any) (any, error) {
	own, err := ownTime(doc)
	if err != nil {
		return nil, err
	}
	childTimes, err := childTimeMap(doc)
	if err != nil {
		return nil, err
	}
	rawItems, _ := doc[keyItems].([]any)
	keys := make([]string, 0, len(rawItems))
	values := make(map[string]any, len(rawItems))
	for _, raw := range rawItems {
		pair, ok := raw.([]any)
		if !ok || len(pair) != 2 {
			return nil, errors.New(errors.ErrCodeInvalidPayload, "dict item is not a key/value pair")
		}
		key, ok := pair[0].(string)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidPayload, "dict key is not a string")
		}
		v, err := c.decodeValue(pair[1])
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "dict key %q", key)
		}
		keys = append(keys, key)
		values[key] = v
	}
	return param.RestoreDict(keys, values, own, childTimes), nil
}

func (c *Codec) decodeFile(doc map[string]any) (any, error) {
	own, err := ownTime(doc)
	if err != nil {
		return nil, err
	}
	path, _ := doc[keyPath].(string)
	format, ok := doc[keyFormat].(string)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "file descriptor without a format name")
	}
	return param.RestoreFileParam(path, format, own)
}

func ownTime(doc map[string]any) (time.Time, error) {
	s, ok := doc[keyLastUpdated].(string)
	if !ok {
		return time.Time{}, errors.New(errors.ErrCodeInvalidPayload, "tagged node is missing %q", keyLastUpdated)
	}
	return parseTime(s)
}

func childTimeMap(doc map[string]any) (map[string]time.Time, error) {
	raw, ok := doc[keyChildTimes].(map[string]any)
	if !ok {
		return nil, nil
	}
	out := make(map[string]time.Time, len(raw))
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidPayload, "child timestamp for %q is not a string", k)
		}
		t, err := parseTime(s)
		if err != nil {
			return nil, err
		}
		out[k] = t
	}
	return out, nil
}

func floatValue(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidPayload, "expected a number, got %T", v)
	}
}
