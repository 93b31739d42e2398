package codec

import (
	"encoding/json"

	"github.com/klauspost/compress/zstd"

	"github.com/PainterQubits/paramdb/pkg/errors"
	"github.com/PainterQubits/paramdb/pkg/param"
)

// Reserved keys of the canonical representation.
const (
	keyType        = "__type"
	keyLastUpdated = "__last_updated"
	keyChildTimes  = "__child_times"
	keyItems       = "__items"
	keyValue       = "__value"
	keyUnit        = "__unit"
	keyPath        = "__path"
	keyFormat      = "__format"
)

// Built-in type tags. Record tags are resolved against the registry instead.
const (
	tagList     = "list"
	tagDict     = "dict"
	tagFile     = "file"
	tagDatetime = "datetime"
	tagQuantity = "quantity"
)

// Codec encodes node graphs into compressed canonical payloads and back.
// The registry resolves record type tags during decoding; a nil registry
// means [param.DefaultRegistry]. Codec is safe for concurrent use.
type Codec struct {
	registry *param.Registry
}

// New creates a codec resolving type tags against reg.
func New(reg *param.Registry) *Codec {
	if reg == nil {
		reg = param.DefaultRegistry
	}
	return &Codec{registry: reg}
}

// Encode converts the graph rooted at root into its canonical JSON form and
// compresses it. Later mutation of the graph does not affect the returned
// payload.
func (c *Codec) Encode(root param.Node) ([]byte, error) {
	doc, err := encodeValue(root)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "marshal canonical document")
	}
	return compress(raw), nil
}

// EncodeDocument returns the pre-compression canonical document for root.
// Intended for tooling; Encode is the storage path.
func (c *Codec) EncodeDocument(root param.Node) (map[string]any, error) {
	doc, err := encodeValue(root)
	if err != nil {
		return nil, err
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "root did not encode to a tagged object")
	}
	return m, nil
}

// Decode decompresses and decodes a payload, resolving every type tag
// against the codec's registry. Unknown tags fail with UNREGISTERED_TYPE.
func (c *Codec) Decode(data []byte) (param.Node, error) {
	doc, err := c.parse(data)
	if err != nil {
		return nil, err
	}
	v, err := c.decodeValue(doc)
	if err != nil {
		return nil, err
	}
	n, ok := v.(param.Node)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "payload root is not a node (got %T)", v)
	}
	return n, nil
}

// DecodeRaw decompresses and parses a payload without resolving any type
// tags: tagged objects stay plain maps with their "__type" entries intact.
// Used by tooling that does not have the original type declarations loaded.
func (c *Codec) DecodeRaw(data []byte) (any, error) {
	return c.parse(data)
}

// RawJSON decompresses a payload and returns the canonical JSON bytes.
func (c *Codec) RawJSON(data []byte) ([]byte, error) {
	raw, err := decompress(data)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Codec) parse(data []byte) (any, error) {
	raw, err := decompress(data)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := unmarshalNumbers(raw, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "parse canonical document")
	}
	return doc, nil
}

// compress applies whole-payload Zstandard compression.
func compress(raw []byte) []byte {
	enc, _ := zstd.NewWriter(nil)
	defer enc.Close()
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2))
}

// decompress reverses compress.
func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init zstd reader")
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decompress payload")
	}
	return raw, nil
}
