// Package codec converts parameter node graphs to and from their canonical
// self-describing representation, and compresses the result for storage.
//
// # Wire format
//
// The canonical representation is a JSON document. Primitive scalars pass
// through unmodified; every other value is a tagged object whose "__type"
// key names a registered type:
//
//	{"__type": "Root", "__last_updated": ..., "__child_times": {...}, "frequency": 5.2}
//	{"__type": "list", "__last_updated": ..., "__child_times": [...], "__items": [...]}
//	{"__type": "dict", "__last_updated": ..., "__child_times": {...}, "__items": [["k", v], ...]}
//	{"__type": "file", "__last_updated": ..., "__path": "...", "__format": "text"}
//	{"__type": "datetime", "__value": "2024-01-02T15:04:05.999999999+01:00"}
//	{"__type": "quantity", "__value": 12.5, "__unit": "GHz"}
//
// Record fields appear inline next to the reserved keys, which is why field
// names and dict keys must not start with "__". Dict items are key/value
// pairs in insertion order. Every node carries its own-update time and its
// non-node child timestamps, so decoding reproduces full timestamp state.
//
// Numbers keep their integer/float identity: floats are always written with
// a decimal point or exponent, and decoding maps plain integers to int64 and
// everything else to float64.
//
// Whole payloads are compressed with Zstandard after encoding and
// decompressed before decoding.
package codec
