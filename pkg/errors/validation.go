package errors

import (
	"strings"
	"unicode"
)

// reservedPrefix marks keys the canonical wire format keeps for itself
// (e.g. __type, __last_updated). Field names and dict keys must not use it.
const reservedPrefix = "__"

// ValidateFieldName validates a record field name.
//
// Field names must be non-empty, must not start with the reserved "__"
// prefix, and must not contain control characters. They are otherwise
// unrestricted so that decoded data can round-trip arbitrary identifiers.
func ValidateFieldName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "field name cannot be empty")
	}
	if strings.HasPrefix(name, reservedPrefix) {
		return New(ErrCodeInvalidInput, "field name %q uses the reserved %q prefix", name, reservedPrefix)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "field name %q contains control characters", name)
		}
	}
	return nil
}

// ValidateDictKey validates a key for a parameter dict.
// Dict keys follow the same rules as field names since both appear as
// object keys in the canonical representation.
func ValidateDictKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "dict key cannot be empty")
	}
	if strings.HasPrefix(key, reservedPrefix) {
		return New(ErrCodeInvalidInput, "dict key %q uses the reserved %q prefix", key, reservedPrefix)
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "dict key %q contains control characters", key)
		}
	}
	return nil
}

// builtinTypeTags are the type tags the canonical wire format assigns to
// containers and scalar wrappers. A record type registered under one of
// these names would be routed to the built-in decoder instead of its own,
// so they are off limits for declarations.
var builtinTypeTags = map[string]bool{
	"list":     true,
	"dict":     true,
	"file":     true,
	"datetime": true,
	"quantity": true,
}

// ValidateTypeName validates a registered type-tag name.
// Type names must be non-empty, must not collide with the built-in wire
// format tags, and must not contain whitespace or control characters, since
// they are used verbatim as canonical type tags.
func ValidateTypeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "type name cannot be empty")
	}
	if builtinTypeTags[name] {
		return New(ErrCodeInvalidInput, "type name %q is a built-in type tag", name)
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "type name %q contains whitespace or control characters", name)
		}
	}
	return nil
}
