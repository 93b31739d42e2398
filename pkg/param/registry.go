package param

import (
	"sort"
	"sync"

	"github.com/PainterQubits/paramdb/pkg/errors"
)

// Registry maps type-tag names to record types. It is populated whenever a
// record type is declared and is append-only: names are never removed or
// replaced, which keeps previously written snapshots decodable for the life
// of the process.
//
// Registries are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*RecordType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: map[string]*RecordType{}}
}

// DefaultRegistry is the registry used by [NewRecordType]. Most programs
// declare all their types here and pass it to the codec and store.
var DefaultRegistry = NewRegistry()

// Declare builds a record type with the given name and fields and registers
// it in r. Declaring a name twice is an error: the registry is append-only.
func (r *Registry) Declare(name string, fields ...FieldDef) (*RecordType, error) {
	rt, err := newRecordType(name, fields)
	if err != nil {
		return nil, err
	}
	if err := r.register(rt); err != nil {
		return nil, err
	}
	return rt, nil
}

// Lookup returns the record type registered under name.
func (r *Registry) Lookup(name string) (*RecordType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.types[name]
	return rt, ok
}

// Names returns all registered type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) register(rt *RecordType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[rt.name]; exists {
		return errors.New(errors.ErrCodeInvalidInput, "record type %q is already registered", rt.name)
	}
	r.types[rt.name] = rt
	rt.registry = r
	return nil
}

// NewRecordType declares a record type in [DefaultRegistry].
func NewRecordType(name string, fields ...FieldDef) (*RecordType, error) {
	return DefaultRegistry.Declare(name, fields...)
}

// MustRecordType is like [NewRecordType] but panics on error. Intended for
// package-level type declarations, where a bad declaration is a programming
// error.
func MustRecordType(name string, fields ...FieldDef) *RecordType {
	rt, err := NewRecordType(name, fields...)
	if err != nil {
		panic(err)
	}
	return rt
}
