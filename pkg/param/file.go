package param

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PainterQubits/paramdb/pkg/errors"
)

// FileFormat reads and writes a [FileParam] payload to its side file.
// Formats are registered by name so the codec can reconstruct the format
// from a descriptor.
type FileFormat interface {
	// Name identifies the format in encoded descriptors.
	Name() string
	// Ext is the extension (with dot) used for generated file names.
	Ext() string
	Save(path string, data any) error
	Load(path string) (any, error)
}

var (
	fileFormatsMu sync.RWMutex
	fileFormats   = map[string]FileFormat{}
)

// RegisterFileFormat makes a format available for decoding descriptors.
// Registration is append-only; re-registering a name is an error. TextFormat
// and JSONFormat are pre-registered.
func RegisterFileFormat(f FileFormat) error {
	if err := errors.ValidateTypeName(f.Name()); err != nil {
		return err
	}
	fileFormatsMu.Lock()
	defer fileFormatsMu.Unlock()
	if _, exists := fileFormats[f.Name()]; exists {
		return errors.New(errors.ErrCodeInvalidInput, "file format %q is already registered", f.Name())
	}
	fileFormats[f.Name()] = f
	return nil
}

// LookupFileFormat returns the format registered under name.
func LookupFileFormat(name string) (FileFormat, bool) {
	fileFormatsMu.RLock()
	defer fileFormatsMu.RUnlock()
	f, ok := fileFormats[name]
	return f, ok
}

func init() {
	fileFormats[TextFormat{}.Name()] = TextFormat{}
	fileFormats[JSONFormat{}.Name()] = JSONFormat{}
}

// TextFormat stores a string payload as a UTF-8 text file.
type TextFormat struct{}

func (TextFormat) Name() string { return "text" }
func (TextFormat) Ext() string  { return ".txt" }

func (TextFormat) Save(path string, data any) error {
	s, ok := data.(string)
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "text format requires a string payload, got %T", data)
	}
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeStorageIO, err, "write %s", path)
	}
	return nil
}

func (TextFormat) Load(path string) (any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageIO, err, "read %s", path)
	}
	return string(b), nil
}

// JSONFormat stores an arbitrary JSON-serializable payload.
type JSONFormat struct{}

func (JSONFormat) Name() string { return "json" }
func (JSONFormat) Ext() string  { return ".json" }

func (JSONFormat) Save(path string, data any) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPayload, err, "marshal payload for %s", path)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeStorageIO, err, "write %s", path)
	}
	return nil
}

func (JSONFormat) Load(path string) (any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageIO, err, "read %s", path)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "parse %s", path)
	}
	return v, nil
}

// FileParam is a leaf node whose payload lives in its own side file. Only
// the descriptor (path and format name) enters commit snapshots; the file's
// bytes are read and written outside the commit boundary, so the two cannot
// be made consistent under partial failure.
type FileParam struct {
	Base
	path   string
	format FileFormat
}

// NewFileParam creates a file-backed leaf. An empty path gets a generated
// name ("param-<uuid><ext>") in the working directory.
func NewFileParam(path string, format FileFormat) *FileParam {
	if path == "" {
		path = "param-" + uuid.NewString() + format.Ext()
	}
	f := &FileParam{path: path, format: format}
	touch(f, time.Now())
	return f
}

// Path returns the side-file path.
func (f *FileParam) Path() string { return f.path }

// Format returns the payload format.
func (f *FileParam) Format() FileFormat { return f.format }

// Data loads and returns the payload from the side file. The payload is
// materialized lazily on every call; nothing is cached.
func (f *FileParam) Data() (any, error) {
	return f.format.Load(f.path)
}

// UpdateData writes the payload to the side file and updates the node's own
// timestamp.
func (f *FileParam) UpdateData(data any) error {
	if err := f.format.Save(f.path, data); err != nil {
		return err
	}
	touch(f, time.Now())
	return nil
}

// RestoreFileParam rebuilds a file leaf from a decoded descriptor. Used by
// the codec.
func RestoreFileParam(path, formatName string, own time.Time) (*FileParam, error) {
	format, ok := LookupFileFormat(formatName)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnregisteredType, "file format %q is not registered", formatName)
	}
	f := &FileParam{path: path, format: format}
	restoreTimes(f, own, nil, nil)
	return f, nil
}
