package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PainterQubits/paramdb/pkg/errors"
)

// FileBackend stores commit rows as files in a directory: one metadata JSON
// file and one compressed payload file per commit. The payload is written
// and fsynced first; the metadata file is renamed into place last, so its
// presence is what makes a commit visible. A torn append leaves at most an
// orphaned payload file, which is ignored.
type FileBackend struct {
	mu     sync.Mutex
	dir    string
	ids    []int64 // ascending
	closed bool
}

const (
	metaExt    = ".json"
	payloadExt = ".zst"
)

// fileMeta is the persisted per-commit metadata.
type fileMeta struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewFileBackend opens (creating if needed) a commit directory.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageIO, err, "create store directory %s", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageIO, err, "read store directory %s", dir)
	}
	var ids []int64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, metaExt) {
			continue
		}
		var id int64
		if _, err := fmt.Sscanf(strings.TrimSuffix(name, metaExt), "%d", &id); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &FileBackend{dir: dir, ids: ids}, nil
}

// Path returns the directory holding the store.
func (b *FileBackend) Path() string { return b.dir }

// Append implements [Backend].
func (b *FileBackend) Append(ctx context.Context, message string, ts time.Time, data []byte) (Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return Row{}, errClosed()
	}

	id := int64(1)
	if n := len(b.ids); n > 0 {
		id = b.ids[n-1] + 1
	}
	ts = ts.UTC()

	if err := safeWrite(b.payloadPath(id), data); err != nil {
		return Row{}, err
	}
	meta, err := json.Marshal(fileMeta{ID: id, Message: message, Timestamp: ts})
	if err != nil {
		return Row{}, errors.Wrap(errors.ErrCodeInternal, err, "marshal commit metadata")
	}
	if err := safeWrite(b.metaPath(id), meta); err != nil {
		// The orphaned payload file is harmless; the commit never became
		// visible.
		_ = os.Remove(b.payloadPath(id))
		return Row{}, err
	}

	b.ids = append(b.ids, id)
	return Row{ID: id, Message: message, Timestamp: ts}, nil
}

// Get implements [Backend].
func (b *FileBackend) Get(ctx context.Context, id int64, withData bool) (Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return Row{}, errClosed()
	}
	if !b.hasID(id) {
		return Row{}, errors.New(errors.ErrCodeCommitNotFound,
			"commit %d does not exist in store %q", id, b.dir)
	}
	return b.readRow(id, withData)
}

// Latest implements [Backend].
func (b *FileBackend) Latest(ctx context.Context, withData bool) (Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return Row{}, errClosed()
	}
	if len(b.ids) == 0 {
		return Row{}, errors.New(errors.ErrCodeCommitNotFound, "store %q has no commits", b.dir)
	}
	return b.readRow(b.ids[len(b.ids)-1], withData)
}

// Count implements [Backend].
func (b *FileBackend) Count(ctx context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, errClosed()
	}
	return int64(len(b.ids)), nil
}

// Range implements [Backend].
func (b *FileBackend) Range(ctx context.Context, offset, limit int64, withData bool) ([]Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errClosed()
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= int64(len(b.ids)) || limit <= 0 {
		return nil, nil
	}
	end := offset + limit
	if end > int64(len(b.ids)) {
		end = int64(len(b.ids))
	}
	rows := make([]Row, 0, end-offset)
	for _, id := range b.ids[offset:end] {
		row, err := b.readRow(id, withData)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Close implements [Backend]. After Close the directory can be safely
// deleted or moved.
func (b *FileBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *FileBackend) readRow(id int64, withData bool) (Row, error) {
	raw, err := os.ReadFile(b.metaPath(id))
	if err != nil {
		return Row{}, errors.Wrap(errors.ErrCodeStorageIO, err, "read metadata for commit %d", id)
	}
	var meta fileMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Row{}, errors.Wrap(errors.ErrCodeStorageIO, err, "parse metadata for commit %d", id)
	}
	row := Row{ID: meta.ID, Message: meta.Message, Timestamp: meta.Timestamp}
	if withData {
		data, err := os.ReadFile(b.payloadPath(id))
		if err != nil {
			return Row{}, errors.Wrap(errors.ErrCodeStorageIO, err, "read payload for commit %d", id)
		}
		row.Data = data
	}
	return row, nil
}

func (b *FileBackend) hasID(id int64) bool {
	i := sort.Search(len(b.ids), func(i int) bool { return b.ids[i] >= id })
	return i < len(b.ids) && b.ids[i] == id
}

func (b *FileBackend) metaPath(id int64) string {
	return filepath.Join(b.dir, fmt.Sprintf("%010d%s", id, metaExt))
}

func (b *FileBackend) payloadPath(id int64) string {
	return filepath.Join(b.dir, fmt.Sprintf("%010d%s", id, payloadExt))
}

func errClosed() error {
	return errors.New(errors.ErrCodeStorageIO, "store backend is closed")
}

// safeWrite writes data atomically: tempfile -> fsync -> rename. The
// tempfile is created in the target directory so the rename stays on one
// filesystem.
func safeWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageIO, err, "create temp file in %s", dir)
	}
	tmp := f.Name()
	cleanup := func(err error, what string) error {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeStorageIO, err, "%s %s", what, tmp)
	}
	if _, err := f.Write(data); err != nil {
		return cleanup(err, "write")
	}
	if err := f.Sync(); err != nil {
		return cleanup(err, "fsync")
	}
	if err := f.Chmod(0o644); err != nil {
		return cleanup(err, "chmod")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeStorageIO, err, "close %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeStorageIO, err, "rename %s to %s", tmp, path)
	}
	return nil
}

// Ensure FileBackend implements Backend.
var _ Backend = (*FileBackend)(nil)
