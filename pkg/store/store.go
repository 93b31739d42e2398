// Package store implements an append-only, versioned commit log for
// parameter trees.
//
// A Store wraps a Backend (file, Redis, or MongoDB) and a codec. Each
// commit snapshots a whole tree: the tree is encoded to canonical JSON,
// compressed, and appended as a new row with a monotonically increasing id
// starting at 1. Committed snapshots are never modified.
//
// # Usage
//
// Open a store over a directory and commit a tree:
//
//	backend, err := store.NewFileBackend("./params")
//	if err != nil {
//	    return err
//	}
//	db := store.New(backend)
//	defer db.Dispose()
//
//	entry, err := db.Commit(ctx, "Initial commit", root)
//
// Load the latest snapshot back:
//
//	root, entry, err := db.Load(ctx, store.Latest)
package store

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/PainterQubits/paramdb/pkg/cache"
	"github.com/PainterQubits/paramdb/pkg/codec"
	"github.com/PainterQubits/paramdb/pkg/errors"
	"github.com/PainterQubits/paramdb/pkg/observability"
	"github.com/PainterQubits/paramdb/pkg/param"
)

// Latest selects the most recent commit in load operations.
const Latest int64 = 0

// CommitEntry describes one commit without its snapshot.
type CommitEntry struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (e CommitEntry) String() string {
	return fmt.Sprintf("commit %d (%s) %s", e.ID, e.Timestamp.Format(time.RFC3339), e.Message)
}

// CommitEntryWithData is a CommitEntry plus its decoded snapshot.
type CommitEntryWithData struct {
	CommitEntry
	Data param.Node
}

// Store is an append-only commit log of parameter trees.
//
// A Store is safe for concurrent use by multiple goroutines, but the
// underlying backends assume a single writing process.
type Store struct {
	backend Backend
	codec   *codec.Codec
	cache   cache.Cache
	logger  *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug output. The default discards
// all output.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache sets the snapshot cache consulted on loads. The default is no
// caching.
func WithCache(c cache.Cache) Option {
	return func(s *Store) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithCodec sets the codec used to encode and decode snapshots. The
// default codec resolves type tags against param.DefaultRegistry.
func WithCodec(c *codec.Codec) Option {
	return func(s *Store) {
		if c != nil {
			s.codec = c
		}
	}
}

// New creates a Store over a backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		codec:   codec.New(nil),
		cache:   cache.NewNullCache(),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Commit encodes root and appends it as a new commit stamped with the
// current time. It returns the new commit's entry.
func (s *Store) Commit(ctx context.Context, message string, root param.Node) (CommitEntry, error) {
	return s.CommitAt(ctx, message, root, time.Now())
}

// CommitAt is Commit with an explicit commit timestamp.
func (s *Store) CommitAt(ctx context.Context, message string, root param.Node, ts time.Time) (CommitEntry, error) {
	start := time.Now()
	entry, size, err := s.commit(ctx, message, root, ts)
	observability.Store().OnCommit(ctx, entry.ID, size, time.Since(start), err)
	return entry, err
}

func (s *Store) commit(ctx context.Context, message string, root param.Node, ts time.Time) (CommitEntry, int, error) {
	if root == nil {
		return CommitEntry{}, 0, errors.New(errors.ErrCodeInvalidInput, "cannot commit a nil tree")
	}
	data, err := s.codec.Encode(root)
	if err != nil {
		return CommitEntry{}, 0, err
	}
	row, err := s.backend.Append(ctx, message, ts, data)
	if err != nil {
		return CommitEntry{}, len(data), err
	}
	s.logger.Debug("committed snapshot",
		"id", row.ID, "message", message, "bytes", len(data))
	if err := s.cache.Set(ctx, snapshotKey(row.ID), data); err == nil {
		observability.Cache().OnCacheSet(ctx, snapshotKey(row.ID), len(data))
	}
	return CommitEntry{ID: row.ID, Message: row.Message, Timestamp: row.Timestamp}, len(data), nil
}

// Load returns the decoded tree of the given commit. Pass Latest (or any
// non-positive id) for the most recent commit. Each call decodes a fresh
// tree; mutations to a loaded tree never affect the store or other loads.
func (s *Store) Load(ctx context.Context, id int64) (param.Node, CommitEntry, error) {
	start := time.Now()
	entry, data, err := s.loadRow(ctx, id)
	if err != nil {
		observability.Store().OnLoad(ctx, 0, time.Since(start), err)
		return nil, CommitEntry{}, err
	}
	root, err := s.codec.Decode(data)
	observability.Store().OnLoad(ctx, entry.ID, time.Since(start), err)
	if err != nil {
		return nil, CommitEntry{}, err
	}
	return root, entry, nil
}

// LoadRaw returns the snapshot of the given commit as plain maps, slices,
// and primitives with type tags left in place, ignoring the type registry.
// Useful for inspecting commits whose types are no longer declared.
func (s *Store) LoadRaw(ctx context.Context, id int64) (any, CommitEntry, error) {
	start := time.Now()
	entry, data, err := s.loadRow(ctx, id)
	if err != nil {
		observability.Store().OnLoad(ctx, 0, time.Since(start), err)
		return nil, CommitEntry{}, err
	}
	doc, err := s.codec.DecodeRaw(data)
	observability.Store().OnLoad(ctx, entry.ID, time.Since(start), err)
	if err != nil {
		return nil, CommitEntry{}, err
	}
	return doc, entry, nil
}

// RawJSON returns the canonical JSON of the given commit, decompressed but
// otherwise untouched.
func (s *Store) RawJSON(ctx context.Context, id int64) ([]byte, CommitEntry, error) {
	entry, data, err := s.loadRow(ctx, id)
	if err != nil {
		return nil, CommitEntry{}, err
	}
	raw, err := s.codec.RawJSON(data)
	if err != nil {
		return nil, CommitEntry{}, err
	}
	return raw, entry, nil
}

// LoadCommitEntry returns the entry of the given commit without touching
// its snapshot. Pass Latest for the most recent commit.
func (s *Store) LoadCommitEntry(ctx context.Context, id int64) (CommitEntry, error) {
	var (
		row Row
		err error
	)
	if id <= 0 {
		row, err = s.backend.Latest(ctx, false)
	} else {
		row, err = s.backend.Get(ctx, id, false)
	}
	if err != nil {
		return CommitEntry{}, err
	}
	return CommitEntry{ID: row.ID, Message: row.Message, Timestamp: row.Timestamp}, nil
}

// NumCommits returns the number of commits in the store.
func (s *Store) NumCommits(ctx context.Context) (int64, error) {
	return s.backend.Count(ctx)
}

// CommitHistory returns commit entries in ascending id order, selected by
// list-slice semantics: start is inclusive, end exclusive, both counted
// from zero, negative values count from the end, and nil means unbounded.
// CommitHistory(nil, nil) returns the full history. Out-of-range slices
// clamp rather than fail.
func (s *Store) CommitHistory(ctx context.Context, start, end *int) ([]CommitEntry, error) {
	began := time.Now()
	rows, err := s.history(ctx, start, end, false)
	observability.Store().OnHistory(ctx, len(rows), false, time.Since(began), err)
	if err != nil {
		return nil, err
	}
	entries := make([]CommitEntry, len(rows))
	for i, row := range rows {
		entries[i] = CommitEntry{ID: row.ID, Message: row.Message, Timestamp: row.Timestamp}
	}
	return entries, nil
}

// CommitHistoryWithData is CommitHistory with each entry's snapshot
// decoded. Slices covering many commits decode every one of them; prefer
// CommitHistory when the snapshots are not needed.
func (s *Store) CommitHistoryWithData(ctx context.Context, start, end *int) ([]CommitEntryWithData, error) {
	began := time.Now()
	rows, err := s.history(ctx, start, end, true)
	observability.Store().OnHistory(ctx, len(rows), true, time.Since(began), err)
	if err != nil {
		return nil, err
	}
	entries := make([]CommitEntryWithData, len(rows))
	for i, row := range rows {
		root, err := s.codec.Decode(row.Data)
		if err != nil {
			return nil, err
		}
		entries[i] = CommitEntryWithData{
			CommitEntry: CommitEntry{ID: row.ID, Message: row.Message, Timestamp: row.Timestamp},
			Data:        root,
		}
	}
	return entries, nil
}

func (s *Store) history(ctx context.Context, start, end *int, withData bool) ([]Row, error) {
	count, err := s.backend.Count(ctx)
	if err != nil {
		return nil, err
	}
	offset, limit := sliceBounds(start, end, count)
	if limit <= 0 {
		return nil, nil
	}
	return s.backend.Range(ctx, offset, limit, withData)
}

// Dispose releases the store's resources: the backend connection or file
// handles and the snapshot cache. The store is unusable afterwards.
func (s *Store) Dispose() error {
	cerr := s.cache.Close()
	berr := s.backend.Close()
	if berr != nil {
		return berr
	}
	return cerr
}

// loadRow fetches a commit row with its payload, consulting the snapshot
// cache first. Non-positive ids resolve to the latest commit.
func (s *Store) loadRow(ctx context.Context, id int64) (CommitEntry, []byte, error) {
	if id <= 0 {
		row, err := s.backend.Latest(ctx, true)
		if err != nil {
			return CommitEntry{}, nil, err
		}
		return CommitEntry{ID: row.ID, Message: row.Message, Timestamp: row.Timestamp}, row.Data, nil
	}

	key := snapshotKey(id)
	if data, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, key)
		entry, err := s.LoadCommitEntry(ctx, id)
		if err != nil {
			return CommitEntry{}, nil, err
		}
		return entry, data, nil
	}
	observability.Cache().OnCacheMiss(ctx, key)

	row, err := s.backend.Get(ctx, id, true)
	if err != nil {
		return CommitEntry{}, nil, err
	}
	if err := s.cache.Set(ctx, key, row.Data); err == nil {
		observability.Cache().OnCacheSet(ctx, key, len(row.Data))
	}
	return CommitEntry{ID: row.ID, Message: row.Message, Timestamp: row.Timestamp}, row.Data, nil
}

func snapshotKey(id int64) string {
	return fmt.Sprintf("snapshot:%d", id)
}

// sliceBounds converts a list-slice selection over n rows into an
// offset/limit pair. Negative indices count from the end; out-of-range
// values clamp to [0, n].
func sliceBounds(start, end *int, n int64) (offset, limit int64) {
	lo := int64(0)
	hi := n
	if start != nil {
		lo = int64(*start)
		if lo < 0 {
			lo += n
		}
	}
	if end != nil {
		hi = int64(*end)
		if hi < 0 {
			hi += n
		}
	}
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if hi <= lo {
		return lo, 0
	}
	return lo, hi - lo
}
