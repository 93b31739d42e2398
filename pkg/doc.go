// Package pkg provides the core libraries of paramdb, a versioned store
// for hierarchical parameter trees.
//
// # Overview
//
// paramdb keeps laboratory and application parameters in a tree of typed
// nodes, snapshots the whole tree on every commit, and lets any past
// commit be loaded back exactly as written. The pkg directory is organized
// into these areas:
//
//  1. [param] - The parameter model (records, lists, dicts, file leaves,
//     timestamp propagation, type registry)
//  2. [codec] - Canonical JSON encoding with type tags plus Zstandard
//     compression
//  3. [store] - The append-only commit log over pluggable backends
//     (file, Redis, MongoDB)
//  4. [cache] - Snapshot caching for reads
//  5. [render] - DOT/SVG diagrams of committed trees
//  6. [observability] - Hooks for metrics and tracing
//  7. [errors] - Structured errors with machine-readable codes
//
// # Architecture
//
// The typical data flow through paramdb:
//
//	param tree (records, lists, dicts)
//	         ↓
//	    [codec] package (canonical JSON + compression)
//	         ↓
//	    [store] package (append-only commit rows)
//	         ↓
//	    file directory / Redis / MongoDB
//
// Loads run the same path in reverse, optionally through [cache].
//
// # Quick Start
//
// Declare a type, build a tree, and commit it:
//
//	rt := param.MustRecordType("Root", param.Field("value", param.KindFloat))
//	root, err := rt.New(map[string]any{"value": 1.23})
//	if err != nil {
//	    return err
//	}
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
// [param]: github.com/PainterQubits/paramdb/pkg/param
// [codec]: github.com/PainterQubits/paramdb/pkg/codec
// [store]: github.com/PainterQubits/paramdb/pkg/store
// [cache]: github.com/PainterQubits/paramdb/pkg/cache
// [render]: github.com/PainterQubits/paramdb/pkg/render
// [observability]: github.com/PainterQubits/paramdb/pkg/observability
// [errors]: github.com/PainterQubits/paramdb/pkg/errors
package pkg
