// Package param implements the entity graph model of the parameter store.
//
// Every trackable value is a Node: it records the time of its own last
// mutation, per-slot timestamps for non-node children, and a single parent
// link. Writes propagate an updated aggregate timestamp up the parent chain,
// so [LastUpdated] is O(1) on reads and O(depth) on writes.
//
// The concrete node types are:
//   - [Record]: fixed-shape named-field node, declared via [NewRecordType]
//   - [List]: ordered, index-addressable container
//   - [Dict]: string-keyed, insertion-ordered container
//   - [FileParam]: leaf whose payload lives in its own side file
//
// # Ownership
//
// A node has at most one parent at any instant. Assigning a node into a new
// container overwrites its previous parent (last assignment wins); the former
// owner is left holding a now-stale reference. The model does not detect
// cycles at attach time, but [RootOf] fails instead of diverging if one exists.
//
// # Type registry
//
// Declaring a record type registers it by name, either in [DefaultRegistry]
// (via [NewRecordType]) or in an explicit [Registry] (via [Registry.Declare]).
// Registries are append-only and are consulted by the codec when decoding
// type tags.
package param
