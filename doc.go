// Package trix provides shared types and helpers for the trix in-memory tree
// index library: UUIDs, error codes, logging configuration, a retry helper, and
// a bounded task runner for parallel traversals. The index engines live in
// subpackages: btree holds the linear B+-tree variants (generic key, int64 key,
// and a thread-safe wrapper), rtree holds the spatial R-tree.
//
// All trees are self-contained in-process structures. Nothing in this module
// persists, replicates, or serves data; values are owned by the caller and the
// trees store handles only.
package trix
