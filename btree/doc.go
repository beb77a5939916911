// Package btree provides the linear B+-tree engines: a generic variant keyed
// by any totally ordered type, an int64-keyed variant with tighter key
// storage, and a readers/writer-locked wrapper over the latter. All variants
// keep values on leaf nodes chained in key order, so range scans and
// whole-tree walks never re-descend from the root.
package btree
