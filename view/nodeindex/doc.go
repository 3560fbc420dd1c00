// Package nodeindex maps node identities to the rows that currently show them.
//
// # Overview
//
// A tree view may show the same node several times: once under each root
// whose subtree contains it, and again wherever a sync operation
// materialized a path. The index is therefore set-valued:
//
//	Key -> []rowstore.Handle   (insertion order, not display order)
//
// Every row creation and removal in a view goes through Bind and Unbind.
// No component may assume a node has at most one row.
//
// # Reference counting
//
// Nodes are externally owned. When a node gains its first row the index
// calls Retain on it (if it implements types.Retainer); when the last row
// is unbound it calls Release and forgets the node. The index keeps the node
// value that was bound first; later Binds of an equal node reuse it.
//
// # Parent lookup
//
// ChildRowUnder answers "does this node already have a row directly under
// this parent?" by scanning the node's row set and asking a Parenter for
// each row's parent. Views call it before inserting a child to keep the
// no-duplicate-siblings guarantee:
//
//	if _, ok := idx.ChildRowUnder(parent, n.Key(), store); !ok {
//	    row := store.Insert(parent, -1, ...)
//	    idx.Bind(n, row)
//	}
//
// # Single mode
//
// An index created with NewSingle (list views) holds at most one row per
// node. Bind of a second row for a bound node is rejected and reported so
// the caller can flag the inconsistency.
//
// # Thread Safety
//
// Index is not safe for concurrent use. It is owned by the view and only
// touched from the UI goroutine.
package nodeindex
