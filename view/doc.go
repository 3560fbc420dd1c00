// Package view is the lazily populated row cache behind a tree or list
// widget, together with the engine that keeps a tree's selection in step with
// a companion list's location.
//
// # Overview
//
// A View maps nodes from one or more providers to rows:
//
//	provider jobs -> View (expand / reconcile / remove) -> rowstore + nodeindex
//	                     ^                                      |
//	companion list ------+ (Follow)                  renderer reads Rows()
//
// Tree views hold a forest of independently ordered roots. Each row carries
// an ExpandState:
//
//	Unknown -> Never | None | Pending -> Partial | Full
//
// Rows in Unknown or Never carry exactly one placeholder child (a row
// without a node) so the renderer can draw an expander before children are
// known. List views hold a flat sequence of the children of one location.
//
// # Threading
//
// Every exported method must be called on the goroutine that drains the
// view's loop. Provider calls run through the configured loop.Runner and their
// continuations are posted back, so the row store, node index, root list and
// pending registry are only ever touched from that goroutine.
//
// # Invalidation
//
// A continuation captures the row handle and the job id it was submitted
// for. It applies its result only if the pending registry still holds that
// pair and the handle's generation is still live. Removing a row drops its
// registry entries before the row is destroyed, so late results are
// discarded without touching any other row.
//
// # Sync
//
// A tree follows a location (usually a companion list's) according to its
// SyncPolicy. Every resolution carries a token; a newer location abandons the
// older resolution, forgetting its jobs and cancelling their context. When
// several rows could serve as target or anchor, the preference is: a row
// under the root holding the current selection, then an accessible row, then
// the row under the first root in root order.
//
// # Errors
//
// Provider failures never surface as return values. The view reverts the
// affected row to a safe state and calls its Reporter with a typed error
// (types.ErrKindFetchFailed, ErrKindProbeFailed, ErrKindInconsistent).
// Invalid row handles passed by callers are programming errors: with the
// dvdebug build tag they panic, otherwise they are logged and ignored.
package view
