// Package types defines the shared vocabulary of the dualview row cache:
// node identity, type masks, expansion states, sync policies, removal modes,
// per-row visual overrides, provider events and typed errors.
//
// Design goals:
//   - Nodes are external. The cache identifies them by Key and never owns them.
//   - Small comparable values (Key, TypeMask, ExpandState) instead of object graphs.
//   - Typed errors with stable categories (fetch/probe/inconsistent/invalid-row/...).
//
// This package has no dependencies beyond the standard library.
package types
