// Package provider defines the node provider contract consumed by views.
//
// A Provider is the asynchronous source of node metadata and children. Views
// never call its blocking methods on the UI goroutine: jobs run on worker
// goroutines and their results are posted back to the owning loop.
//
// Providers are looked up by domain through a Registry, so one tree may show
// roots from different sources (a local filesystem and a SQLite catalog, for
// instance). Optional behavior is advertised with Capability flags:
//
//   - CapHierarchical: Parent() is meaningful, so "go up" and ancestor
//     resolution (tree synchronization) can work.
//   - CapWatch: the provider implements Watcher and emits change events.
//
// Implementations live under provider/ (memprovider, fsprovider, sqlprovider).
package provider
