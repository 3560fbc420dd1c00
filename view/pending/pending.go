// Package pending tracks outstanding provider jobs per row.
//
// A continuation may touch its row only if Take succeeds: the entry is still
// registered under the same row and job id. Removing a row drops its entries
// first, which turns every queued continuation for it into a no-op.
package pending

import (
	"fmt"

	"github.com/joshuapare/dualview/view/rowstore"
)

// JobID identifies one submitted job. IDs are never reused by a Registry.
type JobID uint64

// Kind says what a job is for.
type Kind int

const (
	KindFetch   Kind = iota // children fetch for an expand
	KindProbe               // has-children probe
	KindSync                // path materialization step of a sync
	KindRefresh             // re-fetch of a materialized row
	KindList                // list view location listing
)

func (k Kind) String() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindProbe:
		return "probe"
	case KindSync:
		return "sync"
	case KindRefresh:
		return "refresh"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entry is one registered job.
type Entry struct {
	ID   JobID
	Row  rowstore.Handle
	Kind Kind
}

// Registry is the set of (row, job) pairs of one view. Not safe for
// concurrent use.
type Registry struct {
	next  JobID
	byID  map[JobID]Entry
	byRow map[rowstore.Handle][]JobID
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byID:  make(map[JobID]Entry),
		byRow: make(map[rowstore.Handle][]JobID),
	}
}

// Add registers a job of kind for row and returns its id.
func (r *Registry) Add(row rowstore.Handle, kind Kind) JobID {
	r.next++
	id := r.next
	r.byID[id] = Entry{ID: id, Row: row, Kind: kind}
	r.byRow[row] = append(r.byRow[row], id)
	return id
}

// Take removes the (row, id) pair and reports whether it was registered.
func (r *Registry) Take(row rowstore.Handle, id JobID) bool {
	e, ok := r.byID[id]
	if !ok || e.Row != row {
		return false
	}
	r.remove(e)
	return true
}

// Forget drops job id regardless of its row.
func (r *Registry) Forget(id JobID) bool {
	e, ok := r.byID[id]
	if !ok {
		return false
	}
	r.remove(e)
	return true
}

func (r *Registry) remove(e Entry) {
	delete(r.byID, e.ID)
	ids := r.byRow[e.Row]
	for i, id := range ids {
		if id == e.ID {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(r.byRow, e.Row)
	} else {
		r.byRow[e.Row] = ids
	}
}

// Has reports whether row has any job registered.
func (r *Registry) Has(row rowstore.Handle) bool {
	return len(r.byRow[row]) > 0
}

// HasKind reports whether row has a job of kind registered.
func (r *Registry) HasKind(row rowstore.Handle, kind Kind) bool {
	for _, id := range r.byRow[row] {
		if r.byID[id].Kind == kind {
			return true
		}
	}
	return false
}

// Registered reports whether id is still registered.
func (r *Registry) Registered(id JobID) bool {
	_, ok := r.byID[id]
	return ok
}

// DropRow removes every job of row and returns how many there were.
func (r *Registry) DropRow(row rowstore.Handle) int {
	ids := r.byRow[row]
	for _, id := range ids {
		delete(r.byID, id)
	}
	delete(r.byRow, row)
	return len(ids)
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int { return len(r.byID) }

// Entries returns a copy of the registered jobs in id order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.byID))
	for id := JobID(1); id <= r.next && len(out) < len(r.byID); id++ {
		if e, ok := r.byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}
