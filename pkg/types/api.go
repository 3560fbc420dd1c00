package types

import (
	"errors"
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindFetchFailed  ErrKind = iota // provider children listing failed
	ErrKindProbeFailed                 // provider has-children probe failed
	ErrKindInconsistent                // an invariant check failed (logged, not fatal)
	ErrKindInvalidRow                  // destroyed or foreign row handle (caller bug)
	ErrKindNotFound                    // missing node/provider/domain
	ErrKindUnsupported                 // operation not supported by a provider or mode
)

// String returns the short name of the kind.
func (k ErrKind) String() string {
	switch k {
	case ErrKindFetchFailed:
		return "fetch-failed"
	case ErrKindProbeFailed:
		return "probe-failed"
	case ErrKindInconsistent:
		return "inconsistent"
	case ErrKindInvalidRow:
		return "invalid-row"
	case ErrKindNotFound:
		return "not-found"
	case ErrKindUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind, so errors.Is(err, ErrNotFound) holds for any
// not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil || e == nil {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels commonly returned by implementations.
var (
	// ErrFetchFailed indicates a children listing job failed.
	ErrFetchFailed = &Error{Kind: ErrKindFetchFailed, Msg: "fetch children failed"}
	// ErrProbeFailed indicates a has-children job failed.
	ErrProbeFailed = &Error{Kind: ErrKindProbeFailed, Msg: "probe children failed"}
	// ErrInconsistent indicates the row cache detected broken bookkeeping.
	ErrInconsistent = &Error{Kind: ErrKindInconsistent, Msg: "inconsistent row state"}
	// ErrInvalidRow indicates a stale or foreign row handle.
	ErrInvalidRow = &Error{Kind: ErrKindInvalidRow, Msg: "invalid row"}
	// ErrNotFound indicates a missing node, provider or domain.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "not found"}
	// ErrUnsupported indicates an operation the provider or view mode cannot serve.
	ErrUnsupported = &Error{Kind: ErrKindUnsupported, Msg: "unsupported"}
)

// Wrap builds a typed error around cause.
func Wrap(kind ErrKind, msg string, cause error) error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// IsKind reports whether err carries a typed error of the given kind anywhere
// in its chain.
func IsKind(err error, kind ErrKind) bool {
	var te *Error
	for err != nil {
		if errors.As(err, &te) {
			if te.Kind == kind {
				return true
			}
			err = te.Err
			continue
		}
		return false
	}
	return false
}

// -----------------------------------------------------------------------------
// Node identity
// -----------------------------------------------------------------------------

// Key is the comparable identity of a node: the provider domain plus the
// location inside that domain (e.g. {"file", "/etc/nginx"}).
type Key struct {
	Domain   string
	Location string
}

func (k Key) String() string { return k.Domain + ":" + k.Location }

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool { return k.Domain == "" && k.Location == "" }

// TypeMask selects node types. A node reports exactly one bit; views filter
// children with a mask of accepted bits.
type TypeMask uint8

const (
	TypeContainer TypeMask = 1 << iota // can have children (directories)
	TypeItem                           // leaf content (files)
	TypeLink                           // symbolic links and shortcuts
	TypeOther                          // devices, sockets, ...

	TypeAll = TypeContainer | TypeItem | TypeLink | TypeOther
)

// Has reports whether any bit of o is set in m.
func (m TypeMask) Has(o TypeMask) bool { return m&o != 0 }

func (m TypeMask) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for _, b := range []struct {
		bit  TypeMask
		name string
	}{
		{TypeContainer, "container"},
		{TypeItem, "item"},
		{TypeLink, "link"},
		{TypeOther, "other"},
	} {
		if m&b.bit != 0 {
			parts = append(parts, b.name)
		}
	}
	return strings.Join(parts, "|")
}

// Node is an externally owned content entry. The cache never owns nodes; it
// only holds references to them while rows represent them.
type Node interface {
	Key() Key
	Name() string
	Type() TypeMask
}

// Retainer is implemented by reference-counted nodes. The node index calls
// Retain when a node gains its first row and Release when it loses the last.
type Retainer interface {
	Retain()
	Release()
}

// Hider is implemented by nodes whose hidden status is not derived from the
// dotted-name convention (e.g. the Windows hidden attribute).
type Hider interface {
	Hidden() bool
}

// SameNode reports whether a and b denote the same entity.
func SameNode(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// IsHidden reports whether n is hidden: dotted name or provider attribute.
func IsHidden(n Node) bool {
	if n == nil {
		return false
	}
	if h, ok := n.(Hider); ok && h.Hidden() {
		return true
	}
	return strings.HasPrefix(n.Name(), ".")
}

// BasicNode is a plain Node value for providers that need no extra metadata.
type BasicNode struct {
	K    Key
	N    string
	T    TypeMask
	Hide bool
}

func (b *BasicNode) Key() Key { return b.K }

func (b *BasicNode) Name() string { return b.N }

func (b *BasicNode) Type() TypeMask { return b.T }

func (b *BasicNode) Hidden() bool { return b.Hide }

func (b *BasicNode) String() string { return b.K.String() }

// -----------------------------------------------------------------------------
// View vocabulary
// -----------------------------------------------------------------------------

// Mode selects how a view lays out its rows.
type Mode int

const (
	ModeTree Mode = iota // forest of independently ordered roots
	ModeList             // flat sequence of the children of one location
)

func (m Mode) String() string {
	if m == ModeList {
		return "list"
	}
	return "tree"
}

// ExpandState is the children materialization state of a tree row.
type ExpandState int

const (
	ExpandUnknown ExpandState = iota // children existence not probed; carries a placeholder
	ExpandNone                       // probed, no children; no placeholder, no expander
	ExpandNever                      // has children, never fetched; carries a placeholder
	ExpandPending                    // a fetch job is in flight
	ExpandPartial                    // minitree: some children materialized
	ExpandFull                       // all children materialized
)

func (s ExpandState) String() string {
	switch s {
	case ExpandUnknown:
		return "unknown"
	case ExpandNone:
		return "none"
	case ExpandNever:
		return "never"
	case ExpandPending:
		return "pending"
	case ExpandPartial:
		return "partial"
	case ExpandFull:
		return "full"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// HasPlaceholder reports whether rows in this state carry a placeholder child.
func (s ExpandState) HasPlaceholder() bool {
	return s == ExpandUnknown || s == ExpandNever
}

// Materialized reports whether rows in this state hold real children.
func (s ExpandState) Materialized() bool {
	return s == ExpandPartial || s == ExpandFull
}

// SyncPolicy is the fidelity with which a tree follows its companion list.
type SyncPolicy int

const (
	SyncNone                SyncPolicy = iota // ignore the companion
	SyncExistingAccessible                    // select an existing, visible row only
	SyncExistingExpandable                    // also expand collapsed ancestors of an existing row
	SyncExpandableWithFetch                   // also fetch missing levels below an existing ancestor
	SyncFull                                  // also add a new root when nothing is related
)

var syncPolicyNames = []string{
	SyncNone:                "none",
	SyncExistingAccessible:  "existing-accessible",
	SyncExistingExpandable:  "existing-expandable",
	SyncExpandableWithFetch: "expandable-with-fetch",
	SyncFull:                "full",
}

func (p SyncPolicy) String() string {
	if int(p) >= 0 && int(p) < len(syncPolicyNames) {
		return syncPolicyNames[p]
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParseSyncPolicy parses the names produced by SyncPolicy.String.
func ParseSyncPolicy(s string) (SyncPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range syncPolicyNames {
		if s == name {
			return SyncPolicy(i), nil
		}
	}
	return SyncNone, fmt.Errorf("unknown sync policy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p SyncPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *SyncPolicy) UnmarshalText(b []byte) error {
	v, err := ParseSyncPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// RemoveMode controls what a row removal keeps for later re-materialization.
type RemoveMode int

const (
	// RemovePlain keeps retained visuals and lets the parent fall back to a
	// restorable state.
	RemovePlain RemoveMode = iota
	// RemoveNodeDeleted discards retained visuals; the node is gone for good.
	RemoveNodeDeleted
	// RemovePlainKeepFull behaves like RemovePlain but never downgrades the
	// parent's Full state (the parent listing is still authoritative).
	RemovePlainKeepFull
)

func (m RemoveMode) String() string {
	switch m {
	case RemoveNodeDeleted:
		return "node-deleted"
	case RemovePlainKeepFull:
		return "plain-keep-full"
	default:
		return "plain"
	}
}

// Visuals are per-row overrides that take precedence over node-derived
// values. Empty fields mean "not overridden".
type Visuals struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Icon      string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Group     string `json:"group,omitempty" yaml:"group,omitempty"`
	Highlight string `json:"highlight,omitempty" yaml:"highlight,omitempty"`
	ClickMode string `json:"click_mode,omitempty" yaml:"click_mode,omitempty"`
}

// IsZero reports whether no override is set.
func (v Visuals) IsZero() bool { return v == Visuals{} }

// Merge returns v with every empty field filled from o.
func (v Visuals) Merge(o Visuals) Visuals {
	if v.Name == "" {
		v.Name = o.Name
	}
	if v.Icon == "" {
		v.Icon = o.Icon
	}
	if v.Group == "" {
		v.Group = o.Group
	}
	if v.Highlight == "" {
		v.Highlight = o.Highlight
	}
	if v.ClickMode == "" {
		v.ClickMode = o.ClickMode
	}
	return v
}
