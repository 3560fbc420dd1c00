package types

import "fmt"

// EventKind enumerates provider change notifications.
type EventKind int

const (
	EventUpdated          EventKind = iota // a node property changed
	EventDeleted                           // the node no longer exists anywhere
	EventRemovedFrom                       // the node left one parent (moved or unlinked)
	EventNewChild                          // a child appeared under Parent
	EventChildrenReplaced                  // the full child list of Parent changed
)

func (k EventKind) String() string {
	switch k {
	case EventUpdated:
		return "updated"
	case EventDeleted:
		return "deleted"
	case EventRemovedFrom:
		return "removed-from"
	case EventNewChild:
		return "new-child"
	case EventChildrenReplaced:
		return "children-replaced"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is a provider change notification. Which fields are set depends on
// Kind:
//   - EventUpdated: Node, Property
//   - EventDeleted: Node
//   - EventRemovedFrom: Node, Parent
//   - EventNewChild: Parent, Node (the child)
//   - EventChildrenReplaced: Parent, Mask, Children
type Event struct {
	Kind     EventKind
	Node     Node
	Parent   Node
	Property string
	Mask     TypeMask
	Children []Node
}

// Updated builds an EventUpdated.
func Updated(n Node, property string) Event {
	return Event{Kind: EventUpdated, Node: n, Property: property}
}

// Deleted builds an EventDeleted.
func Deleted(n Node) Event {
	return Event{Kind: EventDeleted, Node: n}
}

// RemovedFrom builds an EventRemovedFrom.
func RemovedFrom(n, parent Node) Event {
	return Event{Kind: EventRemovedFrom, Node: n, Parent: parent}
}

// NewChild builds an EventNewChild.
func NewChild(parent, child Node) Event {
	return Event{Kind: EventNewChild, Parent: parent, Node: child}
}

// ChildrenReplaced builds an EventChildrenReplaced.
func ChildrenReplaced(parent Node, mask TypeMask, children []Node) Event {
	return Event{Kind: EventChildrenReplaced, Parent: parent, Mask: mask, Children: children}
}
