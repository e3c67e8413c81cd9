package state

import apperrors "github.com/ironsightlabs/spectator/internal/platform/errors"

// List is an ordered collection of Nodes of a single kind. Key-field
// uniqueness is expected but not enforced on insert; lookups return the
// first hit.
type List struct {
	kind   Kind
	root   *Snapshot
	items  []*Node
	frozen bool
}

// NewList creates a collection for nodes of the given kind.
func NewList(kind Kind, items ...*Node) (*List, error) {
	l := &List{kind: kind}
	for _, item := range items {
		if err := l.Add(item); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Kind returns the kind of node this collection holds.
func (l *List) Kind() Kind { return l.kind }

// Len returns the number of items.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// At returns the item at index i.
func (l *List) At(i int) *Node { return l.items[i] }

// Items returns a copy of the backing slice.
func (l *List) Items() []*Node {
	out := make([]*Node, len(l.items))
	copy(out, l.items)
	return out
}

// Add appends item. It rejects nodes of the wrong kind and any
// mutation once the owning snapshot is frozen.
func (l *List) Add(item *Node) error {
	if item == nil || item.schema.Kind != l.kind {
		return apperrors.WithMetadata(apperrors.CodeStateWrongItemKind,
			"collection only accepts nodes of its own kind",
			map[string]string{"Want": string(l.kind), "Got": string(kindOf(item))})
	}
	if l.frozen || (l.root != nil && !l.root.IsMutable()) {
		return ErrImmutable
	}
	l.items = append(l.items, item)
	return nil
}

// Find returns the first item matching all filters, or nil.
func (l *List) Find(filters Fields) *Node {
	return l.find(filters, false)
}

// FindAll returns every item matching all filters.
func (l *List) FindAll(filters Fields) *List {
	if l == nil {
		return &List{}
	}
	out := &List{kind: l.kind, root: l.root}
	for _, item := range l.items {
		if item.Matches(filters, false) {
			out.items = append(out.items, item)
		}
	}
	return out
}

// find mirrors Find but can skip filter keys the candidate has never
// observed, which is how merge and diff match partially-known records.
func (l *List) find(filters Fields, ignoreUnknown bool) *Node {
	if l == nil {
		return nil
	}
	for _, item := range l.items {
		if item.Matches(filters, ignoreUnknown) {
			return item
		}
	}
	return nil
}

func kindOf(n *Node) Kind {
	if n == nil {
		return ""
	}
	return n.schema.Kind
}

// findIn matches filters against a plain slice of nodes. The diff
// engine uses it on its mutable working copies.
func findIn(items []*Node, filters Fields, ignoreUnknown bool) (int, *Node) {
	for i, item := range items {
		if item.Matches(filters, ignoreUnknown) {
			return i, item
		}
	}
	return -1, nil
}
