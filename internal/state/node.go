package state

import (
	"time"

	apperrors "github.com/ironsightlabs/spectator/internal/platform/errors"
)

var (
	// ErrImmutable indicates a mutation on a node under a frozen snapshot.
	ErrImmutable = apperrors.New(apperrors.CodeStateImmutable, "node is frozen; unfreeze the snapshot before mutating")
	// ErrAlreadyInTree indicates an attempt to attach a node that is already
	// reachable elsewhere in the same snapshot. Use a Link instead.
	ErrAlreadyInTree = apperrors.New(apperrors.CodeStateAlreadyInTree, "node is already part of the tree; use a link instead")
	// ErrNoKeyFields indicates the node's schema declares no key fields.
	ErrNoKeyFields = apperrors.New(apperrors.CodeStateNoKeyFields, "schema does not declare key fields")
	// ErrNoKeyValues indicates none of the node's key fields hold a value.
	ErrNoKeyValues = apperrors.New(apperrors.CodeStateNoKeyValues, "no key fields have values assigned")
)

// slot holds one field's current state. A missing or non-present slot
// means the field is unset: never observed, as opposed to observed nil.
type slot struct {
	present bool
	value   any
}

// Node is a schema-fixed record in the state graph. Fields hold
// concrete values, Links, or nothing at all. Nodes are created against
// a Snapshot and resolve their links against that snapshot for life.
type Node struct {
	schema    *Schema
	root      *Snapshot
	slots     map[string]slot
	createdAt time.Time
	frozen    bool
}

// newNode builds a node against root with the given initial fields.
func newNode(root *Snapshot, schema *Schema, fields Fields) (*Node, error) {
	n := &Node{
		schema:    schema,
		root:      root,
		slots:     make(map[string]slot, len(fields)),
		createdAt: time.Now().UTC(),
	}
	for name, value := range fields {
		if !schema.declares(name) {
			return nil, errUnknownField(schema, name)
		}
		if err := n.validateAttachable(value); err != nil {
			return nil, err
		}
		n.store(name, value)
	}
	return n, nil
}

func errUnknownField(schema *Schema, name string) error {
	return apperrors.WithMetadata(apperrors.CodeStateUnknownField,
		"field is not declared by the schema",
		map[string]string{"Kind": string(schema.Kind), "Field": name})
}

func errFieldUnset(schema *Schema, name string) error {
	return apperrors.WithMetadata(apperrors.CodeStateFieldUnset,
		"field has never been observed",
		map[string]string{"Kind": string(schema.Kind), "Field": name})
}

// Kind returns the node's entity kind.
func (n *Node) Kind() Kind { return n.schema.Kind }

// ScopePath returns the dotted path where this node's kind lives under
// a snapshot.
func (n *Node) ScopePath() string { return n.schema.ScopePath }

// CreatedAt returns the construction timestamp. It is set exactly once.
func (n *Node) CreatedAt() time.Time { return n.createdAt }

// IsMutable reports whether mutation is currently allowed. A node is
// frozen either by its own mark, stamped when a snapshot that adopted
// it froze, or by its original snapshot's flag.
func (n *Node) IsMutable() bool {
	if n.frozen {
		return false
	}
	return n.root == nil || !n.root.solid
}

// setFrozen stamps the frozen mark on this node and every node or
// collection reachable through non-link fields. Nodes adopted from
// partial snapshots during a merge keep their original root, so the
// root flag alone cannot reach them; the walk can.
func (n *Node) setFrozen(frozen bool) {
	n.frozen = frozen
	for _, name := range n.schema.Fields {
		sl, ok := n.slots[name]
		if !ok || !sl.present {
			continue
		}
		switch v := sl.value.(type) {
		case *Node:
			v.setFrozen(frozen)
		case *List:
			v.frozen = frozen
			for _, item := range v.items {
				item.setFrozen(frozen)
			}
		}
	}
}

// Has reports whether the named field is declared and has been
// observed.
func (n *Node) Has(name string) bool {
	if !n.schema.declares(name) {
		return false
	}
	return n.slots[name].present
}

// Raw returns the stored value without resolving links. The second
// return is false when the field is unset or undeclared.
func (n *Node) Raw(name string) (any, bool) {
	sl, ok := n.slots[name]
	if !ok || !sl.present {
		return nil, false
	}
	return sl.value, true
}

// Get returns the field's value with links resolved against the node's
// snapshot. The second return is false when the field is unset,
// undeclared, or a link that resolved to nothing without a fallback.
func (n *Node) Get(name string) (any, bool) {
	raw, ok := n.Raw(name)
	if !ok {
		return nil, false
	}
	if link, isLink := raw.(*Link); isLink {
		return link.resolve(n.root)
	}
	return raw, true
}

// Require is the strict accessor. It fails with a distinct error for an
// undeclared field versus a declared field that is merely unset.
func (n *Node) Require(name string) (any, error) {
	if !n.schema.declares(name) {
		return nil, errUnknownField(n.schema, name)
	}
	v, ok := n.Get(name)
	if !ok {
		return nil, errFieldUnset(n.schema, name)
	}
	return v, nil
}

// Set stores a value into the named field. Links are stored unresolved.
// Node and List values are checked against the tree first: a node that
// is already reachable elsewhere under the same snapshot must be
// referenced by Link, not contained twice.
func (n *Node) Set(name string, value any) error {
	if !n.schema.declares(name) {
		return errUnknownField(n.schema, name)
	}
	if !n.IsMutable() {
		return ErrImmutable
	}
	if err := n.validateAttachable(value); err != nil {
		return err
	}
	n.store(name, value)
	return nil
}

// store writes a slot without any checks.
func (n *Node) store(name string, value any) {
	if list, ok := value.(*List); ok && list.root == nil {
		list.root = n.root
	}
	n.slots[name] = slot{present: true, value: value}
}

// validateAttachable rejects node or collection values whose nodes are
// already reachable in the snapshot's tree. Plain values and links pass
// through untouched.
func (n *Node) validateAttachable(value any) error {
	switch v := value.(type) {
	case *Link, nil:
		return nil
	case *Node:
		return n.rejectReachable(v)
	case *List:
		for _, item := range v.items {
			if err := n.rejectReachable(item); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func (n *Node) rejectReachable(candidate *Node) error {
	if candidate == nil {
		return nil
	}
	if n.root != nil && n.root.contains(candidate) {
		return ErrAlreadyInTree
	}
	for _, desc := range candidate.Flatten() {
		if n.root != nil && n.root.contains(desc) {
			return ErrAlreadyInTree
		}
	}
	return nil
}

// Matches reports whether every filter entry equals the node's raw
// value for that field. With ignoreUnknown, filter keys whose raw value
// is unset on this node are skipped instead of failing the match.
func (n *Node) Matches(filters Fields, ignoreUnknown bool) bool {
	for name, want := range filters {
		raw, ok := n.Raw(name)
		if !ok {
			if ignoreUnknown {
				continue
			}
			return false
		}
		if !valueEqual(raw, want) {
			return false
		}
	}
	return true
}

// Flatten returns every node reachable from this one through non-link
// fields, depth first. Link fields are never followed; that is what
// keeps the containment check tractable and the tree a tree.
func (n *Node) Flatten() []*Node {
	var out []*Node
	n.flattenInto(&out)
	return out
}

func (n *Node) flattenInto(out *[]*Node) {
	for _, name := range n.schema.Fields {
		sl, ok := n.slots[name]
		if !ok || !sl.present {
			continue
		}
		switch v := sl.value.(type) {
		case *Node:
			*out = append(*out, v)
			v.flattenInto(out)
		case *List:
			for _, item := range v.items {
				*out = append(*out, item)
				item.flattenInto(out)
			}
		}
	}
}

// Equal compares two nodes by their key-field values. Nodes of
// different kinds are never equal. Key fields unset on either side do
// not participate in the comparison.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.schema.Kind != other.schema.Kind {
		return false
	}
	a := n.KeyAttributes()
	b := other.KeyAttributes()
	for name, av := range a {
		if bv, ok := b[name]; ok && !valueEqual(av, bv) {
			return false
		}
	}
	return true
}

// KeyAttributes returns the node's raw key-field values, skipping unset
// fields. Link-valued key fields contribute their match values.
func (n *Node) KeyAttributes() Fields {
	attrs := Fields{}
	for _, name := range n.schema.KeyFields {
		raw, ok := n.Raw(name)
		if !ok {
			continue
		}
		if link, isLink := raw.(*Link); isLink {
			attrs[name] = Fields(link.Values)
			continue
		}
		attrs[name] = raw
	}
	return attrs
}

// keyValues returns concrete (non-link) key-field values for link
// construction.
func (n *Node) keyValues() Fields {
	values := Fields{}
	for _, name := range n.schema.KeyFields {
		raw, ok := n.Raw(name)
		if !ok {
			continue
		}
		if _, isLink := raw.(*Link); isLink {
			continue
		}
		values[name] = raw
	}
	return values
}

// CreateLink builds a link keyed on this node's non-unset key fields.
// With withFallback, the link embeds a detached copy of those key
// fields so that a failed resolution still yields identifying data.
// The copy is built outside any snapshot: a key field may hold an
// embedded node that is still part of the tree, and a rooted copy
// would fail the containment check.
func (n *Node) CreateLink(withFallback bool) (*Link, error) {
	if len(n.schema.KeyFields) == 0 {
		return nil, ErrNoKeyFields
	}
	values := n.keyValues()
	if len(values) == 0 {
		return nil, ErrNoKeyValues
	}
	link := &Link{Path: n.schema.ScopePath, Values: values}
	if withFallback {
		fallback, err := newNode(nil, n.schema, values)
		if err != nil {
			return nil, err
		}
		link.Fallback = fallback
	}
	return link, nil
}

// Copy creates a detached node of the same kind under root carrying
// this node's observed fields.
func (n *Node) Copy(root *Snapshot) (*Node, error) {
	out, err := newNode(root, n.schema, nil)
	if err != nil {
		return nil, err
	}
	if err := out.Merge(n); err != nil {
		return nil, err
	}
	return out, nil
}
