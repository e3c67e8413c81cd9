package state

import apperrors "github.com/ironsightlabs/spectator/internal/platform/errors"

// Merge reconciles other into n field by field. Merge is fill-only:
// unset source fields are skipped, unset target fields are copied,
// nested nodes merge recursively, and collection members reconcile by
// key fields without ever inserting new members. Scalar fields already
// observed on n keep their value; incompatible pairings are dropped and
// reported through the snapshot's warning hook. Admitting new entities
// is the diff engine's job, not Merge's.
func (n *Node) Merge(other *Node) error {
	if other == nil || other.schema.Kind != n.schema.Kind {
		return apperrors.WithMetadata(apperrors.CodeStateKindMismatch,
			"cannot merge nodes of different kinds",
			map[string]string{"Kind": string(n.schema.Kind), "Other": string(kindOf(other))})
	}
	if !n.IsMutable() {
		return ErrImmutable
	}

	for _, name := range other.schema.Fields {
		otherRaw, ok := other.Raw(name)
		if !ok {
			continue
		}
		selfRaw, ok := n.Raw(name)
		if !ok {
			if err := n.Set(name, otherRaw); err != nil {
				return err
			}
			continue
		}

		switch target := selfRaw.(type) {
		case *Node:
			source, isNode := otherRaw.(*Node)
			if !isNode || source.schema.Kind != target.schema.Kind {
				n.warnMerge(name, "mismatched node value dropped")
				continue
			}
			if err := target.Merge(source); err != nil {
				return err
			}
		case *List:
			source, isList := otherRaw.(*List)
			if !isList {
				n.warnMerge(name, "mismatched collection value dropped")
				continue
			}
			if err := target.reconcile(source, n); err != nil {
				return err
			}
		default:
			// Scalar already observed: merge never erases known data.
		}
	}
	return nil
}

// reconcile merges each source item into its key-field match in l.
// Items without a match are dropped; merge never grows a collection.
func (l *List) reconcile(source *List, owner *Node) error {
	for _, item := range source.items {
		match := l.find(item.matchAttributes(), true)
		if match == nil {
			owner.warnMerge(string(l.kind), "unmatched collection member discarded")
			continue
		}
		if err := match.Merge(item); err != nil {
			return err
		}
	}
	return nil
}

// matchAttributes returns the node's resolved, non-empty key-field
// values, the filter set merge uses to locate an existing record.
func (n *Node) matchAttributes() Fields {
	attrs := Fields{}
	for _, name := range n.schema.KeyFields {
		v, ok := n.Get(name)
		if !ok || !truthy(v) {
			continue
		}
		attrs[name] = v
	}
	return attrs
}

func truthy(v any) bool {
	if isNil(v) {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case *List:
		return t.Len() > 0
	}
	if i, ok := asInt(v); ok {
		return i != 0
	}
	return true
}

func (n *Node) warnMerge(field, msg string) {
	if n.root == nil || n.root.warn == nil {
		return
	}
	n.root.warn(msg, map[string]string{
		"kind":  string(n.schema.Kind),
		"field": field,
	})
}
