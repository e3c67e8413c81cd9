package state

import (
	"reflect"
	"time"
)

// isNil reports whether v is nil, including typed nil pointers that
// survive conversion to any.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// valueEqual compares two field values. Nodes compare by key fields,
// links compare by their match values, times by time.Equal, and
// everything else by plain equality.
func valueEqual(a, b any) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	switch av := a.(type) {
	case *Node:
		switch bv := b.(type) {
		case *Node:
			return av.Equal(bv)
		case *Link:
			return nodeCoversFields(av, bv.Values)
		case Fields:
			return nodeCoversFields(av, bv)
		case map[string]any:
			return nodeCoversFields(av, bv)
		}
		return false
	case *Link:
		switch bv := b.(type) {
		case *Link:
			return fieldsEqual(av.Values, bv.Values)
		case *Node:
			return nodeCoversFields(bv, av.Values)
		case Fields:
			return linkCoversFields(av, bv)
		case map[string]any:
			return linkCoversFields(av, bv)
		}
		return false
	case Fields:
		switch bv := b.(type) {
		case *Link:
			return linkCoversFields(bv, av)
		case *Node:
			return nodeCoversFields(bv, av)
		case Fields:
			return fieldsEqual(av, bv)
		case map[string]any:
			return fieldsEqual(av, bv)
		}
	case map[string]any:
		switch bv := b.(type) {
		case *Node:
			return nodeCoversFields(bv, av)
		case Fields:
			return fieldsEqual(av, bv)
		case map[string]any:
			return fieldsEqual(av, bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Equal(bv)
		}
		return false
	}
	return scalarEqual(a, b)
}

// fieldsEqual reports whether two value maps hold the same keys with
// equal values.
func fieldsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !valueEqual(av, bv) {
			return false
		}
	}
	return true
}

// nodeCoversFields reports whether every entry of m matches the node's
// key attributes, i.e. m is a subset of the node's identity.
func nodeCoversFields(n *Node, m map[string]any) bool {
	attrs := n.KeyAttributes()
	for k, v := range m {
		av, ok := attrs[k]
		if !ok || !valueEqual(av, v) {
			return false
		}
	}
	return true
}

// linkCoversFields reports whether every entry of m matches the link's
// values, i.e. m is a subset of the link's identity.
func linkCoversFields(l *Link, m map[string]any) bool {
	for k, v := range m {
		lv, ok := l.Values[k]
		if !ok || !valueEqual(lv, v) {
			return false
		}
	}
	return true
}

func scalarEqual(a, b any) bool {
	if ai, ok := asInt(a); ok {
		if bi, ok := asInt(b); ok {
			return ai == bi
		}
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != nil && tb != nil && ta.Comparable() && tb.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// asInt normalizes the integer types a collector may supply.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// asString returns v as a string when it holds one.
func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
