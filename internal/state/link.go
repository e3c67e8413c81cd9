package state

import (
	"fmt"
	"sort"
	"strings"
)

// Link is a deferred reference into one of the Snapshot's collections.
// It identifies its targets by exact equality on every entry of Values
// against the collection at Path. A Link always resolves against the
// Snapshot the holding node was constructed under; the resolution
// context never changes after construction.
type Link struct {
	// Path is the dotted scope path of the target collection.
	Path string
	// Values maps field names to the values a target must carry.
	Values map[string]any
	// Multiple selects all matches instead of the first.
	Multiple bool
	// Fallback is returned when resolution finds nothing. Optional.
	Fallback *Node
}

// NewLink creates a link to the collection at path filtered by values.
func NewLink(path string, values map[string]any) *Link {
	return &Link{Path: path, Values: values}
}

func (l *Link) String() string {
	parts := make([]string, 0, len(l.Values))
	for k, v := range l.Values {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(parts)
	suffix := ""
	if l.Multiple {
		suffix = "..."
	}
	return "Link[" + strings.Join(parts, ",") + suffix + "]"
}

// resolve evaluates the link against root. It returns a *Node or *List
// depending on Multiple, the fallback when nothing matched, or
// (nil, false) when the link is unresolvable and has no fallback.
func (l *Link) resolve(root *Snapshot) (any, bool) {
	if root == nil {
		if l.Fallback != nil {
			return l.Fallback, true
		}
		return nil, false
	}
	list, err := root.collectionAt(l.Path)
	if err != nil || list == nil {
		if l.Fallback != nil {
			return l.Fallback, true
		}
		return nil, false
	}
	matches := list.FindAll(Fields(l.Values))
	if l.Multiple {
		return matches, true
	}
	if matches.Len() > 0 {
		return matches.At(0), true
	}
	if l.Fallback != nil {
		return l.Fallback, true
	}
	return nil, false
}
