package tree

import (
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

// View is a filtered projection of the tree: ascending entry indices.
// Err is set when the pattern has a malformed size: or date: term; the view
// is then unfiltered.
type View struct {
	Pattern string
	Indices []int
	Err     error
}

// Len returns the number of visible entries.
func (v View) Len() int { return len(v.Indices) }

// At returns the tree index at view position pos.
func (v View) At(pos int) int { return v.Indices[pos] }

// Position returns the view position of tree index i, or -1 if hidden.
func (v View) Position(i int) int {
	pos := sort.SearchInts(v.Indices, i)
	if pos < len(v.Indices) && v.Indices[pos] == i {
		return pos
	}
	return -1
}

// Active reports whether a non-empty pattern is in effect.
func (v View) Active() bool { return v.Pattern != "" }

// matcher builds a case-insensitive name predicate. Patterns with glob
// metacharacters are compiled; everything else is a substring test.
func matcher(pattern string) func(string) bool {
	lower := strings.ToLower(pattern)
	if strings.ContainsAny(pattern, "*?[") {
		if g, err := glob.Compile(lower); err == nil {
			return func(name string) bool {
				return g.Match(strings.ToLower(name))
			}
		}
	}
	return func(name string) bool {
		return strings.Contains(strings.ToLower(name), lower)
	}
}

// Filter returns the entries matching pattern plus every ancestor of a
// match. An empty pattern yields every index. See Query for the syntax.
func (t *Tree) Filter(pattern string) View {
	return t.FilterAt(pattern, time.Now())
}

// FilterAt is Filter with date terms resolved against now.
func (t *Tree) FilterAt(pattern string, now time.Time) View {
	view := View{Pattern: pattern, Indices: make([]int, 0, len(t.entries))}
	q, err := ParseQuery(pattern, now)
	view.Err = err
	if err != nil || q.Empty() {
		for i := range t.entries {
			view.Indices = append(view.Indices, i)
		}
		return view
	}

	match := q.matcher()
	visible := make([]bool, len(t.entries))
	// ancestors[d] is the index of the open ancestor at depth d.
	ancestors := make([]int, 0, 16)
	for i, e := range t.entries {
		depth := e.Depth
		if depth > len(ancestors) {
			depth = len(ancestors)
		}
		ancestors = ancestors[:depth]

		if match(e) {
			visible[i] = true
			for k := len(ancestors) - 1; k >= 0 && !visible[ancestors[k]]; k-- {
				visible[ancestors[k]] = true
			}
		}
		ancestors = append(ancestors, i)
	}

	for i, ok := range visible {
		if ok {
			view.Indices = append(view.Indices, i)
		}
	}
	return view
}

// MoveCursorInView moves the cursor delta steps through the view. A cursor
// outside the view snaps to the nearest visible entry after it.
func (t *Tree) MoveCursorInView(view View, delta int) {
	if view.Len() == 0 {
		return
	}
	pos := view.Position(t.cursor)
	if pos < 0 {
		pos = sort.SearchInts(view.Indices, t.cursor)
		if pos >= view.Len() {
			pos = view.Len() - 1
		}
		if delta > 0 {
			delta--
		}
	}
	pos += delta
	if pos < 0 {
		pos = 0
	}
	if pos >= view.Len() {
		pos = view.Len() - 1
	}
	t.cursor = view.At(pos)
}

// SnapCursor moves a hidden cursor onto the view.
func (t *Tree) SnapCursor(view View) {
	if view.Len() > 0 && view.Position(t.cursor) < 0 {
		t.MoveCursorInView(view, 0)
	}
}
