package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/i-doll/tfl/internal/fs"
)

// SortField selects the key siblings are ordered by.
type SortField int

const (
	SortByName SortField = iota
	SortBySize
	SortByModified
	SortByExtension
)

var sortFieldNames = [...]string{
	SortByName:      "name",
	SortBySize:      "size",
	SortByModified:  "modified",
	SortByExtension: "extension",
}

func (f SortField) String() string {
	if int(f) >= 0 && int(f) < len(sortFieldNames) {
		return sortFieldNames[f]
	}
	return fmt.Sprintf("SortField(%d)", int(f))
}

// Next cycles name -> size -> modified -> extension -> name.
func (f SortField) Next() SortField {
	return (f + 1) % SortField(len(sortFieldNames))
}

// ParseSortField maps a config value onto a SortField.
func ParseSortField(s string) (SortField, error) {
	for i, name := range sortFieldNames {
		if strings.EqualFold(s, name) {
			return SortField(i), nil
		}
	}
	return SortByName, fmt.Errorf("unknown sort field %q", s)
}

// SortOrder is ascending or descending.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

func (o SortOrder) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

// Reverse flips the order.
func (o SortOrder) Reverse() SortOrder {
	if o == Descending {
		return Ascending
	}
	return Descending
}

// comparator orders siblings. Directories always come first and ties fall
// back to the case-insensitive name.
type comparator struct {
	field SortField
	order SortOrder
}

func (c comparator) less(a, b *fs.Entry) bool {
	if a.IsDir != b.IsDir {
		return a.IsDir
	}
	cmp := c.compareField(a, b)
	if c.order == Descending {
		cmp = -cmp
	}
	if cmp != 0 {
		return cmp < 0
	}
	if cmp = compareFold(a.Name, b.Name); cmp != 0 {
		return cmp < 0
	}
	return a.Name < b.Name
}

func (c comparator) compareField(a, b *fs.Entry) int {
	switch c.field {
	case SortBySize:
		return compareInt64(a.Size, b.Size)
	case SortByModified:
		return compareInt64(a.Modified.UnixNano(), b.Modified.UnixNano())
	case SortByExtension:
		if cmp := strings.Compare(a.Ext(), b.Ext()); cmp != 0 {
			return cmp
		}
		return compareFold(a.Name, b.Name)
	default:
		return compareFold(a.Name, b.Name)
	}
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (c comparator) sortSiblings(entries []fs.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return c.less(&entries[i], &entries[j])
	})
}

// sortBlock reorders a run of siblings at depth together with their
// materialized subtrees. Each sibling carries its descendant block along.
func (c comparator) sortBlock(block []fs.Entry, depth int) []fs.Entry {
	if len(block) == 0 {
		return block
	}

	type node struct {
		head  fs.Entry
		below []fs.Entry
	}
	var nodes []node
	for i := 0; i < len(block); {
		end := i + 1
		for end < len(block) && block[end].Depth > depth {
			end++
		}
		nodes = append(nodes, node{head: block[i], below: block[i+1 : end]})
		i = end
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		return c.less(&nodes[i].head, &nodes[j].head)
	})

	out := make([]fs.Entry, 0, len(block))
	for _, n := range nodes {
		out = append(out, n.head)
		out = append(out, c.sortBlock(n.below, depth+1)...)
	}
	return out
}
