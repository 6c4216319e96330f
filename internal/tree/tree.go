// Package tree keeps a directory hierarchy as one flat, pre-ordered slice of
// entries. Each entry records its depth; an expanded directory is followed
// by the contiguous block of its descendants.
package tree

import (
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/i-doll/tfl/internal/fs"
)

// ErrOutOfRange is returned when an index does not address an entry.
var ErrOutOfRange = errors.New("tree: index out of range")

// Options configures a Tree.
type Options struct {
	ShowHidden bool
	Ignore     *fs.IgnoreSet
	Field      SortField
	Order      SortOrder
	Lister     fs.Lister
	Logger     *zap.Logger
}

// Tree is a flat-vec file tree. It is owned by a single goroutine.
type Tree struct {
	root       string
	entries    []fs.Entry
	cursor     int
	showHidden bool
	ignore     *fs.IgnoreSet
	cmp        comparator
	lister     fs.Lister
	logger     *zap.Logger
	status     map[string]string
}

// New lists root and returns a tree with every child collapsed at depth 0.
func New(root string, opts Options) (*Tree, error) {
	t := &Tree{
		showHidden: opts.ShowHidden,
		ignore:     opts.Ignore,
		cmp:        comparator{field: opts.Field, order: opts.Order},
		lister:     opts.Lister,
		logger:     opts.Logger,
	}
	if t.lister == nil {
		t.lister = fs.DirLister{}
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	if err := t.NavigateTo(root); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) Root() string { return t.root }
func (t *Tree) Len() int { return len(t.entries) }
func (t *Tree) Cursor() int { return t.cursor }
func (t *Tree) ShowHidden() bool { return t.showHidden }
func (t *Tree) SortField() SortField { return t.cmp.field }
func (t *Tree) SortOrder() SortOrder { return t.cmp.order }

// Entries exposes the backing slice. Callers must not modify it.
func (t *Tree) Entries() []fs.Entry {
	return t.entries
}

// Entry returns a copy of the entry at i.
func (t *Tree) Entry(i int) (fs.Entry, bool) {
	if i < 0 || i >= len(t.entries) {
		return fs.Entry{}, false
	}
	return t.entries[i], true
}

// Current returns the entry under the cursor.
func (t *Tree) Current() (fs.Entry, bool) {
	return t.Entry(t.cursor)
}

// SetCursor moves the cursor to i, clamped into range.
func (t *Tree) SetCursor(i int) {
	t.cursor = t.clamp(i)
}

// MoveCursor moves the cursor by delta, clamped into range.
func (t *Tree) MoveCursor(delta int) {
	t.cursor = t.clamp(t.cursor + delta)
}

func (t *Tree) clamp(i int) int {
	if i >= len(t.entries) {
		i = len(t.entries) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// IndexOf returns the index of the entry with the given path, or -1.
func (t *Tree) IndexOf(path string) int {
	for i := range t.entries {
		if t.entries[i].Path == path {
			return i
		}
	}
	return -1
}

// FindParent returns the index of the directory containing entry i, or -1
// for root children.
func (t *Tree) FindParent(i int) int {
	if i <= 0 || i >= len(t.entries) {
		return -1
	}
	depth := t.entries[i].Depth
	if depth == 0 {
		return -1
	}
	for j := i - 1; j >= 0; j-- {
		if t.entries[j].Depth == depth-1 {
			return j
		}
	}
	return -1
}

// blockEnd returns the index one past the descendant block of entry i.
func (t *Tree) blockEnd(i int) int {
	depth := t.entries[i].Depth
	end := i + 1
	for end < len(t.entries) && t.entries[end].Depth > depth {
		end++
	}
	return end
}

func (t *Tree) listOptions() fs.ListOptions {
	return fs.ListOptions{ShowHidden: t.showHidden, Ignore: t.ignore}
}

// listSorted lists dir and returns its children sorted at depth.
func (t *Tree) listSorted(dir string, depth int) ([]fs.Entry, error) {
	children, err := t.lister.List(dir, t.listOptions())
	if err != nil {
		return nil, err
	}
	for i := range children {
		children[i].Depth = depth
		children[i].Expanded = false
		children[i].Selected = false
		children[i].Status = t.status[children[i].Path]
	}
	t.cmp.sortSiblings(children)
	return children, nil
}

// Expand lists entry i and splices its children in after it. Nothing changes
// if listing fails.
func (t *Tree) Expand(i int) error {
	if i < 0 || i >= len(t.entries) {
		return ErrOutOfRange
	}
	e := t.entries[i]
	if !e.IsDir {
		return fs.NewError(fs.KindNotADirectory, "expand", e.Path, nil)
	}
	if e.Expanded {
		return nil
	}
	children, err := t.listSorted(e.Path, e.Depth+1)
	if err != nil {
		return err
	}

	next := make([]fs.Entry, 0, len(t.entries)+len(children))
	next = append(next, t.entries[:i+1]...)
	next = append(next, children...)
	next = append(next, t.entries[i+1:]...)
	next[i].Expanded = true
	t.entries = next

	if t.cursor > i {
		t.cursor += len(children)
	}
	return nil
}

// Collapse drops the descendant block of entry i and returns its size.
func (t *Tree) Collapse(i int) int {
	if i < 0 || i >= len(t.entries) {
		return 0
	}
	end := t.blockEnd(i)
	removed := end - i - 1
	t.entries[i].Expanded = false
	if removed == 0 {
		return 0
	}
	t.entries = append(t.entries[:i+1], t.entries[end:]...)

	switch {
	case t.cursor > i && t.cursor < end:
		t.cursor = i
	case t.cursor >= end:
		t.cursor -= removed
	}
	return removed
}

// Toggle expands a collapsed directory or collapses an expanded one.
func (t *Tree) Toggle(i int) error {
	e, ok := t.Entry(i)
	if !ok {
		return ErrOutOfRange
	}
	if e.IsDir && e.Expanded {
		t.Collapse(i)
		return nil
	}
	return t.Expand(i)
}

// Sort reorders every materialized sibling group. The cursor follows its entry.
func (t *Tree) Sort(field SortField, order SortOrder) {
	t.cmp = comparator{field: field, order: order}
	cursorPath := t.cursorPath()
	t.entries = t.cmp.sortBlock(t.entries, 0)
	if idx := t.IndexOf(cursorPath); idx >= 0 {
		t.cursor = idx
	}
}

func (t *Tree) cursorPath() string {
	if e, ok := t.Current(); ok {
		return e.Path
	}
	return ""
}

// SetHidden changes hidden-file visibility and reloads. The flag is restored
// if the reload fails.
func (t *Tree) SetHidden(show bool) error {
	if show == t.showHidden {
		return nil
	}
	prev := t.showHidden
	t.showHidden = show
	if err := t.Reload(); err != nil {
		t.showHidden = prev
		return err
	}
	return nil
}

// SetIgnore replaces the ignore patterns and reloads.
func (t *Tree) SetIgnore(ignore *fs.IgnoreSet) error {
	prev := t.ignore
	t.ignore = ignore
	if err := t.Reload(); err != nil {
		t.ignore = prev
		return err
	}
	return nil
}

// snapshot captures path-keyed state that survives a rebuild.
type snapshot struct {
	expanded map[string]bool
	selected map[string]bool
}

func (t *Tree) snapshot(entries []fs.Entry) snapshot {
	s := snapshot{
		expanded: make(map[string]bool),
		selected: make(map[string]bool),
	}
	for _, e := range entries {
		if e.Expanded {
			s.expanded[e.Path] = true
		}
		if e.Selected {
			s.selected[e.Path] = true
		}
	}
	return s
}

// materialize lists dir and recursively re-expands directories named in
// expanded. Only a failure to list dir itself is returned; nested failures
// leave that directory collapsed.
func (t *Tree) materialize(dir string, depth int, snap snapshot) ([]fs.Entry, error) {
	children, err := t.listSorted(dir, depth)
	if err != nil {
		return nil, err
	}
	out := make([]fs.Entry, 0, len(children))
	for _, child := range children {
		child.Selected = snap.selected[child.Path]
		if !child.IsDir || !snap.expanded[child.Path] {
			out = append(out, child)
			continue
		}
		below, err := t.materialize(child.Path, depth+1, snap)
		if err != nil {
			t.logger.Debug("dropping expansion",
				zap.String("path", child.Path), zap.Error(err))
			out = append(out, child)
			continue
		}
		child.Expanded = true
		out = append(out, child)
		out = append(out, below...)
	}
	return out, nil
}

// Reload re-lists the root. Expansion, selection and the cursor are kept by
// path; a cursor whose path vanished stays at its old index. On failure the
// previous state is untouched.
func (t *Tree) Reload() error {
	next, err := t.materialize(t.root, 0, t.snapshot(t.entries))
	if err != nil {
		return err
	}
	cursorPath, oldCursor := t.cursorPath(), t.cursor
	t.entries = next
	t.restoreCursor(cursorPath, oldCursor)
	return nil
}

// ReloadSubtree re-lists expanded directory i under the same rules as Reload.
func (t *Tree) ReloadSubtree(i int) error {
	e, ok := t.Entry(i)
	if !ok {
		return ErrOutOfRange
	}
	if !e.IsDir {
		return fs.NewError(fs.KindNotADirectory, "reload", e.Path, nil)
	}
	if !e.Expanded {
		return nil
	}
	end := t.blockEnd(i)
	below, err := t.materialize(e.Path, e.Depth+1, t.snapshot(t.entries[i+1:end]))
	if err != nil {
		return err
	}

	cursorPath, oldCursor := t.cursorPath(), t.cursor
	next := make([]fs.Entry, 0, len(t.entries)-(end-i-1)+len(below))
	next = append(next, t.entries[:i+1]...)
	next = append(next, below...)
	next = append(next, t.entries[end:]...)
	t.entries = next
	t.restoreCursor(cursorPath, oldCursor)
	return nil
}

func (t *Tree) restoreCursor(path string, old int) {
	if idx := t.IndexOf(path); path != "" && idx >= 0 {
		t.cursor = idx
		return
	}
	t.cursor = t.clamp(old)
}

// NavigateTo replaces the root with dir. The tree is unchanged on failure.
func (t *Tree) NavigateTo(dir string) error {
	dir = filepath.Clean(dir)
	next, err := t.listSorted(dir, 0)
	if err != nil {
		return err
	}
	t.root = dir
	t.entries = next
	t.cursor = 0
	return nil
}

// GoParent moves the root up one level, re-expanding the old root and every
// directory that was expanded beneath it. It reports false at the
// filesystem root.
func (t *Tree) GoParent() (bool, error) {
	parent := filepath.Dir(t.root)
	if parent == t.root {
		return false, nil
	}
	snap := t.snapshot(t.entries)
	snap.expanded[t.root] = true

	next, err := t.materialize(parent, 0, snap)
	if err != nil {
		return false, err
	}
	oldRoot := t.root
	t.root = parent
	t.entries = next
	t.cursor = t.clamp(t.IndexOf(oldRoot))
	return true, nil
}

// ExpandedPaths returns the paths of every expanded directory.
func (t *Tree) ExpandedPaths() []string {
	var out []string
	for _, e := range t.entries {
		if e.Expanded {
			out = append(out, e.Path)
		}
	}
	return out
}

// ToggleSelected flips the selection flag of entry i.
func (t *Tree) ToggleSelected(i int) {
	if i >= 0 && i < len(t.entries) {
		t.entries[i].Selected = !t.entries[i].Selected
	}
}

// ClearSelection unselects every entry and reports whether any was selected.
func (t *Tree) ClearSelection() bool {
	changed := false
	for i := range t.entries {
		if t.entries[i].Selected {
			t.entries[i].Selected = false
			changed = true
		}
	}
	return changed
}

// SelectedPaths returns selected paths in tree order.
func (t *Tree) SelectedPaths() []string {
	var out []string
	for _, e := range t.entries {
		if e.Selected {
			out = append(out, e.Path)
		}
	}
	return out
}

// SetStatuses replaces the status tag table, keyed by path. Listed entries,
// now and later, take their tag from it; paths missing from tags show none.
func (t *Tree) SetStatuses(tags map[string]string) {
	t.status = tags
	for i := range t.entries {
		t.entries[i].Status = tags[t.entries[i].Path]
	}
}
