package tree

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/i-doll/tfl/internal/fs"
)

// memFS is an in-memory directory listing keyed by directory path.
type memFS struct {
	dirs  map[string][]fs.Entry
	fails map[string]error
}

func newMemFS() *memFS {
	return &memFS{dirs: map[string][]fs.Entry{}, fails: map[string]error{}}
}

func (m *memFS) dir(parent, name string) string {
	p := filepath.Join(parent, name)
	m.dirs[parent] = append(m.dirs[parent], fs.Entry{Name: name, Path: p, IsDir: true})
	if _, ok := m.dirs[p]; !ok {
		m.dirs[p] = nil
	}
	return p
}

func (m *memFS) file(parent, name string, size int64) string {
	p := filepath.Join(parent, name)
	m.dirs[parent] = append(m.dirs[parent], fs.Entry{
		Name:     name,
		Path:     p,
		Size:     size,
		Modified: time.Unix(size, 0),
	})
	return p
}

func (m *memFS) remove(parent, name string) {
	kids := m.dirs[parent]
	for i, e := range kids {
		if e.Name == name {
			m.dirs[parent] = append(kids[:i:i], kids[i+1:]...)
			return
		}
	}
}

func (m *memFS) List(dir string, opts fs.ListOptions) ([]fs.Entry, error) {
	if err := m.fails[dir]; err != nil {
		return nil, err
	}
	kids, ok := m.dirs[dir]
	if !ok {
		return nil, fs.NewError(fs.KindNotFound, "list", dir, nil)
	}
	out := make([]fs.Entry, 0, len(kids))
	for i := len(kids) - 1; i >= 0; i-- { // reversed so sorting is exercised
		e := kids[i]
		if !opts.ShowHidden && strings.HasPrefix(e.Name, ".") {
			continue
		}
		if opts.Ignore.Match(e.Path, e.Name) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func newTree(t *testing.T, m *memFS, root string) *Tree {
	t.Helper()
	tr, err := New(root, Options{Lister: m})
	if err != nil {
		t.Fatalf("New(%s) failed: %v", root, err)
	}
	return tr
}

func names(tr *Tree) []string {
	out := make([]string, 0, tr.Len())
	for _, e := range tr.Entries() {
		out = append(out, strings.Repeat("  ", e.Depth)+e.Name)
	}
	return out
}

func assertNames(t *testing.T, tr *Tree, want ...string) {
	t.Helper()
	got := names(tr)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("entries mismatch\n got: %q\nwant: %q", got, want)
	}
}

// checkInvariants verifies pre-order layout, depth steps, dirs-first
// siblings and cursor bounds.
func checkInvariants(t *testing.T, tr *Tree) {
	t.Helper()
	entries := tr.Entries()
	for i, e := range entries {
		if i == 0 && e.Depth != 0 {
			t.Fatalf("first entry at depth %d", e.Depth)
		}
		if i > 0 {
			prev := entries[i-1]
			if e.Depth > prev.Depth+1 {
				t.Fatalf("entry %s jumps from depth %d to %d", e.Name, prev.Depth, e.Depth)
			}
			if e.Depth == prev.Depth+1 && !(prev.IsDir && prev.Expanded) {
				t.Fatalf("entry %s follows non-expanded %s", e.Name, prev.Name)
			}
			if parent := tr.FindParent(i); parent >= 0 && filepath.Dir(e.Path) != entries[parent].Path {
				t.Fatalf("entry %s is under %s", e.Path, entries[parent].Path)
			}
		}
		if e.Expanded && !e.IsDir {
			t.Fatalf("file %s marked expanded", e.Name)
		}
	}
	// dirs before files within each sibling group
	seenFile := map[string]bool{}
	for _, e := range entries {
		parent := filepath.Dir(e.Path)
		if e.IsDir && seenFile[parent] {
			t.Fatalf("directory %s sorted after a file", e.Path)
		}
		if !e.IsDir {
			seenFile[parent] = true
		}
	}
	if tr.Len() > 0 && (tr.Cursor() < 0 || tr.Cursor() >= tr.Len()) {
		t.Fatalf("cursor %d out of range [0,%d)", tr.Cursor(), tr.Len())
	}
}

func projFS() (*memFS, string) {
	m := newMemFS()
	root := string(filepath.Separator) + "proj"
	m.dirs[root] = nil
	src := m.dir(root, "src")
	m.file(root, "README.md", 10)
	m.file(src, "main.rs", 30)
	m.file(src, "lib.rs", 20)
	return m, root
}

func TestExpandCollapseScenario(t *testing.T) {
	m, root := projFS()
	tr := newTree(t, m, root)
	assertNames(t, tr, "src", "README.md")

	if err := tr.Expand(0); err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	assertNames(t, tr, "src", "  lib.rs", "  main.rs", "README.md")
	checkInvariants(t, tr)

	tr.SetCursor(2)
	if e, _ := tr.Current(); e.Name != "main.rs" {
		t.Fatalf("cursor on %s, want main.rs", e.Name)
	}

	if removed := tr.Collapse(0); removed != 2 {
		t.Fatalf("Collapse removed %d, want 2", removed)
	}
	assertNames(t, tr, "src", "README.md")
	if tr.Cursor() != 0 {
		t.Fatalf("cursor = %d, want 0 (src)", tr.Cursor())
	}
	checkInvariants(t, tr)
}

func TestCollapseShiftsCursorAfterBlock(t *testing.T) {
	m, root := projFS()
	tr := newTree(t, m, root)
	if err := tr.Expand(0); err != nil {
		t.Fatal(err)
	}
	tr.SetCursor(3) // README.md
	tr.Collapse(0)
	if e, _ := tr.Current(); e.Name != "README.md" {
		t.Fatalf("cursor on %s, want README.md", e.Name)
	}
}

func TestExpandShiftsCursorAfterInsertion(t *testing.T) {
	m, root := projFS()
	tr := newTree(t, m, root)
	tr.SetCursor(1)
	if err := tr.Expand(0); err != nil {
		t.Fatal(err)
	}
	if e, _ := tr.Current(); e.Name != "README.md" {
		t.Fatalf("cursor on %s, want README.md", e.Name)
	}
}

func TestExpandFileFails(t *testing.T) {
	m, root := projFS()
	tr := newTree(t, m, root)
	err := tr.Expand(1)
	if !errors.Is(err, fs.ErrNotADirectory) {
		t.Fatalf("expected ErrNotADirectory, got %v", err)
	}
}

func TestExpandFailureLeavesTreeUntouched(t *testing.T) {
	m, root := projFS()
	m.fails[filepath.Join(root, "src")] = fs.NewError(fs.KindPermissionDenied, "list", "src", nil)
	tr := newTree(t, m, root)

	err := tr.Expand(0)
	if !errors.Is(err, fs.ErrIO) || !errors.Is(err, fs.ErrPermissionDenied) {
		t.Fatalf("expected permission error in IO class, got %v", err)
	}
	assertNames(t, tr, "src", "README.md")
	if tr.Entries()[0].Expanded {
		t.Fatal("src marked expanded after failed listing")
	}
}

func TestExpandTwiceIsNoop(t *testing.T) {
	m, root := projFS()
	tr := newTree(t, m, root)
	_ = tr.Expand(0)
	_ = tr.Expand(0)
	if tr.Len() != 4 {
		t.Fatalf("Len = %d, want 4", tr.Len())
	}
}

func TestCollapseRemovesNestedBlock(t *testing.T) {
	m := newMemFS()
	root := string(filepath.Separator) + "r"
	m.dirs[root] = nil
	a := m.dir(root, "a")
	b := m.dir(a, "b")
	m.file(b, "deep.txt", 1)
	m.file(a, "x.txt", 1)
	m.file(root, "z.txt", 1)

	tr := newTree(t, m, root)
	for _, p := range []string{a, b} {
		if err := tr.Expand(tr.IndexOf(p)); err != nil {
			t.Fatal(err)
		}
	}
	assertNames(t, tr, "a", "  b", "    deep.txt", "  x.txt", "z.txt")

	zBefore := tr.Entries()[4]
	if removed := tr.Collapse(0); removed != 3 {
		t.Fatalf("removed %d, want 3", removed)
	}
	if tr.Entries()[1].Path != zBefore.Path {
		t.Fatalf("entry after block changed: %s", tr.Entries()[1].Path)
	}
	checkInvariants(t, tr)
}

func TestRandomExpandCollapseKeepsInvariants(t *testing.T) {
	m := newMemFS()
	root := string(filepath.Separator) + "r"
	m.dirs[root] = nil
	var build func(parent string, level int)
	build = func(parent string, level int) {
		for i := 0; i < 3; i++ {
			m.file(parent, "f"+string(rune('a'+i))+".txt", int64(i))
			if level < 3 {
				build(m.dir(parent, "d"+string(rune('a'+i))), level+1)
			}
		}
	}
	build(root, 0)

	tr := newTree(t, m, root)
	rng := rand.New(rand.NewSource(7))
	for step := 0; step < 300; step++ {
		i := rng.Intn(tr.Len())
		tr.SetCursor(rng.Intn(tr.Len()))
		cursorPath := tr.Entries()[tr.Cursor()].Path
		if tr.Entries()[i].Expanded {
			end := tr.blockEnd(i)
			before := append([]fs.Entry(nil), tr.Entries()...)
			removed := tr.Collapse(i)
			if removed != end-i-1 {
				t.Fatalf("step %d: removed %d, want %d", step, removed, end-i-1)
			}
			for j := 0; j <= i; j++ {
				if tr.Entries()[j].Path != before[j].Path {
					t.Fatalf("step %d: index %d moved", step, j)
				}
			}
		} else if tr.Entries()[i].IsDir {
			if err := tr.Expand(i); err != nil {
				t.Fatal(err)
			}
			if got := tr.Entries()[tr.Cursor()].Path; got != cursorPath {
				t.Fatalf("step %d: expand moved cursor from %s to %s", step, cursorPath, got)
			}
		}
		checkInvariants(t, tr)
	}
}

func TestSortKeepsDirectoriesFirst(t *testing.T) {
	m := newMemFS()
	root := string(filepath.Separator) + "r"
	m.dirs[root] = nil
	m.file(root, "big.txt", 300)
	m.file(root, "small.go", 5)
	sub := m.dir(root, "zeta")
	m.dir(root, "Alpha")
	m.file(sub, "b.md", 2)
	m.file(sub, "a.txt", 9)

	tr := newTree(t, m, root)
	assertNames(t, tr, "Alpha", "zeta", "big.txt", "small.go")
	if err := tr.Expand(tr.IndexOf(sub)); err != nil {
		t.Fatal(err)
	}
	tr.SetCursor(tr.IndexOf(filepath.Join(sub, "b.md")))

	for _, field := range []SortField{SortByName, SortBySize, SortByModified, SortByExtension} {
		for _, order := range []SortOrder{Ascending, Descending} {
			tr.Sort(field, order)
			checkInvariants(t, tr)
			if e, _ := tr.Current(); e.Name != "b.md" {
				t.Fatalf("%s/%s: cursor on %s", field, order, e.Name)
			}
			if !tr.Entries()[tr.IndexOf(sub)].Expanded {
				t.Fatalf("%s/%s: expansion lost", field, order)
			}
		}
	}

	tr.Sort(SortBySize, Descending)
	assertNames(t, tr, "Alpha", "zeta", "  a.txt", "  b.md", "big.txt", "small.go")

	tr.Sort(SortByExtension, Ascending)
	assertNames(t, tr, "Alpha", "zeta", "  b.md", "  a.txt", "small.go", "big.txt")
}

func TestSortFieldCycle(t *testing.T) {
	f := SortByName
	seen := []string{}
	for i := 0; i < 5; i++ {
		seen = append(seen, f.String())
		f = f.Next()
	}
	if strings.Join(seen, ",") != "name,size,modified,extension,name" {
		t.Fatalf("unexpected cycle %v", seen)
	}
	if _, err := ParseSortField("bogus"); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestReloadPreservesStateByPath(t *testing.T) {
	m, root := projFS()
	docs := m.dir(root, "docs")
	m.file(docs, "guide.md", 1)
	tr := newTree(t, m, root)

	if err := tr.Expand(tr.IndexOf(filepath.Join(root, "src"))); err != nil {
		t.Fatal(err)
	}
	mainPath := filepath.Join(root, "src", "main.rs")
	tr.SetCursor(tr.IndexOf(mainPath))
	tr.ToggleSelected(tr.IndexOf(filepath.Join(root, "README.md")))

	// a new sibling sorts in before the cursor
	m.file(filepath.Join(root, "src"), "build.rs", 1)
	if err := tr.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	assertNames(t, tr, "docs", "src", "  build.rs", "  lib.rs", "  main.rs", "README.md")
	if e, _ := tr.Current(); e.Path != mainPath {
		t.Fatalf("cursor on %s, want %s", e.Path, mainPath)
	}
	if got := tr.SelectedPaths(); len(got) != 1 || got[0] != filepath.Join(root, "README.md") {
		t.Fatalf("selection lost: %v", got)
	}
	checkInvariants(t, tr)
}

func TestReloadClampsVanishedCursor(t *testing.T) {
	m, root := projFS()
	tr := newTree(t, m, root)
	_ = tr.Expand(0)
	tr.SetCursor(3)
	m.remove(root, "README.md")
	if err := tr.Reload(); err != nil {
		t.Fatal(err)
	}
	if tr.Cursor() != 2 {
		t.Fatalf("cursor = %d, want clamped to 2", tr.Cursor())
	}
}

func TestReloadFailureKeepsPriorState(t *testing.T) {
	m, root := projFS()
	tr := newTree(t, m, root)
	_ = tr.Expand(0)
	before := names(tr)

	m.fails[root] = fs.NewError(fs.KindPermissionDenied, "list", root, nil)
	if err := tr.Reload(); !errors.Is(err, fs.ErrIO) {
		t.Fatalf("expected IO error, got %v", err)
	}
	if strings.Join(names(tr), "|") != strings.Join(before, "|") {
		t.Fatalf("tree changed after failed reload: %v", names(tr))
	}
}

func TestSetStatusesTagsListedAndLaterEntries(t *testing.T) {
	m, root := projFS()
	tr := newTree(t, m, root)
	src := filepath.Join(root, "src")
	readme := filepath.Join(root, "README.md")
	mainPath := filepath.Join(src, "main.rs")

	tr.SetStatuses(map[string]string{src: "M", mainPath: "M", readme: "?"})
	status := func(path string) string {
		return tr.Entries()[tr.IndexOf(path)].Status
	}
	if status(src) != "M" || status(readme) != "?" {
		t.Fatalf("listed entries not tagged: src=%q readme=%q", status(src), status(readme))
	}

	if err := tr.Expand(tr.IndexOf(src)); err != nil {
		t.Fatal(err)
	}
	if status(mainPath) != "M" || status(filepath.Join(src, "lib.rs")) != "" {
		t.Fatalf("expanded children tagged wrong: main=%q", status(mainPath))
	}

	tr.SetStatuses(map[string]string{readme: "A"})
	if status(src) != "" || status(mainPath) != "" || status(readme) != "A" {
		t.Fatalf("stale tags kept after replacing the table")
	}

	if err := tr.Reload(); err != nil {
		t.Fatal(err)
	}
	if status(readme) != "A" {
		t.Fatalf("tag lost across reload: %q", status(readme))
	}

	tr.SetStatuses(nil)
	if status(readme) != "" {
		t.Fatalf("tag kept after clearing: %q", status(readme))
	}
}

func TestSetHiddenRestoresFlagOnFailure(t *testing.T) {
	m, root := projFS()
	m.file(root, ".env", 1)
	tr := newTree(t, m, root)
	if tr.IndexOf(filepath.Join(root, ".env")) >= 0 {
		t.Fatal("hidden file listed by default")
	}
	if err := tr.SetHidden(true); err != nil {
		t.Fatal(err)
	}
	if tr.IndexOf(filepath.Join(root, ".env")) < 0 {
		t.Fatal("hidden file missing after SetHidden(true)")
	}

	m.fails[root] = errors.New("boom")
	if err := tr.SetHidden(false); err == nil {
		t.Fatal("expected error")
	}
	if !tr.ShowHidden() {
		t.Fatal("flag not restored after failed reload")
	}
}

func TestReloadSubtree(t *testing.T) {
	m, root := projFS()
	tr := newTree(t, m, root)
	_ = tr.Expand(0)
	tr.SetCursor(3)
	m.file(filepath.Join(root, "src"), "util.rs", 1)
	if err := tr.ReloadSubtree(0); err != nil {
		t.Fatal(err)
	}
	assertNames(t, tr, "src", "  lib.rs", "  main.rs", "  util.rs", "README.md")
	if e, _ := tr.Current(); e.Name != "README.md" {
		t.Fatalf("cursor on %s", e.Name)
	}
}

func TestGoParentReexpandsOldRoot(t *testing.T) {
	m, root := projFS()
	parent := filepath.Dir(root)
	m.dirs[parent] = []fs.Entry{{Name: "proj", Path: root, IsDir: true}}
	src := filepath.Join(root, "src")

	tr := newTree(t, m, root)
	_ = tr.Expand(tr.IndexOf(src))

	moved, err := tr.GoParent()
	if err != nil || !moved {
		t.Fatalf("GoParent = %v, %v", moved, err)
	}
	if tr.Root() != parent {
		t.Fatalf("root = %s", tr.Root())
	}
	assertNames(t, tr, "proj", "  src", "    lib.rs", "    main.rs", "  README.md")
	if e, _ := tr.Current(); e.Path != root {
		t.Fatalf("cursor on %s, want old root", e.Path)
	}
	checkInvariants(t, tr)
}

func TestNavigateToFailureIsAtomic(t *testing.T) {
	m, root := projFS()
	tr := newTree(t, m, root)
	if err := tr.NavigateTo(filepath.Join(root, "missing")); !errors.Is(err, fs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if tr.Root() != root || tr.Len() != 2 {
		t.Fatalf("tree changed: root=%s len=%d", tr.Root(), tr.Len())
	}
}

func TestFindParent(t *testing.T) {
	m, root := projFS()
	tr := newTree(t, m, root)
	_ = tr.Expand(0)
	if p := tr.FindParent(2); p != 0 {
		t.Fatalf("FindParent(2) = %d", p)
	}
	if p := tr.FindParent(3); p != -1 {
		t.Fatalf("FindParent(3) = %d", p)
	}
}

func TestSelection(t *testing.T) {
	m, root := projFS()
	tr := newTree(t, m, root)
	tr.ToggleSelected(0)
	tr.ToggleSelected(1)
	if len(tr.SelectedPaths()) != 2 {
		t.Fatalf("selected = %v", tr.SelectedPaths())
	}
	if !tr.ClearSelection() || len(tr.SelectedPaths()) != 0 {
		t.Fatal("ClearSelection did not clear")
	}
	if tr.ClearSelection() {
		t.Fatal("ClearSelection reported change on empty selection")
	}
}

func TestTreeOnDisk(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "pkg", "inner"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".hidden"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tr, err := New(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	assertNames(t, tr, "pkg", "go.mod")
	if err := tr.Expand(0); err != nil {
		t.Fatal(err)
	}
	assertNames(t, tr, "pkg", "  inner", "go.mod")
	checkInvariants(t, tr)
}
