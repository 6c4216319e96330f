package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/i-doll/tfl/internal/dispatch"
	"github.com/i-doll/tfl/internal/fs"
)

// clipState holds paths staged by cut or copy.
type clipState struct {
	paths []string
	cut   bool
}

// targets are the selected paths, or the cursor path when nothing is
// selected.
func (app *Application) targets() []string {
	if selected := app.tree.SelectedPaths(); len(selected) > 0 {
		return selected
	}
	if e, ok := app.tree.Current(); ok {
		return []string{e.Path}
	}
	return nil
}

func (app *Application) stage(cut bool) Effect {
	paths := app.targets()
	if len(paths) == 0 {
		return EffectNone
	}
	app.clip = clipState{paths: paths, cut: cut}
	app.tree.ClearSelection()
	verb := "Copied"
	if cut {
		verb = "Cut"
	}
	app.status.set(fmt.Sprintf("%s %s", verb, countLabel(len(paths))))
	return EffectFS
}

func (app *Application) paste() Effect {
	if len(app.clip.paths) == 0 {
		return EffectNone
	}
	destDir := app.currentDir()
	var (
		last    string
		pasted  int
		failure error
	)
	for _, src := range app.clip.paths {
		if app.clip.cut && filepath.Dir(src) == destDir {
			continue
		}
		if isWithin(destDir, src) {
			failure = fmt.Errorf("cannot paste %s into itself", filepath.Base(src))
			break
		}
		dest := fs.UniqueDestPath(filepath.Join(destDir, filepath.Base(src)))
		var err error
		if app.clip.cut {
			err = fs.MovePath(src, dest)
			app.engine.Invalidate(filepath.Dir(src))
		} else {
			err = fs.CopyPath(src, dest)
		}
		if err != nil {
			failure = err
			break
		}
		last = dest
		pasted++
	}
	if pasted == 0 && failure == nil {
		return EffectNone
	}
	if app.clip.cut {
		app.clip = clipState{}
	}

	app.engine.Invalidate(destDir)
	app.reloadAndFocus(destDir, last)
	if failure != nil {
		app.failWith(failure)
	} else {
		app.status.set("Pasted")
	}
	return EffectFS
}

func (app *Application) deleteConfirmed() Effect {
	targets := app.deleteTargets
	app.deleteTargets = nil
	if len(targets) == 0 {
		return EffectNone
	}
	deleted := 0
	var failure error
	for _, path := range targets {
		if err := fs.Remove(path); err != nil {
			failure = err
			break
		}
		app.engine.Invalidate(path)
		app.engine.Invalidate(filepath.Dir(path))
		app.dropFromClipboard(path)
		deleted++
	}
	if err := app.tree.Reload(); err != nil && failure == nil {
		failure = err
	}
	switch {
	case failure != nil:
		app.failWith(failure)
	case deleted == 1:
		app.status.set("Deleted: " + filepath.Base(targets[0]))
	default:
		app.status.set(fmt.Sprintf("Deleted %d items", deleted))
	}
	return EffectFS
}

// dropFromClipboard forgets staged paths at or below a deleted path.
func (app *Application) dropFromClipboard(deleted string) {
	kept := app.clip.paths[:0]
	for _, p := range app.clip.paths {
		if p == deleted || isWithin(p, deleted) {
			continue
		}
		kept = append(kept, p)
	}
	app.clip.paths = kept
	if len(kept) == 0 {
		app.clip = clipState{}
	}
}

func (app *Application) promptConfirmed(kind dispatch.PromptKind, text string) Effect {
	name := strings.TrimSpace(text)
	if name == "" {
		app.status.fail("Name cannot be empty")
		return EffectNone
	}

	switch kind {
	case dispatch.PromptRename:
		e, ok := app.tree.Current()
		if !ok {
			return EffectNone
		}
		dest, err := fs.Rename(e.Path, name)
		if err != nil {
			app.failName(name, err)
			return EffectNone
		}
		app.engine.Invalidate(e.Path)
		app.engine.Invalidate(filepath.Dir(e.Path))
		app.reloadAndFocus(filepath.Dir(dest), dest)
		app.status.set("Renamed to " + name)

	case dispatch.PromptNewFile, dispatch.PromptNewDir:
		dir := app.currentDir()
		create, label := fs.CreateFile, "Created: "
		if kind == dispatch.PromptNewDir {
			create, label = fs.CreateDir, "Created dir: "
		}
		path, err := create(dir, name)
		if err != nil {
			app.failName(name, err)
			return EffectNone
		}
		app.engine.Invalidate(dir)
		app.reloadAndFocus(dir, path)
		app.status.set(label + name)
	}
	return EffectFS
}

func (app *Application) failName(name string, err error) {
	switch {
	case errors.Is(err, os.ErrExist):
		app.status.fail(name + " already exists")
	case errors.Is(err, os.ErrInvalid):
		app.status.fail("Invalid name: " + name)
	default:
		app.failWith(err)
	}
}

// reloadAndFocus reloads the tree, expands dir when it is a collapsed
// entry, and moves the cursor to path.
func (app *Application) reloadAndFocus(dir, path string) {
	if err := app.tree.Reload(); err != nil {
		app.failWith(err)
		return
	}
	if idx := app.tree.IndexOf(dir); idx >= 0 {
		if e, _ := app.tree.Entry(idx); e.IsDir && !e.Expanded {
			if err := app.tree.Expand(idx); err != nil {
				app.logger.Debug("cannot expand paste target", zap.Error(err))
			}
		}
	}
	if path == "" {
		return
	}
	if idx := app.tree.IndexOf(path); idx >= 0 {
		app.tree.SetCursor(idx)
	}
}

func (app *Application) showProperties() Effect {
	e, ok := app.tree.Current()
	if !ok {
		return EffectNone
	}
	props, err := fs.ReadProperties(e.Path)
	if err != nil {
		app.failWith(err)
		return EffectNone
	}
	app.properties = &props
	app.dispatcher.Enter(dispatch.ModeProperties)
	return EffectMode
}

const permBits = os.ModePerm | os.ModeSetuid | os.ModeSetgid | os.ModeSticky

// chmodState is the permissions overlay being edited.
type chmodState struct {
	path      string
	original  os.FileMode
	mode      os.FileMode
	isDir     bool
	recursive bool
	octal     bool
	input     string
}

func (app *Application) startChmod() Effect {
	e, ok := app.tree.Current()
	if !ok {
		return EffectNone
	}
	info, err := os.Stat(e.Path)
	if err != nil {
		app.logger.Warn("chmod stat failed", zap.String("path", e.Path), zap.Error(err))
		app.status.fail("Cannot read file metadata")
		return EffectNone
	}
	app.chmod = &chmodState{
		path:     e.Path,
		original: info.Mode(),
		mode:     info.Mode(),
		isDir:    info.IsDir(),
	}
	app.dispatcher.Enter(dispatch.ModeChmod)
	return EffectMode
}

// digit types an octal digit in octal mode; otherwise 1-9 toggle the rwx
// bits from owner read to others execute.
func (c *chmodState) digit(d int) {
	if c == nil {
		return
	}
	if c.octal {
		if d < 0 || d > 7 || len(c.input) >= 4 {
			return
		}
		c.input += strconv.Itoa(d)
		c.applyInput()
		return
	}
	if d < 1 || d > 9 {
		return
	}
	c.mode ^= os.FileMode(1) << uint(9-d)
}

func (c *chmodState) toggleOctal() {
	if c == nil {
		return
	}
	if c.octal {
		c.applyInput()
		c.octal = false
		c.input = ""
		return
	}
	c.octal = true
	c.input = fmt.Sprintf("%03o", fs.OctalPerm(c.mode))
}

func (c *chmodState) toggleRecursive() {
	if c != nil && c.isDir {
		c.recursive = !c.recursive
	}
}

func (c *chmodState) backspace() {
	if c == nil || !c.octal || c.input == "" {
		return
	}
	c.input = c.input[:len(c.input)-1]
	c.applyInput()
}

// applyInput folds the octal input into mode. Empty input leaves it alone.
func (c *chmodState) applyInput() {
	if c.input == "" {
		return
	}
	v, err := strconv.ParseUint(c.input, 8, 32)
	if err != nil {
		return
	}
	c.mode = c.original&^permBits | fs.ModeFromOctal(uint32(v))
}

func (app *Application) applyChmod() Effect {
	c := app.chmod
	app.chmod = nil
	if c == nil {
		return EffectNone
	}
	if c.octal {
		c.applyInput()
	}
	recursive := c.recursive && c.isDir
	if err := fs.Chmod(c.path, c.mode, recursive); err != nil {
		app.failWith(err)
		return EffectNone
	}
	app.engine.Invalidate(c.path)
	if err := app.tree.Reload(); err != nil {
		app.logger.Warn("reload after chmod failed", zap.Error(err))
	}
	msg := fmt.Sprintf("Permissions set to %03o", fs.OctalPerm(c.mode))
	if recursive {
		msg += " (recursive)"
	}
	app.status.set(msg)
	return EffectFS
}

func (app *Application) addFavorite() Effect {
	root := app.tree.Root()
	if !app.favorites.Add(root) {
		app.status.set("Already in favorites")
		return EffectNone
	}
	if err := app.favorites.Save(); err != nil {
		app.failWith(err)
		return EffectNone
	}
	app.status.set("Added to favorites")
	return EffectFS
}

func (app *Application) selectFavorite() Effect {
	path, ok := app.favorites.Get(app.favCursor)
	if !ok {
		return EffectNone
	}
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		app.status.fail("Directory no longer exists")
		return EffectNone
	}
	return app.treeResult(app.navigate(path))
}

func (app *Application) removeFavorite() Effect {
	if !app.favorites.Remove(app.favCursor) {
		return EffectNone
	}
	app.favCursor = clampIndex(app.favCursor, app.favorites.Len())
	if err := app.favorites.Save(); err != nil {
		app.failWith(err)
		return EffectNone
	}
	return EffectFS
}

// opener is one row of the open-with overlay.
type opener struct {
	name string
	args []string
	tui  bool
}

// buildOpeners lists the system opener, the configured applications and the
// editor, dropping duplicate commands.
func (app *Application) buildOpeners() []opener {
	var out []opener
	seen := make(map[string]bool)
	add := func(o opener) {
		key := strings.Join(o.args, " ")
		if len(o.args) == 0 || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, o)
	}

	if args, ok := detectSystemOpener(runtime.GOOS, lookPath); ok {
		add(opener{name: "Default application", args: args})
	}
	for _, ow := range app.cfg.OpenWith {
		args := parseEditorCommand(ow.Command)
		name := ow.Name
		if name == "" && len(args) > 0 {
			name = filepath.Base(args[0])
		}
		add(opener{name: name, args: args, tui: ow.TUI})
	}
	if len(app.editorCmd) > 0 {
		add(opener{
			name: "Editor (" + filepath.Base(app.editorCmd[0]) + ")",
			args: app.editorCmd,
			tui:  true,
		})
	}
	return out
}

func (app *Application) openWithSelected() Effect {
	openers := app.openers
	app.openers = nil
	if app.openCursor < 0 || app.openCursor >= len(openers) {
		return EffectNone
	}
	e, ok := app.tree.Current()
	if !ok {
		return EffectNone
	}
	o := openers[app.openCursor]
	args := commandArgs(o.args, e.Path)

	var err error
	if o.tui {
		err = app.runInteractive(args, app.currentDir())
		app.afterExternal(e.Path)
	} else {
		err = startDetached(args, app.currentDir())
	}
	if err != nil {
		app.failWith(err)
		return EffectExternal
	}
	app.status.set("Opened with " + o.name)
	return EffectExternal
}

func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func countLabel(n int) string {
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}
