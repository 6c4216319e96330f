package app

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/i-doll/tfl/internal/config"
	"github.com/i-doll/tfl/internal/dispatch"
	"github.com/i-doll/tfl/internal/preview"
	"github.com/i-doll/tfl/internal/ui/render"
)

const previewScrollStep = 3

// Apply performs one action and reports which kind of change it made. The
// filtered view and the preview selection are brought up to date before it
// returns.
func (app *Application) Apply(action dispatch.Action) Effect {
	if action == nil {
		return EffectNone
	}
	root := app.tree.Root()
	effect := app.apply(action)
	if effect == EffectTree || effect == EffectFS {
		app.syncWatchedDirs()
	}
	if effect == EffectFS || app.tree.Root() != root {
		app.refreshGitStatus()
	}
	app.refreshView()
	app.syncPreview()
	app.logger.Debug("action applied",
		zap.String("action", fmt.Sprintf("%T", action)),
		zap.Stringer("effect", effect))
	return effect
}

func (app *Application) apply(action dispatch.Action) Effect {
	switch a := action.(type) {
	// navigation
	case dispatch.MoveUpAction:
		app.tree.MoveCursorInView(app.view, -1)
		return EffectTree
	case dispatch.MoveDownAction:
		app.tree.MoveCursorInView(app.view, 1)
		return EffectTree
	case dispatch.MoveLeftAction:
		return app.treeResult(app.moveLeft())
	case dispatch.MoveRightAction:
		return app.treeResult(app.expandCurrent())
	case dispatch.ToggleExpandAction:
		return app.treeResult(app.toggleCurrent())
	case dispatch.OpenAction:
		e, ok := app.tree.Current()
		if !ok {
			return EffectNone
		}
		if e.IsDir {
			return app.treeResult(app.navigate(e.Path))
		}
		app.openEditor(e.Path)
		return EffectExternal
	case dispatch.GoParentAction:
		return app.treeResult(app.goParent())
	case dispatch.GoHomeAction:
		home, err := os.UserHomeDir()
		if err != nil {
			app.status.fail("Cannot find home directory")
			return EffectNone
		}
		return app.treeResult(app.navigate(home))
	case dispatch.GoToTopAction:
		if app.view.Len() > 0 {
			app.tree.SetCursor(app.view.At(0))
		}
		return EffectTree
	case dispatch.GoToBottomAction:
		if n := app.view.Len(); n > 0 {
			app.tree.SetCursor(app.view.At(n - 1))
		}
		return EffectTree
	case dispatch.GPressAction:
		app.dispatcher.Enter(dispatch.ModeGPrefix)
		return EffectMode
	case dispatch.HistoryAction:
		return app.treeResult(app.historyStep(a.Delta))
	case dispatch.BreadcrumbAction:
		segments := render.FormatBreadcrumbSegments(app.tree.Root())
		idx := a.Index - 1
		if idx < 0 || idx >= len(segments) {
			return EffectNone
		}
		return app.treeResult(app.navigate(buildBreadcrumbPath(segments, idx)))

	// search
	case dispatch.SearchStartAction:
		app.query = ""
		app.dispatcher.EnterSearch()
		return EffectMode
	case dispatch.SearchInputAction:
		app.query = a.Query
		return EffectTree
	case dispatch.SearchConfirmAction:
		app.dispatcher.Reset()
		app.query = a.Query
		app.refreshView()
		err := app.view.Err
		if e, ok := app.tree.Current(); ok && e.IsDir && err == nil {
			err = app.navigate(e.Path)
		}
		app.query = ""
		return app.treeResult(err)
	case dispatch.SearchCancelAction:
		app.dispatcher.Reset()
		app.query = ""
		return EffectMode

	// view
	case dispatch.ToggleHiddenAction:
		if err := app.tree.SetHidden(!app.tree.ShowHidden()); err != nil {
			app.failWith(err)
			return EffectNone
		}
		app.engine.SetProducer(newRegistry(app.cfg, app.tree.ShowHidden()))
		app.engine.Purge()
		if app.tree.ShowHidden() {
			app.status.set("Showing hidden files")
		} else {
			app.status.set("Hiding hidden files")
		}
		return EffectTree
	case dispatch.ToggleHelpAction:
		if app.dispatcher.Mode() == dispatch.ModeHelp {
			app.dispatcher.Reset()
		} else {
			app.dispatcher.Enter(dispatch.ModeHelp)
		}
		return EffectMode
	case dispatch.ScrollPreviewUpAction:
		app.scrollPreview(-previewScrollStep)
		return EffectPreview
	case dispatch.ScrollPreviewDownAction:
		app.scrollPreview(previewScrollStep)
		return EffectPreview
	case dispatch.PreviewModeAction:
		app.previewMode = app.previewMode.Next()
		app.status.set("Preview: " + app.previewMode.String())
		return EffectPreview
	case dispatch.ResizeTreeAction:
		app.treeRatio = config.ClampTreeRatio(app.treeRatio + a.Delta)
		return EffectNone
	case dispatch.ResizeAction:
		app.screen.Sync()
		return EffectNone
	case dispatch.SortCycleAction:
		app.tree.Sort(app.tree.SortField().Next(), app.tree.SortOrder())
		app.status.set(fmt.Sprintf("Sort: %s %s", app.tree.SortField(), app.tree.SortOrder()))
		return EffectTree
	case dispatch.SortReverseAction:
		app.tree.Sort(app.tree.SortField(), app.tree.SortOrder().Reverse())
		app.status.set(fmt.Sprintf("Sort: %s %s", app.tree.SortField(), app.tree.SortOrder()))
		return EffectTree
	case dispatch.ReloadAction:
		if err := app.tree.Reload(); err != nil {
			app.failWith(err)
			return EffectNone
		}
		app.engine.Purge()
		app.refreshGitStatus()
		app.status.set("Reloaded")
		return EffectTree

	// selection and file operations
	case dispatch.ToggleSelectionAction:
		app.tree.ToggleSelected(app.tree.Cursor())
		app.tree.MoveCursorInView(app.view, 1)
		return EffectTree
	case dispatch.ClearSelectionAction:
		app.tree.ClearSelection()
		return EffectTree
	case dispatch.YankPathAction:
		return app.yankPath()
	case dispatch.CutAction:
		return app.stage(true)
	case dispatch.CopyAction:
		return app.stage(false)
	case dispatch.PasteAction:
		return app.paste()
	case dispatch.DeleteAction:
		targets := app.targets()
		if len(targets) == 0 {
			return EffectNone
		}
		app.deleteTargets = targets
		app.dispatcher.Enter(dispatch.ModeDeleteConfirm)
		return EffectMode
	case dispatch.DeleteConfirmAction:
		app.dispatcher.Reset()
		return app.deleteConfirmed()
	case dispatch.DeleteCancelAction:
		app.deleteTargets = nil
		app.dispatcher.Reset()
		return EffectMode
	case dispatch.RenameAction:
		e, ok := app.tree.Current()
		if !ok {
			return EffectNone
		}
		app.dispatcher.EnterPrompt(dispatch.PromptRename, e.Name)
		return EffectMode
	case dispatch.NewFileAction:
		app.dispatcher.EnterPrompt(dispatch.PromptNewFile, "")
		return EffectMode
	case dispatch.NewDirAction:
		app.dispatcher.EnterPrompt(dispatch.PromptNewDir, "")
		return EffectMode
	case dispatch.PromptInputAction:
		return EffectNone
	case dispatch.PromptConfirmAction:
		app.dispatcher.Reset()
		return app.promptConfirmed(a.Kind, a.Text)
	case dispatch.PromptCancelAction:
		app.dispatcher.Reset()
		return EffectMode

	// overlays
	case dispatch.CloseOverlayAction:
		app.closeOverlay()
		return EffectMode
	case dispatch.PropertiesAction:
		return app.showProperties()
	case dispatch.ChmodAction:
		return app.startChmod()
	case dispatch.ChmodDigitAction:
		app.chmod.digit(a.Digit)
		return EffectMode
	case dispatch.ChmodOctalModeAction:
		app.chmod.toggleOctal()
		return EffectMode
	case dispatch.ChmodRecursiveAction:
		app.chmod.toggleRecursive()
		return EffectMode
	case dispatch.ChmodBackspaceAction:
		app.chmod.backspace()
		return EffectMode
	case dispatch.ChmodApplyAction:
		app.dispatcher.Reset()
		return app.applyChmod()
	case dispatch.FavoritesAction:
		app.favCursor = clampIndex(app.favCursor, app.favorites.Len())
		app.dispatcher.Enter(dispatch.ModeFavorites)
		return EffectMode
	case dispatch.FavoriteAddAction:
		return app.addFavorite()
	case dispatch.FavoritesMoveAction:
		app.favCursor = clampIndex(app.favCursor+a.Delta, app.favorites.Len())
		return EffectMode
	case dispatch.FavoritesSelectAction:
		app.dispatcher.Reset()
		return app.selectFavorite()
	case dispatch.FavoritesRemoveAction:
		return app.removeFavorite()
	case dispatch.OpenWithAction:
		if _, ok := app.tree.Current(); !ok {
			return EffectNone
		}
		app.openers = app.buildOpeners()
		app.openCursor = 0
		app.dispatcher.Enter(dispatch.ModeOpenWith)
		return EffectMode
	case dispatch.OpenWithMoveAction:
		app.openCursor = clampIndex(app.openCursor+a.Delta, len(app.openers))
		return EffectMode
	case dispatch.OpenWithSelectAction:
		app.dispatcher.Reset()
		return app.openWithSelected()

	// application
	case dispatch.QuitAction:
		app.shouldQuit = true
		return EffectNone
	case dispatch.OpenEditorAction:
		e, ok := app.tree.Current()
		if !ok || e.IsDir {
			return EffectNone
		}
		app.openEditor(e.Path)
		return EffectExternal
	case dispatch.OpenShellAction:
		app.openShell(app.currentDir())
		return EffectExternal
	case dispatch.SuspendAction:
		app.suspendToShell()
		app.resumeAfterStop()
		return EffectExternal
	}

	app.logger.Debug("unhandled action", zap.String("action", fmt.Sprintf("%T", action)))
	return EffectNone
}

// treeResult maps the outcome of a tree operation to an effect, surfacing
// a failure as a status message.
func (app *Application) treeResult(err error) Effect {
	if err != nil {
		app.failWith(err)
		return EffectNone
	}
	return EffectTree
}

func (app *Application) failWith(err error) {
	app.logger.Warn("operation failed", zap.Error(err))
	app.status.fail(err.Error())
}

// refreshView recomputes the filtered view and keeps the cursor on it.
func (app *Application) refreshView() {
	app.view = app.tree.FilterAt(app.query, app.now())
	app.tree.SnapCursor(app.view)
}

// syncPreview points the engine at the cursor entry.
func (app *Application) syncPreview() {
	e, ok := app.tree.Current()
	if !ok || app.view.Len() == 0 {
		app.engine.Clear()
		return
	}
	if app.engine.Select(preview.Key{Path: e.Path, Mode: app.previewMode}, app.now()) {
		app.previewScroll = 0
	}
}

func (app *Application) scrollPreview(delta int) {
	app.previewScroll += delta
	if p := app.engine.Payload(); p != nil && app.previewScroll > len(p.Lines)-1 {
		app.previewScroll = len(p.Lines) - 1
	}
	if app.previewScroll < 0 {
		app.previewScroll = 0
	}
}

// navigate makes dir the root and records the old root in the history.
func (app *Application) navigate(dir string) error {
	prev := app.tree.Root()
	if err := app.tree.NavigateTo(dir); err != nil {
		return err
	}
	if app.tree.Root() != prev {
		app.history.push(prev)
	}
	app.query = ""
	return nil
}

func (app *Application) goParent() error {
	prev := app.tree.Root()
	moved, err := app.tree.GoParent()
	if err != nil || !moved {
		return err
	}
	app.history.push(prev)
	app.query = ""
	return nil
}

// moveLeft jumps to the parent entry of a nested entry, collapses an
// expanded directory, or moves the root up.
func (app *Application) moveLeft() error {
	cursor := app.tree.Cursor()
	if e, ok := app.tree.Current(); ok {
		if e.Depth > 0 {
			if parent := app.tree.FindParent(cursor); parent >= 0 {
				app.tree.SetCursor(parent)
				return nil
			}
		}
		if e.IsDir && e.Expanded {
			app.tree.Collapse(cursor)
			return nil
		}
	}
	return app.goParent()
}

func (app *Application) expandCurrent() error {
	e, ok := app.tree.Current()
	if !ok || !e.IsDir || e.Expanded {
		return nil
	}
	return app.tree.Expand(app.tree.Cursor())
}

func (app *Application) toggleCurrent() error {
	e, ok := app.tree.Current()
	if !ok || !e.IsDir {
		return nil
	}
	return app.tree.Toggle(app.tree.Cursor())
}

func (app *Application) historyStep(delta int) error {
	var (
		dir string
		ok  bool
	)
	current := app.tree.Root()
	if delta < 0 {
		dir, ok = app.history.goBack(current)
	} else {
		dir, ok = app.history.goForward(current)
	}
	if !ok {
		return nil
	}
	if err := app.tree.NavigateTo(dir); err != nil {
		return err
	}
	app.query = ""
	return nil
}

// currentDir is the cursor entry if it is a directory, else its parent
// directory, else the root.
func (app *Application) currentDir() string {
	e, ok := app.tree.Current()
	if !ok {
		return app.tree.Root()
	}
	if e.IsDir {
		return e.Path
	}
	if parent := app.tree.FindParent(app.tree.Cursor()); parent >= 0 {
		if p, ok := app.tree.Entry(parent); ok {
			return p.Path
		}
	}
	return app.tree.Root()
}

func (app *Application) closeOverlay() {
	app.dispatcher.Reset()
	app.properties = nil
	app.chmod = nil
	app.openers = nil
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
