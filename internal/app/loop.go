package app

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/i-doll/tfl/internal/config"
	"github.com/i-doll/tfl/internal/dispatch"
	"github.com/i-doll/tfl/internal/fs"
	"github.com/i-doll/tfl/internal/ui/render"
	"github.com/i-doll/tfl/internal/watch"
)

// Run drives the main loop until quit. It is the only goroutine that
// touches the tree, the engine and the screen.
func (app *Application) Run() {
	app.render()
	renderPending := false

	eventChan := make(chan tcell.Event)
	go func() {
		for {
			ev := app.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	var sigContCh chan os.Signal
	if sigs := contSignals(); len(sigs) > 0 {
		sigContCh = make(chan os.Signal, 1)
		signal.Notify(sigContCh, sigs...)
		defer signal.Stop(sigContCh)
	}

	tickRate := app.tickRate()
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()

	for !app.shouldQuit {
		if renderPending {
			app.render()
			renderPending = false
		}
		if rate := app.tickRate(); rate != tickRate {
			tickRate = rate
			ticker.Reset(tickRate)
		}

		var debounceCh <-chan time.Time
		if deadline, ok := app.engine.Deadline(); ok {
			debounceCh = time.After(time.Until(deadline))
		}

		select {
		case ev := <-eventChan:
			if app.handleEvent(ev) {
				renderPending = true
			}
		case action := <-app.actionCh:
			app.handleAction(action)
			renderPending = true
		case <-ticker.C:
			if app.tick() {
				renderPending = true
			}
		case <-debounceCh:
			if app.engine.Poll(app.now()) {
				renderPending = true
			}
		case res := <-app.engine.Results():
			if app.engine.Apply(res) {
				renderPending = true
			}
		case res := <-app.git.results:
			if app.applyGitStatus(res) {
				renderPending = true
			}
		case ev, ok := <-watchEvents(app.cfgWatcher):
			if ok && app.handleConfigEvent(ev) {
				renderPending = true
			}
		case ev, ok := <-watchEvents(app.treeWatcher):
			if ok {
				app.handleTreeEvent(ev)
			}
		case <-sigContCh:
			if app.resumeAfterStop() {
				renderPending = true
			}
		}

		if app.processActions() {
			renderPending = true
		}
	}
}

func (app *Application) tickRate() time.Duration {
	if app.cfg.TickRate <= 0 {
		return config.Default().TickRate
	}
	return app.cfg.TickRate
}

func watchEvents(w *watch.Watcher) <-chan watch.Event {
	if w == nil {
		return nil
	}
	return w.Events()
}

func (app *Application) handleEvent(ev tcell.Event) bool {
	switch ev.(type) {
	case *tcell.EventKey, *tcell.EventResize:
		if !app.input.ProcessEvent(ev) {
			app.shouldQuit = true
		}
	case *tcell.EventInterrupt:
		return true
	default:
		return false
	}
	return true
}

func (app *Application) processActions() bool {
	changed := false
	for {
		select {
		case action := <-app.actionCh:
			app.handleAction(action)
			changed = true
		default:
			return changed
		}
	}
}

func (app *Application) handleAction(action dispatch.Action) {
	if action == nil {
		return
	}
	app.Apply(action)
}

// tick ages the status message, applies a pending auto reload and drains
// preview completions. It reports whether anything visible changed.
func (app *Application) tick() bool {
	changed := app.status.tick()
	if app.treeDirty {
		app.treeDirty = false
		if err := app.tree.Reload(); err != nil {
			app.logger.Warn("auto reload failed", zap.Error(err))
		} else {
			app.syncWatchedDirs()
			app.refreshView()
			app.syncPreview()
			app.refreshGitStatus()
			changed = true
		}
	}
	if app.engine.Poll(app.now()) {
		changed = true
	}
	return changed
}

// handleTreeEvent marks the tree for reload on the next tick and drops any
// cached preview of the changed path.
func (app *Application) handleTreeEvent(ev watch.Event) {
	app.treeDirty = true
	app.engine.Invalidate(ev.Path)
	app.engine.Invalidate(filepath.Dir(ev.Path))
}

func (app *Application) handleConfigEvent(ev watch.Event) bool {
	switch filepath.Base(ev.Path) {
	case config.FileName:
		app.reloadConfig()
		return true
	case config.FavoritesFileName:
		if err := app.favorites.Reload(); err != nil {
			app.logger.Warn("favorites reload failed", zap.Error(err))
			return false
		}
		app.favCursor = clampIndex(app.favCursor, app.favorites.Len())
		return true
	}
	return false
}

// reloadConfig re-reads the config file and applies bindings, ignore
// patterns and preview options. A broken file keeps the old settings.
func (app *Application) reloadConfig() {
	cfg, err := config.Load(app.cfgPath)
	if err != nil {
		app.logger.Warn("config reload failed", zap.Error(err))
		app.status.fail("Config error: " + err.Error())
		return
	}

	bindings, errs := dispatch.LoadBindings(cfg.Keys, app.logger)
	for _, err := range errs {
		app.logger.Warn("skipping key binding", zap.Error(err))
	}
	app.dispatcher.SetBindings(bindings)

	ignore, errs := fs.CompileIgnore(cfg.Ignore)
	for _, err := range errs {
		app.logger.Warn("skipping ignore pattern", zap.Error(err))
	}
	if err := app.tree.SetIgnore(ignore); err != nil {
		app.logger.Warn("cannot apply ignore patterns", zap.Error(err))
	}
	if cfg.ShowHidden != app.cfg.ShowHidden {
		if err := app.tree.SetHidden(cfg.ShowHidden); err != nil {
			app.logger.Warn("cannot apply show_hidden", zap.Error(err))
		}
	}
	if cfg.TreeRatio != app.cfg.TreeRatio {
		app.treeRatio = config.ClampTreeRatio(cfg.TreeRatio)
	}

	app.engine.Configure(engineOptions(cfg, app.logger))
	app.engine.SetProducer(newRegistry(cfg, app.tree.ShowHidden()))
	app.engine.Purge()
	app.editorCmd, _ = detectEditorCommand(cfg.Editor)

	app.cfg = cfg
	app.setAutoReload(cfg.AutoReload)
	app.setGitStatus(cfg.GitStatus)
	app.refreshView()
	app.syncPreview()
	app.status.set("Config reloaded")
	app.logger.Info("config reloaded", zap.String("path", app.cfgPath))
}

func (app *Application) render() {
	app.renderer.Render(app.frame())
}

// frame snapshots everything the renderer draws.
func (app *Application) frame() *render.Frame {
	buf := app.dispatcher.Buffer()
	f := &render.Frame{
		Root:       app.tree.Root(),
		Branch:     app.git.branch,
		Entries:    app.tree.Entries(),
		View:       app.view,
		Cursor:     app.tree.Cursor(),
		TreeRatio:  app.treeRatio,
		ShowHidden: app.tree.ShowHidden(),
		SortField:  app.tree.SortField(),
		SortOrder:  app.tree.SortOrder(),
		Clipboard:  len(app.clip.paths),
		ClipCut:    app.clip.cut,
		Preview: render.PreviewPane{
			State:   app.engine.State(),
			Payload: app.engine.Payload(),
			Message: app.engine.Message(),
			Mode:    app.previewMode,
			Scroll:  app.previewScroll,
		},
		Mode:          app.dispatcher.Mode(),
		Query:         app.query,
		Status:        app.status.text,
		Error:         app.status.isErr,
		DeleteTargets: app.deleteTargets,
		Properties:    app.properties,
		Favorites:     render.ListOverlay{Items: app.favorites.List(), Cursor: app.favCursor},
		Bindings:      app.dispatcher.Bindings(),
	}
	if f.Mode == dispatch.ModePrompt {
		f.Prompt = render.PromptLine{Kind: app.dispatcher.PromptKind(), Text: buf.String(), Cursor: buf.Cursor()}
	}
	if c := app.chmod; c != nil {
		f.Chmod = &render.ChmodView{
			Path:      c.path,
			Original:  c.original,
			Mode:      c.mode,
			IsDir:     c.isDir,
			Recursive: c.recursive,
			Octal:     c.octal,
			Input:     c.input,
		}
	}
	if len(app.openers) > 0 {
		names := make([]string, len(app.openers))
		for i, o := range app.openers {
			names[i] = o.name
		}
		f.OpenWith = render.ListOverlay{Items: names, Cursor: app.openCursor}
	}
	return f
}

// buildBreadcrumbPath rebuilds the directory named by segments[:idx+1].
func buildBreadcrumbPath(segments []string, idx int) string {
	sep := string(filepath.Separator)
	path := ""
	for i := 0; i <= idx && i < len(segments); i++ {
		seg := segments[i]
		switch {
		case i == 0 && seg == "/":
			path = sep
		case i == 0 && strings.HasSuffix(seg, ":"):
			path = seg + sep
		case i == 0:
			path = seg
		default:
			path = filepath.Join(path, seg)
		}
	}
	if path == "" {
		path = sep
	}
	return path
}
