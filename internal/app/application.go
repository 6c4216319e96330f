// Package app is the orchestrator: it owns the tree, the preview engine and
// the dispatcher, applies actions to them and drives the main loop.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/i-doll/tfl/internal/config"
	"github.com/i-doll/tfl/internal/dispatch"
	"github.com/i-doll/tfl/internal/fs"
	"github.com/i-doll/tfl/internal/logging"
	"github.com/i-doll/tfl/internal/preview"
	"github.com/i-doll/tfl/internal/tree"
	"github.com/i-doll/tfl/internal/ui/input"
	"github.com/i-doll/tfl/internal/ui/render"
	"github.com/i-doll/tfl/internal/vcs"
	"github.com/i-doll/tfl/internal/watch"
)

// Options configures New.
type Options struct {
	Root       string
	Config     *config.Config
	ConfigPath string // empty disables config reloading
	Favorites  *config.Favorites
	Screen     tcell.Screen // nil opens the terminal; New calls Init either way
	Logger     *zap.Logger
	GitStatus  *vcs.Provider // nil runs git from PATH when git_status is on
}

// Application represents the running app.
type Application struct {
	screen     tcell.Screen
	renderer   *render.Renderer
	input      *input.InputHandler
	actionCh   chan dispatch.Action
	dispatcher *dispatch.Dispatcher

	tree          *tree.Tree
	view          tree.View
	query         string
	engine        *preview.Engine
	previewMode   preview.Mode
	previewScroll int
	git           gitStatus

	cfg         *config.Config
	cfgPath     string
	favorites   *config.Favorites
	cfgWatcher  *watch.Watcher
	treeWatcher *watch.Watcher
	treeDirty   bool
	logger      *zap.Logger
	now         func() time.Time

	treeRatio     int
	history       history
	status        statusLine
	clip          clipState
	deleteTargets []string
	properties    *fs.Properties
	chmod         *chmodState
	favCursor     int
	openers       []opener
	openCursor    int

	editorCmd  []string
	shouldQuit bool
	closed     bool
}

// New builds the application around opts.Root and initialises the screen.
func New(opts Options) (*Application, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Named("app")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	root, err := resolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	ignore, errs := fs.CompileIgnore(cfg.Ignore)
	for _, err := range errs {
		logger.Warn("skipping ignore pattern", zap.Error(err))
	}
	t, err := tree.New(root, tree.Options{
		ShowHidden: cfg.ShowHidden,
		Ignore:     ignore,
		Logger:     logger.Named("tree"),
	})
	if err != nil {
		return nil, err
	}

	bindings, errs := dispatch.LoadBindings(cfg.Keys, logger)
	for _, err := range errs {
		logger.Warn("skipping key binding", zap.Error(err))
	}
	d := dispatch.New(bindings, logger.Named("dispatch"))

	favorites := opts.Favorites
	if favorites == nil {
		favPath := ""
		if opts.ConfigPath != "" {
			favPath = config.FavoritesPath(filepath.Dir(opts.ConfigPath))
		}
		favorites, err = config.LoadFavorites(favPath)
		if err != nil {
			logger.Warn("cannot load favorites", zap.Error(err))
		}
	}

	screen := opts.Screen
	if screen == nil {
		screen, err = tcell.NewScreen()
		if err != nil {
			return nil, err
		}
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	actionCh := make(chan dispatch.Action, 10)
	app := &Application{
		screen:     screen,
		renderer:   render.NewRenderer(screen),
		input:      input.NewInputHandler(actionCh, d),
		actionCh:   actionCh,
		dispatcher: d,
		tree:       t,
		engine:     preview.NewEngine(newRegistry(cfg, t.ShowHidden()), engineOptions(cfg, logger)),
		cfg:        cfg,
		cfgPath:    opts.ConfigPath,
		favorites:  favorites,
		logger:     logger,
		now:        time.Now,
		treeRatio:  config.ClampTreeRatio(cfg.TreeRatio),
	}
	app.editorCmd, _ = detectEditorCommand(cfg.Editor)
	if cfg.GitStatus {
		provider := opts.GitStatus
		if provider == nil {
			provider = vcs.NewProvider(nil, logger.Named("vcs"))
		}
		app.git = newGitStatus(provider)
	} else {
		app.git = newGitStatus(nil)
	}

	app.startWatchers()
	app.refreshView()
	app.syncPreview()
	app.refreshGitStatus()

	logger.Info("started", zap.String("root", root))
	return app, nil
}

func resolveRoot(root string) (string, error) {
	if root == "" {
		cwd, err := GetCwd()
		if err != nil {
			return "", err
		}
		root = cwd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", root, err)
	}
	entry, err := fs.Stat(abs)
	if err != nil {
		return "", err
	}
	if !entry.IsDir {
		return "", fs.NewError(fs.KindNotADirectory, "open", abs, nil)
	}
	return abs, nil
}

func newRegistry(cfg *config.Config, showHidden bool) *preview.Registry {
	return preview.NewRegistry(preview.Limits{
		MaxTextBytes: cfg.Preview.MaxTextBytes,
		MaxTextLines: cfg.Preview.MaxTextLines,
		MaxHexBytes:  cfg.Preview.MaxHexBytes,
		SyntaxTheme:  cfg.Preview.SyntaxTheme,
		ShowHidden:   showHidden,
	})
}

func engineOptions(cfg *config.Config, logger *zap.Logger) preview.Options {
	return preview.Options{
		Debounce:  cfg.Preview.Debounce,
		CacheSize: cfg.Preview.CacheSize,
		WarmStale: cfg.Preview.WarmStale,
		Logger:    logger.Named("preview"),
	}
}

// startWatchers watches the config directory and, with auto_reload, the
// tree's expanded directories. A watcher that cannot start is logged and
// left nil.
func (app *Application) startWatchers() {
	if app.cfgPath != "" {
		w, err := watch.New(app.logger.Named("config-watch"))
		if err != nil {
			app.logger.Warn("config watcher unavailable", zap.Error(err))
		} else if err := w.Add(filepath.Dir(app.cfgPath)); err != nil {
			// no config directory yet; tfl --init creates it
			app.logger.Debug("config directory not watched", zap.Error(err))
			_ = w.Close()
		} else {
			app.cfgWatcher = w
		}
	}
	app.setAutoReload(app.cfg.AutoReload)
}

func (app *Application) setAutoReload(on bool) {
	if !on {
		if app.treeWatcher != nil {
			_ = app.treeWatcher.Close()
			app.treeWatcher = nil
		}
		return
	}
	if app.treeWatcher == nil {
		w, err := watch.New(app.logger.Named("tree-watch"))
		if err != nil {
			app.logger.Warn("auto reload unavailable", zap.Error(err))
			return
		}
		app.treeWatcher = w
	}
	app.syncWatchedDirs()
}

// syncWatchedDirs points the tree watcher at the root and every expanded
// directory.
func (app *Application) syncWatchedDirs() {
	if app.treeWatcher == nil {
		return
	}
	dirs := append([]string{app.tree.Root()}, app.tree.ExpandedPaths()...)
	for _, err := range app.treeWatcher.Set(dirs) {
		app.logger.Debug("cannot watch directory", zap.Error(err))
	}
}

// Close cleans up resources.
func (app *Application) Close() error {
	if app.closed {
		return nil
	}
	app.closed = true
	app.engine.Close()
	if app.git.cancel != nil {
		app.git.cancel()
	}
	if app.cfgWatcher != nil {
		_ = app.cfgWatcher.Close()
	}
	if app.treeWatcher != nil {
		_ = app.treeWatcher.Close()
	}
	app.screen.Fini()
	return nil
}

// Root returns the directory currently shown as the tree root.
func (app *Application) Root() string {
	return app.tree.Root()
}

// GetCwd returns current working directory.
func GetCwd() (string, error) {
	return os.Getwd()
}
