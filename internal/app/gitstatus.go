package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/i-doll/tfl/internal/vcs"
)

const gitStatusTimeout = 5 * time.Second

type gitResult struct {
	gen  uint64
	snap *vcs.Snapshot
	err  error
}

// gitStatus runs git status for the tree root in the background. Only the
// newest job's result is applied.
type gitStatus struct {
	provider *vcs.Provider
	results  chan gitResult
	gen      uint64
	cancel   context.CancelFunc
	branch   string
}

func newGitStatus(provider *vcs.Provider) gitStatus {
	return gitStatus{provider: provider, results: make(chan gitResult, 4)}
}

// refreshGitStatus starts a status job for the current root, superseding
// any job still running.
func (app *Application) refreshGitStatus() {
	g := &app.git
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.gen++
	if g.provider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), gitStatusTimeout)
	g.cancel = cancel
	provider, results, gen, root := g.provider, g.results, g.gen, app.tree.Root()
	go func() {
		defer cancel()
		snap, err := provider.Status(ctx, root)
		if errors.Is(err, context.Canceled) {
			return
		}
		select {
		case results <- gitResult{gen: gen, snap: snap, err: err}:
		default:
		}
	}()
}

// applyGitStatus copies a finished job into the tree. It reports whether
// anything visible changed.
func (app *Application) applyGitStatus(r gitResult) bool {
	g := &app.git
	if r.gen != g.gen {
		return false
	}
	g.cancel = nil
	switch {
	case errors.Is(r.err, vcs.ErrNotRepository):
		app.tree.SetStatuses(nil)
		g.branch = ""
	case r.err != nil:
		app.logger.Warn("git status failed", zap.Error(r.err))
		return false
	default:
		app.tree.SetStatuses(r.snap.Tags)
		g.branch = r.snap.Branch
	}
	return true
}

// setGitStatus turns the status column on or off.
func (app *Application) setGitStatus(on bool) {
	switch {
	case on && app.git.provider == nil:
		app.git.provider = vcs.NewProvider(nil, app.logger.Named("vcs"))
	case !on && app.git.provider != nil:
		app.git.provider = nil
		app.tree.SetStatuses(nil)
		app.git.branch = ""
	}
	app.refreshGitStatus()
}
