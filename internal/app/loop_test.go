package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i-doll/tfl/internal/config"
	"github.com/i-doll/tfl/internal/dispatch"
	"github.com/i-doll/tfl/internal/preview"
	"github.com/i-doll/tfl/internal/watch"
)

func TestBuildBreadcrumbPath(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		idx      int
		expect   string
	}{
		{
			name:     "windows drive root",
			segments: []string{"C:"},
			idx:      0,
			expect:   "C:" + string(filepath.Separator),
		},
		{
			name:     "windows drive nested",
			segments: []string{"C:", "Users", "me"},
			idx:      2,
			expect:   filepath.Join("C:"+string(filepath.Separator), "Users", "me"),
		},
		{
			name:     "posix root",
			segments: []string{"/", "home", "me"},
			idx:      2,
			expect:   filepath.Join(string(filepath.Separator), "home", "me"),
		},
		{
			name:     "index past the end",
			segments: []string{"/", "tmp"},
			idx:      5,
			expect:   filepath.Join(string(filepath.Separator), "tmp"),
		},
	}

	for _, tt := range tests {
		if got := buildBreadcrumbPath(tt.segments, tt.idx); got != tt.expect {
			t.Fatalf("%s: expected %q, got %q", tt.name, tt.expect, got)
		}
	}
}

func TestRunQuitsOnKey(t *testing.T) {
	app, _ := newTestApp(t)
	screen, ok := app.screen.(tcell.SimulationScreen)
	require.True(t, ok)

	done := make(chan struct{})
	go func() {
		app.Run()
		close(done)
	}()
	screen.InjectKey(tcell.KeyRune, 'j', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after quit")
	}
	assert.Equal(t, "bbb_dir", app.cursorName(t))
}

func TestTickExpiresStatus(t *testing.T) {
	app, _ := newTestApp(t)
	app.status.set("Pasted")

	for i := 1; i < statusTicks; i++ {
		app.status.tick()
	}
	require.Equal(t, "Pasted", app.status.text)
	assert.True(t, app.status.tick())
	assert.Empty(t, app.status.text)
	assert.False(t, app.status.tick())
}

func TestTreeEventReloadsOnTick(t *testing.T) {
	app, root := newTestApp(t)
	created := filepath.Join(root, "late.txt")
	mustWrite(t, created, "late")
	require.Less(t, app.tree.IndexOf(created), 0)

	app.handleTreeEvent(watch.Event{Path: created})
	assert.True(t, app.treeDirty)
	assert.True(t, app.tick())
	assert.False(t, app.treeDirty)
	assert.GreaterOrEqual(t, app.tree.IndexOf(created), 0)
}

func TestReloadConfigAppliesBindingsAndRatio(t *testing.T) {
	app, _ := newTestApp(t)
	cfgPath := filepath.Join(t.TempDir(), config.FileName)
	app.cfgPath = cfgPath

	mustWrite(t, cfgPath, "auto_reload: false\ntree_ratio: 40\nkeys:\n  normal:\n    Z: quit\n")
	handled := app.handleConfigEvent(watch.Event{Path: cfgPath})
	require.True(t, handled)

	assert.Equal(t, "Config reloaded", app.status.text)
	assert.Equal(t, 40, app.treeRatio)
	assert.IsType(t, dispatch.QuitAction{}, app.dispatcher.Handle(dispatch.RuneChord('Z')))
	assert.Nil(t, app.treeWatcher)
}

func TestReloadConfigKeepsSettingsOnError(t *testing.T) {
	app, _ := newTestApp(t)
	cfgPath := filepath.Join(t.TempDir(), config.FileName)
	app.cfgPath = cfgPath
	before := app.treeRatio

	mustWrite(t, cfgPath, "tree_ratio: [oops\n")
	app.reloadConfig()

	assert.True(t, app.status.isErr)
	assert.Contains(t, app.status.text, "Config error")
	assert.Equal(t, before, app.treeRatio)
}

func TestFavoritesFileEventReloads(t *testing.T) {
	app, root := newTestApp(t)
	require.NoError(t, os.WriteFile(app.favorites.Path(), []byte(root+"\n"), 0o644))

	assert.True(t, app.handleConfigEvent(watch.Event{Path: app.favorites.Path()}))
	assert.Equal(t, []string{root}, app.favorites.List())
	assert.False(t, app.handleConfigEvent(watch.Event{Path: filepath.Join(root, "unrelated")}))
}

func TestPreviewFollowsCursor(t *testing.T) {
	app, root := newTestApp(t)
	app.engine.Close()
	app.engine = preview.NewEngine(preview.ProducerFunc(func(_ context.Context, path string, _ preview.Mode) (*preview.Payload, error) {
		return &preview.Payload{Title: filepath.Base(path)}, nil
	}), preview.Options{Debounce: time.Millisecond})

	base := time.Now()
	app.now = func() time.Time { return base }
	app.focus(t, filepath.Join(root, "file.txt"))
	app.syncPreview()
	require.Equal(t, preview.StateDebouncing, app.engine.State())

	require.True(t, app.engine.Poll(base.Add(time.Second)))
	timeout := time.After(5 * time.Second)
	for app.engine.State() != preview.StateReady {
		select {
		case res := <-app.engine.Results():
			app.engine.Apply(res)
		case <-timeout:
			t.Fatalf("preview job did not finish, state %s", app.engine.State())
		}
	}
	assert.Equal(t, "file.txt", app.engine.Payload().Title)

	app.Apply(dispatch.MoveDownAction{})
	assert.Equal(t, preview.StateDebouncing, app.engine.State())
	assert.Nil(t, app.engine.Payload())
}
