package app

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
)

var (
	commandBuilder = exec.Command
	clipboardWrite = clipboard.WriteAll
)

func (app *Application) yankPath() Effect {
	e, ok := app.tree.Current()
	if !ok {
		return EffectNone
	}
	text := normalizeClipboardPath(e.Path, runtime.GOOS)
	if err := clipboardWrite(text); err != nil {
		app.logger.Warn("clipboard write failed", zap.Error(err))
		app.status.fail("Yank failed")
		return EffectExternal
	}
	app.status.set("Yanked: " + text)
	return EffectExternal
}

func normalizeClipboardPath(inputPath string, goos string) string {
	if strings.EqualFold(goos, "windows") {
		cleaned := filepath.Clean(inputPath)
		return strings.ReplaceAll(cleaned, "/", `\`)
	}
	return path.Clean(filepath.ToSlash(inputPath))
}

// withSuspendedTerminal hands the terminal to fn. The screen is resumed and
// redrawn on every way out of fn, panics included.
func (app *Application) withSuspendedTerminal(fn func() error) (err error) {
	if err := app.screen.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend screen: %w", err)
	}
	defer func() {
		if resumeErr := app.screen.Resume(); resumeErr != nil && err == nil {
			err = fmt.Errorf("failed to resume screen: %w", resumeErr)
		}
		// keys typed into the child must not leak into tfl
		flushInput()
		app.screen.Sync()
	}()
	return fn()
}

// runInteractive runs args in the foreground with the terminal suspended.
func (app *Application) runInteractive(args []string, dir string) error {
	if len(args) == 0 {
		return errors.New("no command configured")
	}
	return app.withSuspendedTerminal(func() error {
		cmd := commandBuilder(args[0], args[1:]...)
		cmd.Dir = dir

		useTTY := runtime.GOOS != "windows"
		var tty *os.File
		if useTTY {
			var err error
			tty, err = os.OpenFile("/dev/tty", os.O_RDWR, 0)
			if err != nil {
				useTTY = false
			} else {
				defer func() {
					_ = tty.Close()
				}()
			}
		}
		if useTTY {
			cmd.Stdin = tty
			cmd.Stdout = tty
			cmd.Stderr = tty
		} else {
			cmd.Stdin = os.Stdin
			cmd.Stdout = os.Stdout
			cmd.Stderr = os.Stderr
		}

		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(args[0]), err)
		}
		return nil
	})
}

// startDetached starts a GUI program without waiting for it.
func startDetached(args []string, dir string) error {
	if len(args) == 0 {
		return errors.New("no command configured")
	}
	cmd := commandBuilder(args[0], args[1:]...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(args[0]), err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func (app *Application) openEditor(filePath string) {
	if len(app.editorCmd) == 0 {
		app.status.fail("No editor found, set $EDITOR")
		return
	}
	args := make([]string, len(app.editorCmd)+1)
	copy(args, app.editorCmd)
	args[len(app.editorCmd)] = filePath

	err := app.runInteractive(args, filepath.Dir(filePath))
	app.afterExternal(filePath)
	if err != nil {
		app.failWith(err)
	}
}

func (app *Application) openShell(dir string) {
	shell := detectShell(runtime.GOOS, os.Getenv)
	err := app.runInteractive(shell, dir)
	app.afterExternal(dir)
	if err != nil {
		app.failWith(err)
	}
}

// afterExternal picks up whatever a foreground program changed on disk.
func (app *Application) afterExternal(path string) {
	app.engine.Invalidate(path)
	if err := app.tree.Reload(); err != nil {
		app.logger.Warn("reload after external command failed", zap.Error(err))
	}
	app.refreshGitStatus()
}
