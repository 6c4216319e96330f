//go:build !windows

package app

import (
	"os"
	"syscall"

	"github.com/gdamore/tcell/v2"
)

// contSignals are delivered when the shell brings tfl back with fg.
func contSignals() []os.Signal {
	return []os.Signal{syscall.SIGCONT}
}

// suspendToShell hands the terminal back and stops the process. Only tfl
// itself is stopped; signalling the group would also stop a wrapping shell
// function and break fg.
func (app *Application) suspendToShell() {
	_ = app.screen.Suspend()
	_ = syscall.Kill(syscall.Getpid(), syscall.SIGTSTP)
}

// resumeAfterStop reclaims the terminal after SIGCONT and wakes the event
// loop so the next frame is drawn.
func (app *Application) resumeAfterStop() bool {
	if err := app.screen.Resume(); err != nil {
		return false
	}
	app.screen.Sync()
	_ = app.screen.PostEvent(tcell.NewEventInterrupt("resume"))
	return true
}
