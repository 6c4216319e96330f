//go:build windows

package app

import "os"

// Windows has no job-control signals.
func contSignals() []os.Signal {
	return nil
}

func (app *Application) suspendToShell() {
	app.status.set("Suspend is not supported on Windows")
}

func (app *Application) resumeAfterStop() bool {
	return false
}
