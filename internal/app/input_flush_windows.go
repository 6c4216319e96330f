//go:build windows

package app

import "golang.org/x/sys/windows"

// flushInput drops console keystrokes typed while a child program had the
// terminal.
func flushInput() {
	handle, err := windows.GetStdHandle(windows.STD_INPUT_HANDLE)
	if err != nil {
		return
	}
	_ = windows.FlushConsoleInputBuffer(handle)
}
