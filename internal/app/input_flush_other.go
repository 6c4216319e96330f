//go:build !windows

package app

func flushInput() {}
