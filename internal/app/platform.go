package app

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

var lookPath = exec.LookPath

func detectEditorCommand(configured string) ([]string, bool) {
	return detectEditorCommandInternal(runtime.GOOS, configured, os.Getenv, lookPath)
}

// detectEditorCommandInternal tries the configured editor, then $VISUAL and
// $EDITOR, then a platform default.
func detectEditorCommandInternal(goos, configured string, getenv func(string) string, lookPath func(string) (string, error)) ([]string, bool) {
	candidates := []string{configured, getenv("VISUAL"), getenv("EDITOR")}

	for _, candidate := range candidates {
		args := parseEditorCommand(candidate)
		if len(args) == 0 {
			continue
		}
		if resolved, ok := resolveEditorExecutableWithLookup(args[0], lookPath); ok {
			args[0] = resolved
			return args, true
		}
	}

	var defaults [][]string
	if strings.EqualFold(goos, "windows") {
		defaults = [][]string{
			{"code", "--wait"},
			{"notepad++.exe"},
			{"notepad.exe"},
		}
	} else {
		defaults = [][]string{
			{"vim"},
			{"vi"},
			{"nano"},
		}
	}

	for _, def := range defaults {
		if resolved, ok := resolveEditorExecutableWithLookup(def[0], lookPath); ok {
			args := append([]string{resolved}, def[1:]...)
			return args, true
		}
	}

	return nil, false
}

// parseEditorCommand splits cmd like a shell word list, honouring single and
// double quotes.
func parseEditorCommand(cmd string) []string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return nil
	}

	var args []string
	var current strings.Builder
	inSingle := false
	inDouble := false

	for _, r := range cmd {
		switch r {
		case '\'':
			if inDouble {
				current.WriteRune(r)
			} else {
				inSingle = !inSingle
			}
			continue
		case '"':
			if inSingle {
				current.WriteRune(r)
			} else {
				inDouble = !inDouble
			}
			continue
		default:
			if !inSingle && !inDouble && unicode.IsSpace(r) {
				if current.Len() > 0 {
					args = append(args, current.String())
					current.Reset()
				}
				continue
			}
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}

	if len(args) > 0 {
		args[0] = expandUserPath(args[0])
	}

	return args
}

func expandUserPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	if len(path) == 1 {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}

	sep := path[1]
	if sep != '/' && sep != '\\' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[2:])
}

func resolveEditorExecutableWithLookup(cmd string, lookPath func(string) (string, error)) (string, bool) {
	if cmd == "" {
		return "", false
	}

	if expanded := expandUserPath(cmd); expanded != cmd {
		cmd = expanded
	}

	path, err := lookPath(cmd)
	if err != nil {
		return "", false
	}
	return path, true
}

// detectSystemOpener returns the command that opens a path with the
// desktop's default application.
func detectSystemOpener(goos string, lookPath func(string) (string, error)) ([]string, bool) {
	switch strings.ToLower(goos) {
	case "windows":
		return []string{"cmd", "/c", "start", ""}, true
	case "darwin":
		return []string{"open"}, true
	}
	for _, candidate := range []string{"xdg-open", "gio"} {
		if path, err := lookPath(candidate); err == nil && path != "" {
			if candidate == "gio" {
				return []string{path, "open"}, true
			}
			return []string{path}, true
		}
	}
	return nil, false
}

// detectShell picks the interactive shell for open_shell.
func detectShell(goos string, getenv func(string) string) []string {
	if strings.EqualFold(goos, "windows") {
		if comspec := strings.TrimSpace(getenv("COMSPEC")); comspec != "" {
			return []string{comspec}
		}
		return []string{"cmd.exe"}
	}
	if args := parseEditorCommand(getenv("SHELL")); len(args) > 0 {
		return args
	}
	return []string{"/bin/sh"}
}

// commandArgs substitutes path for every {} in base, or appends it when
// base has no placeholder.
func commandArgs(base []string, path string) []string {
	args := make([]string, 0, len(base)+1)
	replaced := false
	for _, arg := range base {
		if strings.Contains(arg, "{}") {
			arg = strings.ReplaceAll(arg, "{}", path)
			replaced = true
		}
		args = append(args, arg)
	}
	if !replaced {
		args = append(args, path)
	}
	return args
}
