package render

import (
	"strings"

	"github.com/i-doll/tfl/internal/dispatch"
)

// buildFooterHelpText returns the contextual footer hint string with leading/trailing padding.
func buildFooterHelpText(f *Frame) string {
	parts := buildFooterHelpSegments(f)
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, "  ") + " "
}

// buildFooterHelpSegments assembles context-aware help hints for the footer.
func buildFooterHelpSegments(f *Frame) []string {
	if f == nil {
		return nil
	}
	switch f.Mode {
	case dispatch.ModeSearch:
		return []string{"type: filter", "↵: open", "Esc: clear", "↑↓: move"}
	case dispatch.ModePrompt:
		return []string{"↵: confirm", "Esc: cancel"}
	case dispatch.ModeGPrefix:
		return []string{
			hint(f.Bindings, dispatch.ModeGPrefix, "go_to_top", "top"),
			hint(f.Bindings, dispatch.ModeGPrefix, "go_to_bottom", "bottom"),
			hint(f.Bindings, dispatch.ModeGPrefix, "go_home", "home"),
			"1-9: breadcrumb",
		}
	}

	var segments []string
	for _, h := range []struct{ name, label string }{
		{"open", "open"},
		{"search_start", "filter"},
		{"toggle_hidden", "hidden"},
		{"preview_mode", "mode"},
		{"toggle_help", "help"},
		{"quit", "quit"},
	} {
		if s := hint(f.Bindings, dispatch.ModeNormal, h.name, h.label); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// hint formats the first chord bound to name, or "" when it is unbound.
func hint(b *dispatch.Bindings, mode dispatch.Mode, name, label string) string {
	if b == nil {
		return ""
	}
	chords := b.Chords(mode, name)
	if len(chords) == 0 {
		return ""
	}
	return chords[0] + ": " + label
}

// keysFor joins every chord bound to name for the help overlay.
func keysFor(b *dispatch.Bindings, mode dispatch.Mode, name string) string {
	if b == nil {
		return ""
	}
	return strings.Join(b.Chords(mode, name), "/")
}
