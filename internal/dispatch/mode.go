// Package dispatch turns key chords into actions. It owns the input mode,
// the binding table and the text buffers used by search and prompts; it
// never touches the tree or the preview engine.
package dispatch

// Mode is the input mode. Exactly one is active at a time.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeGPrefix
	ModePrompt
	ModeDeleteConfirm
	ModeHelp
	ModeProperties
	ModeChmod
	ModeFavorites
	ModeOpenWith
)

var modeNames = [...]string{
	ModeNormal:        "normal",
	ModeSearch:        "search",
	ModeGPrefix:       "g_prefix",
	ModePrompt:        "prompt",
	ModeDeleteConfirm: "delete_confirm",
	ModeHelp:          "help",
	ModeProperties:    "properties",
	ModeChmod:         "chmod",
	ModeFavorites:     "favorites",
	ModeOpenWith:      "open_with",
}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// TextEntry reports whether character keys feed an edit buffer.
func (m Mode) TextEntry() bool {
	return m == ModeSearch || m == ModePrompt
}

// Overlay reports whether the mode draws a modal overlay.
func (m Mode) Overlay() bool {
	switch m {
	case ModeHelp, ModeProperties, ModeChmod, ModeFavorites, ModeOpenWith:
		return true
	}
	return false
}

// Bindable reports whether the mode reads a configurable binding table.
// The other modes have fixed keymaps.
func (m Mode) Bindable() bool {
	return m == ModeNormal || m == ModeGPrefix
}

// ParseMode maps a config section name to a mode.
func ParseMode(name string) (Mode, bool) {
	for i, n := range modeNames {
		if n == name {
			return Mode(i), true
		}
	}
	return 0, false
}

// PromptKind says what a confirmed prompt creates or changes.
type PromptKind int

const (
	PromptRename PromptKind = iota
	PromptNewFile
	PromptNewDir
)

func (k PromptKind) String() string {
	switch k {
	case PromptNewFile:
		return "new file"
	case PromptNewDir:
		return "new directory"
	default:
		return "rename"
	}
}
