package dispatch

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Bindings maps (mode, chord) to an action name for the configurable modes.
type Bindings struct {
	tables map[Mode]map[Chord]string
}

var defaultNormal = map[string]string{
	"q":         "quit",
	"ctrl+c":    "quit",
	"ctrl+z":    "suspend",
	"j":         "move_down",
	"down":      "move_down",
	"k":         "move_up",
	"up":        "move_up",
	"h":         "move_left",
	"left":      "move_left",
	"l":         "move_right",
	"right":     "move_right",
	"enter":     "open",
	"tab":       "toggle_expand",
	"backspace": "go_parent",
	"~":         "go_home",
	".":         "toggle_hidden",
	"G":         "go_to_bottom",
	"g":         "g_press",
	"/":         "search_start",
	"J":         "scroll_preview_down",
	"K":         "scroll_preview_up",
	"y":         "yank_path",
	"e":         "open_editor",
	"S":         "open_shell",
	"o":         "open_with",
	"<":         "shrink_tree",
	">":         "grow_tree",
	"?":         "toggle_help",
	"space":     "toggle_selection",
	"esc":       "clear_selection",
	"x":         "cut",
	"c":         "copy",
	"p":         "paste",
	"d":         "delete",
	"r":         "rename",
	"n":         "new_file",
	"N":         "new_dir",
	"P":         "chmod",
	"i":         "properties",
	"f":         "favorites",
	"F":         "favorite_add",
	"[":         "history_back",
	"]":         "history_forward",
	"R":         "reload",
	"s":         "sort_cycle",
	"O":         "sort_reverse",
	"m":         "preview_mode",
}

var defaultGPrefix = map[string]string{
	"g": "go_to_top",
	"h": "go_home",
	"e": "go_to_bottom",
	"1": "breadcrumb_1",
	"2": "breadcrumb_2",
	"3": "breadcrumb_3",
	"4": "breadcrumb_4",
	"5": "breadcrumb_5",
	"6": "breadcrumb_6",
	"7": "breadcrumb_7",
	"8": "breadcrumb_8",
	"9": "breadcrumb_9",
}

// DefaultBindings returns the built-in tables.
func DefaultBindings() *Bindings {
	b := &Bindings{tables: map[Mode]map[Chord]string{
		ModeNormal:  {},
		ModeGPrefix: {},
	}}
	for mode, table := range map[Mode]map[string]string{ModeNormal: defaultNormal, ModeGPrefix: defaultGPrefix} {
		for chord, name := range table {
			c, err := ParseChord(chord)
			if err != nil {
				panic(fmt.Sprintf("bad default binding %q: %v", chord, err))
			}
			b.tables[mode][c] = name
		}
	}
	return b
}

// LoadBindings merges user overrides, keyed by mode name then chord, over
// the defaults. Bad entries are logged and skipped; the returned errors
// describe them for callers that want to surface them.
func LoadBindings(overrides map[string]map[string]string, logger *zap.Logger) (*Bindings, []error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := DefaultBindings()
	var errs []error
	skip := func(err error, fields ...zap.Field) {
		errs = append(errs, err)
		logger.Warn("skipping key binding", append(fields, zap.Error(err))...)
	}

	for _, modeName := range sortedKeys(overrides) {
		mode, ok := ParseMode(modeName)
		if !ok || !mode.Bindable() {
			skip(fmt.Errorf("unknown binding mode %q", modeName), zap.String("mode", modeName))
			continue
		}
		table := overrides[modeName]
		for _, chordStr := range sortedKeys(table) {
			name := table[chordStr]
			chord, err := ParseChord(chordStr)
			if err != nil {
				skip(err, zap.String("mode", modeName), zap.String("chord", chordStr))
				continue
			}
			if name == UnbindName {
				delete(b.tables[mode], chord)
				continue
			}
			if _, ok := ActionByName(name); !ok {
				skip(fmt.Errorf("unknown action %q for %s", name, chordStr),
					zap.String("mode", modeName), zap.String("chord", chordStr))
				continue
			}
			b.tables[mode][chord] = name
		}
	}
	return b, errs
}

// Lookup returns the action name bound to chord in mode.
func (b *Bindings) Lookup(mode Mode, c Chord) (string, bool) {
	if b == nil {
		return "", false
	}
	name, ok := b.tables[mode][c]
	return name, ok
}

// Chords lists the chords bound to name in mode, sorted for display.
func (b *Bindings) Chords(mode Mode, name string) []string {
	var out []string
	for c, n := range b.tables[mode] {
		if n == name {
			out = append(out, c.String())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// Len is the number of bindings in mode.
func (b *Bindings) Len(mode Mode) int {
	return len(b.tables[mode])
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
