package dispatch

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

// Chord is a key plus modifiers. Printable keys use Key == tcell.KeyRune and
// carry the rune as typed, so "G" is a rune chord without a shift modifier.
// Control letters are normalised to Rune 'a'..'z' with ModCtrl.
type Chord struct {
	Key  tcell.Key
	Rune rune
	Mod  tcell.ModMask
}

// RuneChord builds an unmodified printable chord.
func RuneChord(r rune) Chord {
	return Chord{Key: tcell.KeyRune, Rune: r}
}

// KeyChord builds a chord for a named key.
func KeyChord(k tcell.Key) Chord {
	return Chord{Key: k}
}

// CtrlChord builds ctrl+letter.
func CtrlChord(r rune) Chord {
	return Chord{Key: tcell.KeyRune, Rune: unicode.ToLower(r), Mod: tcell.ModCtrl}
}

// Printable reports whether the chord should be typed into a text buffer.
func (c Chord) Printable() bool {
	return c.Key == tcell.KeyRune && c.Mod&(tcell.ModCtrl|tcell.ModAlt) == 0 && unicode.IsPrint(c.Rune)
}

var namedKeys = map[string]tcell.Key{
	"enter":     tcell.KeyEnter,
	"return":    tcell.KeyEnter,
	"esc":       tcell.KeyEscape,
	"escape":    tcell.KeyEscape,
	"tab":       tcell.KeyTab,
	"backtab":   tcell.KeyBacktab,
	"backspace": tcell.KeyBackspace2,
	"delete":    tcell.KeyDelete,
	"del":       tcell.KeyDelete,
	"insert":    tcell.KeyInsert,
	"up":        tcell.KeyUp,
	"down":      tcell.KeyDown,
	"left":      tcell.KeyLeft,
	"right":     tcell.KeyRight,
	"home":      tcell.KeyHome,
	"end":       tcell.KeyEnd,
	"pgup":      tcell.KeyPgUp,
	"pageup":    tcell.KeyPgUp,
	"pgdn":      tcell.KeyPgDn,
	"pagedown":  tcell.KeyPgDn,
}

var keyNames = map[tcell.Key]string{
	tcell.KeyEnter:      "enter",
	tcell.KeyEscape:     "esc",
	tcell.KeyTab:        "tab",
	tcell.KeyBacktab:    "backtab",
	tcell.KeyBackspace2: "backspace",
	tcell.KeyDelete:     "delete",
	tcell.KeyInsert:     "insert",
	tcell.KeyUp:         "up",
	tcell.KeyDown:       "down",
	tcell.KeyLeft:       "left",
	tcell.KeyRight:      "right",
	tcell.KeyHome:       "home",
	tcell.KeyEnd:        "end",
	tcell.KeyPgUp:       "pgup",
	tcell.KeyPgDn:       "pgdn",
}

func init() {
	for i := 1; i <= 12; i++ {
		k := tcell.KeyF1 + tcell.Key(i-1)
		name := fmt.Sprintf("f%d", i)
		namedKeys[name] = k
		keyNames[k] = name
	}
}

// ParseChord parses chords such as "j", "G", "ctrl+c", "alt+x", "shift+tab",
// "space" and "enter". Modifier and key names are case-insensitive except
// for single printable characters.
func ParseChord(s string) (Chord, error) {
	if s == "" {
		return Chord{}, fmt.Errorf("empty key chord")
	}
	parts := strings.Split(s, "+")
	if strings.HasSuffix(s, "+") {
		// "+" and "alt++" name the plus key itself
		if len(parts) < 2 || parts[len(parts)-2] != "" {
			return Chord{}, fmt.Errorf("missing key in %q", s)
		}
		parts = append(parts[:len(parts)-2], "+")
	}
	keyName := parts[len(parts)-1]

	var mod tcell.ModMask
	for _, m := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(m)) {
		case "ctrl", "control":
			mod |= tcell.ModCtrl
		case "alt", "meta":
			mod |= tcell.ModAlt
		case "shift":
			mod |= tcell.ModShift
		default:
			return Chord{}, fmt.Errorf("unknown modifier %q in %q", m, s)
		}
	}

	if utf8.RuneCountInString(keyName) == 1 {
		r, _ := utf8.DecodeRuneInString(keyName)
		if !unicode.IsPrint(r) {
			return Chord{}, fmt.Errorf("unprintable key in %q", s)
		}
		if mod&tcell.ModCtrl != 0 {
			if !unicode.IsLetter(r) || r > unicode.MaxASCII {
				return Chord{}, fmt.Errorf("ctrl only combines with ASCII letters: %q", s)
			}
			return Chord{Key: tcell.KeyRune, Rune: unicode.ToLower(r), Mod: mod &^ tcell.ModShift}, nil
		}
		if mod&tcell.ModShift != 0 {
			r = unicode.ToUpper(r)
			mod &^= tcell.ModShift
		}
		return Chord{Key: tcell.KeyRune, Rune: r, Mod: mod}, nil
	}

	name := strings.ToLower(keyName)
	if name == "space" {
		return Chord{Key: tcell.KeyRune, Rune: ' ', Mod: mod &^ tcell.ModShift}, nil
	}
	if name == "tab" && mod&tcell.ModShift != 0 {
		return Chord{Key: tcell.KeyBacktab, Mod: mod &^ tcell.ModShift}, nil
	}
	k, ok := namedKeys[name]
	if !ok {
		return Chord{}, fmt.Errorf("unknown key %q in %q", keyName, s)
	}
	return Chord{Key: k, Mod: mod}, nil
}

// ChordFromEvent normalises a tcell key event into a chord.
func ChordFromEvent(ev *tcell.EventKey) Chord {
	mod := ev.Modifiers() & (tcell.ModCtrl | tcell.ModAlt | tcell.ModShift)
	key := ev.Key()

	switch {
	case key == tcell.KeyRune:
		r := ev.Rune()
		if mod&tcell.ModShift != 0 {
			// Shift+a arrives as 'a' on some terminals
			r = unicode.ToUpper(r)
		}
		if mod&tcell.ModCtrl != 0 {
			r = unicode.ToLower(r)
		}
		return Chord{Key: tcell.KeyRune, Rune: r, Mod: mod &^ tcell.ModShift}
	case key == tcell.KeyBackspace || key == tcell.KeyBackspace2:
		if key == tcell.KeyBackspace && mod&tcell.ModCtrl != 0 {
			return CtrlChord('h')
		}
		return Chord{Key: tcell.KeyBackspace2, Mod: mod &^ tcell.ModCtrl}
	case key == tcell.KeyTab || key == tcell.KeyEnter || key == tcell.KeyEscape:
		return Chord{Key: key, Mod: mod &^ tcell.ModCtrl}
	case key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ:
		return CtrlChord(rune('a' + key - tcell.KeyCtrlA))
	}
	return Chord{Key: key, Mod: mod}
}

// String renders the chord in ParseChord syntax.
func (c Chord) String() string {
	var b strings.Builder
	if c.Mod&tcell.ModCtrl != 0 {
		b.WriteString("ctrl+")
	}
	if c.Mod&tcell.ModAlt != 0 {
		b.WriteString("alt+")
	}
	if c.Mod&tcell.ModShift != 0 {
		b.WriteString("shift+")
	}
	switch {
	case c.Key == tcell.KeyRune && c.Rune == ' ':
		b.WriteString("space")
	case c.Key == tcell.KeyRune:
		b.WriteRune(c.Rune)
	default:
		if name, ok := keyNames[c.Key]; ok {
			b.WriteString(name)
		} else {
			fmt.Fprintf(&b, "key(%d)", int(c.Key))
		}
	}
	return b.String()
}
