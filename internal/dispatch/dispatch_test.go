package dispatch

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func mustChord(t *testing.T, s string) Chord {
	t.Helper()
	c, err := ParseChord(s)
	if err != nil {
		t.Fatalf("ParseChord(%q): %v", s, err)
	}
	return c
}

func TestParseChord(t *testing.T) {
	tests := []struct {
		in   string
		want Chord
	}{
		{"j", RuneChord('j')},
		{"G", RuneChord('G')},
		{"shift+g", RuneChord('G')},
		{"ctrl+c", CtrlChord('c')},
		{"Ctrl+C", CtrlChord('c')},
		{"alt+x", Chord{Key: tcell.KeyRune, Rune: 'x', Mod: tcell.ModAlt}},
		{"space", RuneChord(' ')},
		{"enter", KeyChord(tcell.KeyEnter)},
		{"Esc", KeyChord(tcell.KeyEscape)},
		{"backspace", KeyChord(tcell.KeyBackspace2)},
		{"shift+tab", KeyChord(tcell.KeyBacktab)},
		{"shift+up", Chord{Key: tcell.KeyUp, Mod: tcell.ModShift}},
		{"f5", KeyChord(tcell.KeyF5)},
		{"+", RuneChord('+')},
		{"alt++", Chord{Key: tcell.KeyRune, Rune: '+', Mod: tcell.ModAlt}},
		{"<", RuneChord('<')},
	}
	for _, tt := range tests {
		got, err := ParseChord(tt.in)
		if err != nil {
			t.Fatalf("ParseChord(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseChord(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestParseChordRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "ctrl+", "hyper+x", "ctrl+1", "bogus", "a+b+"} {
		if _, err := ParseChord(in); err == nil {
			t.Fatalf("ParseChord(%q) should fail", in)
		}
	}
}

func TestChordStringRoundTrip(t *testing.T) {
	for _, s := range []string{"j", "G", "ctrl+c", "alt+x", "space", "enter", "esc", "backspace", "shift+up", "f12", "pgdn"} {
		c := mustChord(t, s)
		if c.String() != s {
			t.Fatalf("chord %q renders as %q", s, c.String())
		}
	}
}

func TestChordFromEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want Chord
	}{
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone), RuneChord('j')},
		{"shifted rune", tcell.NewEventKey(tcell.KeyRune, 'g', tcell.ModShift), RuneChord('G')},
		{"ctrl key", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), CtrlChord('c')},
		{"ctrl rune", tcell.NewEventKey(tcell.KeyRune, 'c', tcell.ModCtrl), CtrlChord('c')},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), KeyChord(tcell.KeyEnter)},
		{"tab", tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone), KeyChord(tcell.KeyTab)},
		{"backspace", tcell.NewEventKey(tcell.KeyBackspace, 0, tcell.ModNone), KeyChord(tcell.KeyBackspace2)},
		{"backspace2", tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), KeyChord(tcell.KeyBackspace2)},
		{"space", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), RuneChord(' ')},
		{"arrow", tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), KeyChord(tcell.KeyDown)},
	}
	for _, tt := range tests {
		if got := ChordFromEvent(tt.ev); got != tt.want {
			t.Fatalf("%s: got %#v, want %#v", tt.name, got, tt.want)
		}
	}
}

func TestDefaultBindingsResolve(t *testing.T) {
	b := DefaultBindings()
	tests := []struct {
		mode  Mode
		chord string
		want  Action
	}{
		{ModeNormal, "q", QuitAction{}},
		{ModeNormal, "ctrl+c", QuitAction{}},
		{ModeNormal, "j", MoveDownAction{}},
		{ModeNormal, "down", MoveDownAction{}},
		{ModeNormal, "h", MoveLeftAction{}},
		{ModeNormal, "l", MoveRightAction{}},
		{ModeNormal, "enter", OpenAction{}},
		{ModeNormal, "tab", ToggleExpandAction{}},
		{ModeNormal, "G", GoToBottomAction{}},
		{ModeNormal, "g", GPressAction{}},
		{ModeNormal, "/", SearchStartAction{}},
		{ModeNormal, "J", ScrollPreviewDownAction{}},
		{ModeNormal, "<", ResizeTreeAction{Delta: -5}},
		{ModeNormal, ">", ResizeTreeAction{Delta: 5}},
		{ModeNormal, "space", ToggleSelectionAction{}},
		{ModeNormal, "[", HistoryAction{Delta: -1}},
		{ModeNormal, "]", HistoryAction{Delta: 1}},
		{ModeNormal, "m", PreviewModeAction{}},
		{ModeGPrefix, "g", GoToTopAction{}},
		{ModeGPrefix, "h", GoHomeAction{}},
		{ModeGPrefix, "e", GoToBottomAction{}},
		{ModeGPrefix, "3", BreadcrumbAction{Index: 3}},
	}
	for _, tt := range tests {
		got := Resolve(tt.mode, mustChord(t, tt.chord), b)
		if got != tt.want {
			t.Fatalf("%s %q: got %#v, want %#v", tt.mode, tt.chord, got, tt.want)
		}
	}

	if got := Resolve(ModeNormal, RuneChord('Z'), b); got != nil {
		t.Fatalf("unmapped key should resolve to nil, got %#v", got)
	}
}

func TestLoadBindingsOverridesAndSkipsBadEntries(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b, errs := LoadBindings(map[string]map[string]string{
		"normal": {
			"j":       "move_up",
			"ctrl+x":  "cut",
			"q":       "none",
			"hyper+k": "quit",
			"w":       "teleport",
		},
		"g_prefix": {"t": "go_to_top"},
		"visual":   {"v": "quit"},
	}, zap.New(core))

	if len(errs) != 3 {
		t.Fatalf("expected 3 skipped entries, got %d: %v", len(errs), errs)
	}
	if logs.Len() != 3 {
		t.Fatalf("expected 3 warnings, got %d", logs.Len())
	}

	if got := Resolve(ModeNormal, RuneChord('j'), b); got != (MoveUpAction{}) {
		t.Fatalf("override not applied: %#v", got)
	}
	if got := Resolve(ModeNormal, CtrlChord('x'), b); got != (CutAction{}) {
		t.Fatalf("new binding not applied: %#v", got)
	}
	if got := Resolve(ModeNormal, RuneChord('q'), b); got != nil {
		t.Fatalf("'none' should unbind, got %#v", got)
	}
	if got := Resolve(ModeNormal, CtrlChord('c'), b); got != (QuitAction{}) {
		t.Fatalf("untouched default lost: %#v", got)
	}
	if got := Resolve(ModeGPrefix, RuneChord('t'), b); got != (GoToTopAction{}) {
		t.Fatalf("g prefix override not applied: %#v", got)
	}
	if got := Resolve(ModeNormal, RuneChord('w'), b); got != nil {
		t.Fatalf("unknown action should be skipped, got %#v", got)
	}
}

func TestLoadBindingsDoesNotMutateDefaults(t *testing.T) {
	if _, errs := LoadBindings(map[string]map[string]string{"normal": {"j": "none"}}, nil); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got := Resolve(ModeNormal, RuneChord('j'), DefaultBindings()); got != (MoveDownAction{}) {
		t.Fatalf("defaults were mutated: %#v", got)
	}
}

func TestBindingsChords(t *testing.T) {
	got := DefaultBindings().Chords(ModeNormal, "move_down")
	if len(got) != 2 || got[0] != "j" || got[1] != "down" {
		t.Fatalf("unexpected chords %v", got)
	}
}

func TestGPrefixLastsOneKey(t *testing.T) {
	d := New(nil, nil)
	d.Enter(ModeGPrefix)

	if got := d.Handle(RuneChord('g')); got != (GoToTopAction{}) {
		t.Fatalf("expected GoToTopAction, got %#v", got)
	}
	if d.Mode() != ModeNormal {
		t.Fatalf("expected normal mode, got %s", d.Mode())
	}

	d.Enter(ModeGPrefix)
	if got := d.Handle(RuneChord('x')); got != nil {
		t.Fatalf("unrecognised key should cancel silently, got %#v", got)
	}
	if d.Mode() != ModeNormal {
		t.Fatalf("expected normal mode after cancel, got %s", d.Mode())
	}
}

func TestSearchBufferFlow(t *testing.T) {
	d := New(nil, nil)
	d.EnterSearch()

	var last Action
	for _, r := range "main" {
		last = d.Handle(RuneChord(r))
	}
	if last != (SearchInputAction{Query: "main"}) {
		t.Fatalf("unexpected action %#v", last)
	}
	if got := d.Handle(KeyChord(tcell.KeyBackspace2)); got != (SearchInputAction{Query: "mai"}) {
		t.Fatalf("backspace: %#v", got)
	}
	if got := d.Handle(CtrlChord('x')); got != nil {
		t.Fatalf("control chords are not typed, got %#v", got)
	}
	if got := d.Handle(KeyChord(tcell.KeyEnter)); got != (SearchConfirmAction{Query: "mai"}) {
		t.Fatalf("confirm: %#v", got)
	}
	if d.Mode() != ModeNormal || d.Buffer().Len() != 0 {
		t.Fatalf("confirm should leave search: mode=%s buffer=%q", d.Mode(), d.Buffer().String())
	}

	d.EnterSearch()
	d.Handle(RuneChord('a'))
	if got := d.Handle(KeyChord(tcell.KeyEscape)); got != (SearchCancelAction{}) {
		t.Fatalf("cancel: %#v", got)
	}
	if d.Mode() != ModeNormal {
		t.Fatalf("cancel should leave search, mode=%s", d.Mode())
	}
}

func TestSearchBackspaceOnEmptyIsNoop(t *testing.T) {
	d := New(nil, nil)
	d.EnterSearch()
	if got := d.Handle(KeyChord(tcell.KeyBackspace2)); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
	if d.Mode() != ModeSearch {
		t.Fatalf("mode changed to %s", d.Mode())
	}
}

func TestPromptEditing(t *testing.T) {
	d := New(nil, nil)
	d.EnterPrompt(PromptRename, "notes.txt")

	d.Handle(KeyChord(tcell.KeyHome))
	d.Handle(RuneChord('_'))
	d.Handle(KeyChord(tcell.KeyEnd))
	d.Handle(KeyChord(tcell.KeyLeft))
	d.Handle(KeyChord(tcell.KeyLeft))
	d.Handle(KeyChord(tcell.KeyLeft))
	d.Handle(KeyChord(tcell.KeyLeft))
	if got := d.Handle(KeyChord(tcell.KeyDelete)); got != (PromptInputAction{Text: "_notestxt"}) {
		t.Fatalf("delete: %#v", got)
	}
	if got := d.Handle(RuneChord('-')); got != (PromptInputAction{Text: "_notes-txt"}) {
		t.Fatalf("insert: %#v", got)
	}
	if got := d.Handle(RuneChord('q')); got != (PromptInputAction{Text: "_notes-qtxt"}) {
		t.Fatalf("'q' is typed in prompts: %#v", got)
	}

	got := d.Handle(KeyChord(tcell.KeyEnter))
	want := PromptConfirmAction{Kind: PromptRename, Text: "_notes-qtxt"}
	if got != want {
		t.Fatalf("confirm: got %#v want %#v", got, want)
	}
	if d.Mode() != ModeNormal {
		t.Fatalf("expected normal mode, got %s", d.Mode())
	}
}

func TestPromptCancel(t *testing.T) {
	d := New(nil, nil)
	d.EnterPrompt(PromptNewDir, "")
	d.Handle(RuneChord('x'))
	if got := d.Handle(KeyChord(tcell.KeyEscape)); got != (PromptCancelAction{}) {
		t.Fatalf("cancel: %#v", got)
	}
	if d.Mode() != ModeNormal || d.Buffer().String() != "" {
		t.Fatal("cancel should clear the prompt")
	}
}

func TestDeleteConfirmKeys(t *testing.T) {
	tests := []struct {
		chord Chord
		want  Action
		mode  Mode
	}{
		{RuneChord('y'), DeleteConfirmAction{}, ModeNormal},
		{KeyChord(tcell.KeyEnter), DeleteConfirmAction{}, ModeNormal},
		{RuneChord('n'), DeleteCancelAction{}, ModeNormal},
		{RuneChord('q'), DeleteCancelAction{}, ModeNormal},
		{KeyChord(tcell.KeyEscape), DeleteCancelAction{}, ModeNormal},
		{RuneChord('j'), nil, ModeDeleteConfirm},
	}
	for _, tt := range tests {
		d := New(nil, nil)
		d.Enter(ModeDeleteConfirm)
		if got := d.Handle(tt.chord); got != tt.want {
			t.Fatalf("%s: got %#v want %#v", tt.chord, got, tt.want)
		}
		if d.Mode() != tt.mode {
			t.Fatalf("%s: mode %s, want %s", tt.chord, d.Mode(), tt.mode)
		}
	}
}

func TestOverlayKeymaps(t *testing.T) {
	tests := []struct {
		mode  Mode
		chord Chord
		want  Action
	}{
		{ModeHelp, RuneChord('?'), CloseOverlayAction{}},
		{ModeHelp, RuneChord('j'), nil},
		{ModeProperties, KeyChord(tcell.KeyEnter), CloseOverlayAction{}},
		{ModeFavorites, RuneChord('j'), FavoritesMoveAction{Delta: 1}},
		{ModeFavorites, KeyChord(tcell.KeyUp), FavoritesMoveAction{Delta: -1}},
		{ModeFavorites, RuneChord('d'), FavoritesRemoveAction{}},
		{ModeFavorites, RuneChord('a'), FavoriteAddAction{}},
		{ModeFavorites, RuneChord('x'), nil},
		{ModeOpenWith, KeyChord(tcell.KeyEnter), OpenWithSelectAction{}},
		{ModeOpenWith, RuneChord(' '), nil},
		{ModeChmod, RuneChord('7'), ChmodDigitAction{Digit: 7}},
		{ModeChmod, RuneChord('o'), ChmodOctalModeAction{}},
		{ModeChmod, RuneChord('r'), ChmodRecursiveAction{}},
		{ModeChmod, KeyChord(tcell.KeyBackspace2), ChmodBackspaceAction{}},
		{ModeChmod, KeyChord(tcell.KeyEnter), ChmodApplyAction{}},
	}
	for _, tt := range tests {
		if got := Resolve(tt.mode, tt.chord, DefaultBindings()); got != tt.want {
			t.Fatalf("%s %s: got %#v want %#v", tt.mode, tt.chord, got, tt.want)
		}
	}
}

func TestOverlayStaysOpenUntilClosed(t *testing.T) {
	d := New(nil, nil)
	d.Enter(ModeFavorites)
	d.Handle(RuneChord('j'))
	if d.Mode() != ModeFavorites {
		t.Fatalf("navigation closed the overlay")
	}
	d.Handle(KeyChord(tcell.KeyEnter))
	if d.Mode() != ModeNormal {
		t.Fatalf("select should close the overlay, mode=%s", d.Mode())
	}
}

func TestActionNamesAreResolvable(t *testing.T) {
	for _, name := range ActionNames() {
		if _, ok := ActionByName(name); !ok {
			t.Fatalf("name %q not resolvable", name)
		}
	}
	for _, name := range defaultNormal {
		if _, ok := ActionByName(name); !ok {
			t.Fatalf("default binding uses unknown action %q", name)
		}
	}
}

func TestEditBuffer(t *testing.T) {
	var b EditBuffer
	b.Set("héllo")
	if b.Cursor() != 5 {
		t.Fatalf("cursor counts runes, got %d", b.Cursor())
	}
	b.Apply(EditAction{Op: EditBackspace})
	b.Apply(EditAction{Op: EditHome})
	if b.Apply(EditAction{Op: EditBackspace}) {
		t.Fatal("backspace at start must not change text")
	}
	b.Apply(EditAction{Op: EditDelete})
	if b.String() != "éll" {
		t.Fatalf("unexpected text %q", b.String())
	}
	b.Apply(EditAction{Op: EditEnd})
	if b.Apply(EditAction{Op: EditDelete}) {
		t.Fatal("delete at end must not change text")
	}
	b.Apply(EditAction{Op: EditRight})
	if b.Cursor() != 3 {
		t.Fatalf("cursor moved past end: %d", b.Cursor())
	}
}

func TestModeHelpers(t *testing.T) {
	if m, ok := ParseMode("g_prefix"); !ok || m != ModeGPrefix {
		t.Fatalf("ParseMode(g_prefix) = %v, %v", m, ok)
	}
	if !ModeSearch.TextEntry() || ModeNormal.TextEntry() {
		t.Fatal("TextEntry is wrong")
	}
	if !ModeChmod.Overlay() || ModePrompt.Overlay() {
		t.Fatal("Overlay is wrong")
	}
	if ModeHelp.Bindable() {
		t.Fatal("fixed keymaps must not be bindable")
	}
}
