package dispatch

import (
	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
)

// Resolve maps a chord to an action for mode. It has no side effects: text
// entry keys come back as EditAction and the caller owns the buffer. A nil
// result means the key does nothing in that mode.
func Resolve(mode Mode, c Chord, b *Bindings) Action {
	switch mode {
	case ModeNormal, ModeGPrefix:
		name, ok := b.Lookup(mode, c)
		if !ok {
			return nil
		}
		a, _ := ActionByName(name)
		return a
	case ModeSearch:
		switch c.Key {
		case tcell.KeyEscape:
			return SearchCancelAction{}
		case tcell.KeyEnter:
			return SearchConfirmAction{}
		case tcell.KeyBackspace2:
			return EditAction{Op: EditBackspace}
		case tcell.KeyUp:
			return MoveUpAction{}
		case tcell.KeyDown:
			return MoveDownAction{}
		}
		return editInsert(c)
	case ModePrompt:
		switch c.Key {
		case tcell.KeyEscape:
			return PromptCancelAction{}
		case tcell.KeyEnter:
			return PromptConfirmAction{}
		case tcell.KeyBackspace2:
			return EditAction{Op: EditBackspace}
		case tcell.KeyDelete:
			return EditAction{Op: EditDelete}
		case tcell.KeyLeft:
			return EditAction{Op: EditLeft}
		case tcell.KeyRight:
			return EditAction{Op: EditRight}
		case tcell.KeyHome:
			return EditAction{Op: EditHome}
		case tcell.KeyEnd:
			return EditAction{Op: EditEnd}
		}
		return editInsert(c)
	case ModeDeleteConfirm:
		switch {
		case c == RuneChord('y') || c.Key == tcell.KeyEnter:
			return DeleteConfirmAction{}
		case c == RuneChord('n') || c == RuneChord('q') || c.Key == tcell.KeyEscape:
			return DeleteCancelAction{}
		}
	case ModeHelp:
		if c == RuneChord('?') || c == RuneChord('q') || c.Key == tcell.KeyEscape {
			return CloseOverlayAction{}
		}
	case ModeProperties:
		if c == RuneChord('q') || c.Key == tcell.KeyEscape || c.Key == tcell.KeyEnter {
			return CloseOverlayAction{}
		}
	case ModeFavorites:
		switch {
		case c == RuneChord('j') || c.Key == tcell.KeyDown:
			return FavoritesMoveAction{Delta: 1}
		case c == RuneChord('k') || c.Key == tcell.KeyUp:
			return FavoritesMoveAction{Delta: -1}
		case c.Key == tcell.KeyEnter:
			return FavoritesSelectAction{}
		case c == RuneChord('d') || c.Key == tcell.KeyDelete:
			return FavoritesRemoveAction{}
		case c == RuneChord('a'):
			return FavoriteAddAction{}
		case c == RuneChord('q') || c.Key == tcell.KeyEscape:
			return CloseOverlayAction{}
		}
	case ModeOpenWith:
		switch {
		case c == RuneChord('j') || c.Key == tcell.KeyDown:
			return OpenWithMoveAction{Delta: 1}
		case c == RuneChord('k') || c.Key == tcell.KeyUp:
			return OpenWithMoveAction{Delta: -1}
		case c.Key == tcell.KeyEnter:
			return OpenWithSelectAction{}
		case c == RuneChord('q') || c.Key == tcell.KeyEscape:
			return CloseOverlayAction{}
		}
	case ModeChmod:
		switch {
		case c.Key == tcell.KeyRune && c.Mod == 0 && c.Rune >= '0' && c.Rune <= '9':
			return ChmodDigitAction{Digit: int(c.Rune - '0')}
		case c == RuneChord('o'):
			return ChmodOctalModeAction{}
		case c == RuneChord('r'):
			return ChmodRecursiveAction{}
		case c.Key == tcell.KeyBackspace2:
			return ChmodBackspaceAction{}
		case c.Key == tcell.KeyEnter:
			return ChmodApplyAction{}
		case c.Key == tcell.KeyEscape:
			return CloseOverlayAction{}
		}
	}
	return nil
}

func editInsert(c Chord) Action {
	if c.Printable() {
		return EditAction{Op: EditInsert, Rune: c.Rune}
	}
	return nil
}

// Dispatcher tracks the input mode and edit buffer around Resolve.
//
// Entering a mode is the caller's job, since it usually depends on state the
// dispatcher cannot see (a prompt needs the current name, delete needs a
// target). Leaving is implied by the key: confirm, cancel and close keys
// return to Normal before Handle returns, and GPrefix always lasts exactly
// one key.
type Dispatcher struct {
	mode     Mode
	prompt   PromptKind
	buf      EditBuffer
	bindings *Bindings
	logger   *zap.Logger
}

// New builds a dispatcher in Normal mode.
func New(bindings *Bindings, logger *zap.Logger) *Dispatcher {
	if bindings == nil {
		bindings = DefaultBindings()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{bindings: bindings, logger: logger}
}

func (d *Dispatcher) Mode() Mode { return d.mode }
func (d *Dispatcher) PromptKind() PromptKind { return d.prompt }
func (d *Dispatcher) Bindings() *Bindings { return d.bindings }
func (d *Dispatcher) Buffer() *EditBuffer { return &d.buf }
func (d *Dispatcher) SetBindings(b *Bindings) { d.bindings = b }

// Enter switches to a mode that has no buffer: GPrefix, DeleteConfirm and
// the overlays.
func (d *Dispatcher) Enter(mode Mode) {
	d.mode = mode
	d.buf.Reset()
}

// EnterSearch starts search with an empty query.
func (d *Dispatcher) EnterSearch() {
	d.mode = ModeSearch
	d.buf.Reset()
}

// EnterPrompt starts a prompt prefilled with initial.
func (d *Dispatcher) EnterPrompt(kind PromptKind, initial string) {
	d.mode = ModePrompt
	d.prompt = kind
	d.buf.Set(initial)
}

// Reset returns to Normal and clears the buffer.
func (d *Dispatcher) Reset() {
	d.mode = ModeNormal
	d.buf.Reset()
}

// Handle resolves c in the current mode, applies buffer edits and implied
// mode exits, and returns the action for the orchestrator. It returns nil
// when nothing should happen.
func (d *Dispatcher) Handle(c Chord) Action {
	mode := d.mode
	a := Resolve(mode, c, d.bindings)

	switch mode {
	case ModeGPrefix:
		d.Reset()
		if a == nil {
			d.logger.Debug("g prefix cancelled", zap.Stringer("chord", c))
		}
		return a

	case ModeSearch:
		switch a := a.(type) {
		case EditAction:
			if !d.buf.Apply(a) {
				return nil
			}
			return SearchInputAction{Query: d.buf.String()}
		case SearchConfirmAction:
			query := d.buf.String()
			d.Reset()
			return SearchConfirmAction{Query: query}
		case SearchCancelAction:
			d.Reset()
		}
		return a

	case ModePrompt:
		switch a := a.(type) {
		case EditAction:
			if !d.buf.Apply(a) {
				// cursor moves still need a redraw
				if a.Op == EditInsert || a.Op == EditBackspace || a.Op == EditDelete {
					return nil
				}
			}
			return PromptInputAction{Text: d.buf.String()}
		case PromptConfirmAction:
			confirmed := PromptConfirmAction{Kind: d.prompt, Text: d.buf.String()}
			d.Reset()
			return confirmed
		case PromptCancelAction:
			d.Reset()
		}
		return a
	}

	switch a.(type) {
	case DeleteConfirmAction, DeleteCancelAction, CloseOverlayAction,
		FavoritesSelectAction, OpenWithSelectAction, ChmodApplyAction:
		d.Reset()
	}
	return a
}
