package input

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/i-doll/tfl/internal/dispatch"
)

func newHandler() (*InputHandler, *dispatch.Dispatcher, chan dispatch.Action) {
	actionChan := make(chan dispatch.Action, 4)
	d := dispatch.New(dispatch.DefaultBindings(), nil)
	return NewInputHandler(actionChan, d), d, actionChan
}

func expectAction(t *testing.T, ch chan dispatch.Action) dispatch.Action {
	t.Helper()
	select {
	case a := <-ch:
		return a
	default:
		t.Fatal("expected an action to be emitted")
		return nil
	}
}

func expectNone(t *testing.T, ch chan dispatch.Action) {
	t.Helper()
	select {
	case a := <-ch:
		t.Fatalf("expected no action, got %T", a)
	default:
	}
}

func TestQuestionMarkTogglesHelpInNormalMode(t *testing.T) {
	handler, _, ch := newHandler()

	handler.ProcessEvent(tcell.NewEventKey(tcell.KeyRune, '?', tcell.ModNone))

	if _, ok := expectAction(t, ch).(dispatch.ToggleHelpAction); !ok {
		t.Fatal("expected ToggleHelpAction for '?'")
	}
}

func TestQuitStopsProcessing(t *testing.T) {
	handler, _, ch := newHandler()

	if handler.ProcessEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Fatal("expected 'q' to stop the loop")
	}
	if _, ok := expectAction(t, ch).(dispatch.QuitAction); !ok {
		t.Fatal("expected QuitAction")
	}

	if handler.ProcessEvent(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)) {
		t.Fatal("expected ctrl+c to stop the loop")
	}
	expectAction(t, ch)
}

func TestSearchModeTypesQuitKey(t *testing.T) {
	handler, d, ch := newHandler()
	d.EnterSearch()

	if !handler.ProcessEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Fatal("'q' must not quit while searching")
	}
	got := expectAction(t, ch)
	if got != (dispatch.SearchInputAction{Query: "q"}) {
		t.Fatalf("expected query \"q\", got %#v", got)
	}
}

func TestEscapeClosesHelpBeforeAnythingElse(t *testing.T) {
	handler, d, ch := newHandler()
	d.Enter(dispatch.ModeHelp)

	handler.ProcessEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))

	if _, ok := expectAction(t, ch).(dispatch.CloseOverlayAction); !ok {
		t.Fatal("expected CloseOverlayAction")
	}
	if d.Mode() != dispatch.ModeNormal {
		t.Fatalf("expected normal mode, got %s", d.Mode())
	}
}

func TestUnboundKeyEmitsNothing(t *testing.T) {
	handler, _, ch := newHandler()

	if !handler.ProcessEvent(tcell.NewEventKey(tcell.KeyRune, 'Z', tcell.ModNone)) {
		t.Fatal("unbound key must not quit")
	}
	expectNone(t, ch)
}

func TestResizeEmitsSize(t *testing.T) {
	handler, _, ch := newHandler()

	handler.ProcessEvent(tcell.NewEventResize(120, 40))

	got := expectAction(t, ch)
	if got != (dispatch.ResizeAction{Width: 120, Height: 40}) {
		t.Fatalf("unexpected action %#v", got)
	}
}
