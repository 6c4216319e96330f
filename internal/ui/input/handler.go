package input

import (
	"github.com/gdamore/tcell/v2"

	"github.com/i-doll/tfl/internal/dispatch"
)

// InputHandler converts tcell events to Actions
type InputHandler struct {
	actionChan chan dispatch.Action
	dispatcher *dispatch.Dispatcher
}

// NewInputHandler creates a new input handler
func NewInputHandler(actionChan chan dispatch.Action, d *dispatch.Dispatcher) *InputHandler {
	return &InputHandler{
		actionChan: actionChan,
		dispatcher: d,
	}
}

// ProcessEvent converts a tcell event into an Action. It returns false once
// the event asked the program to quit.
func (ih *InputHandler) ProcessEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return ih.processKeyEvent(ev)
	case *tcell.EventResize:
		w, h := ev.Size()
		ih.emit(dispatch.ResizeAction{Width: w, Height: h})
		return true
	default:
		return true
	}
}

func (ih *InputHandler) processKeyEvent(ev *tcell.EventKey) bool {
	action := ih.dispatcher.Handle(dispatch.ChordFromEvent(ev))
	if action == nil {
		return true
	}
	ih.emit(action)
	_, quit := action.(dispatch.QuitAction)
	return !quit
}

func (ih *InputHandler) emit(action dispatch.Action) {
	select {
	case ih.actionChan <- action:
	default:
		// the loop drains after every event; only a burst can fill the buffer
		go func() { ih.actionChan <- action }()
	}
}
