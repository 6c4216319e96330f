package render

import (
	"os"

	"github.com/i-doll/tfl/internal/dispatch"
	"github.com/i-doll/tfl/internal/fs"
	"github.com/i-doll/tfl/internal/preview"
	"github.com/i-doll/tfl/internal/tree"
)

// Frame is everything the renderer needs for one draw. The application
// builds a fresh one per frame; the renderer never reaches back into the
// tree or the preview engine.
type Frame struct {
	Root       string
	Branch     string // git branch of Root, empty outside a work tree
	Entries    []fs.Entry
	View       tree.View
	Cursor     int
	TreeRatio  int
	ShowHidden bool
	SortField  tree.SortField
	SortOrder  tree.SortOrder
	Clipboard  int
	ClipCut    bool

	Preview PreviewPane

	Mode   dispatch.Mode
	Query  string
	Prompt PromptLine
	Status string
	Error  bool

	DeleteTargets []string
	Properties    *fs.Properties
	Chmod         *ChmodView
	Favorites     ListOverlay
	OpenWith      ListOverlay
	Bindings      *dispatch.Bindings
}

// PreviewPane mirrors the preview engine state for the selected entry.
type PreviewPane struct {
	State   preview.State
	Payload *preview.Payload
	Message string
	Mode    preview.Mode
	Scroll  int
}

// PromptLine is the prompt edit buffer.
type PromptLine struct {
	Kind   dispatch.PromptKind
	Text   string
	Cursor int
}

// ChmodView is the permission editor state.
type ChmodView struct {
	Path      string
	Original  os.FileMode
	Mode      os.FileMode
	IsDir     bool
	Recursive bool
	Octal     bool
	Input     string
}

// ListOverlay is a cursor over a list of labels.
type ListOverlay struct {
	Items  []string
	Cursor int
}
