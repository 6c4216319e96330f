package dispatch

import (
	"fmt"
	"sort"
)

// Action is the base interface for everything the dispatcher emits. Actions
// are plain comparable values so they can be replayed and compared in tests.
type Action interface{}

// ===== NAVIGATION ACTIONS =====

type MoveUpAction struct{}
type MoveDownAction struct{}
type MoveLeftAction struct{}  // collapse, or jump to the parent entry
type MoveRightAction struct{} // expand
type OpenAction struct{}      // enter a directory or edit a file
type ToggleExpandAction struct{}
type GoParentAction struct{}
type GoHomeAction struct{}
type GoToTopAction struct{}
type GoToBottomAction struct{}
type GPressAction struct{}
type HistoryAction struct {
	Delta int // -1 back, +1 forward
}
type BreadcrumbAction struct {
	Index int // 1-based segment of the root path
}

// ===== SEARCH ACTIONS =====

type SearchStartAction struct{}
type SearchInputAction struct {
	Query string
}
type SearchConfirmAction struct {
	Query string
}
type SearchCancelAction struct{}

// ===== VIEW ACTIONS =====

type ToggleHiddenAction struct{}
type ToggleHelpAction struct{}
type ScrollPreviewUpAction struct{}
type ScrollPreviewDownAction struct{}
type PreviewModeAction struct{}
type ResizeTreeAction struct {
	Delta int
}
type ResizeAction struct {
	Width  int
	Height int
}
type SortCycleAction struct{}
type SortReverseAction struct{}
type ReloadAction struct{}

// ===== SELECTION & FILE ACTIONS =====

type ToggleSelectionAction struct{}
type ClearSelectionAction struct{}
type YankPathAction struct{}
type CutAction struct{}
type CopyAction struct{}
type PasteAction struct{}
type DeleteAction struct{}
type DeleteConfirmAction struct{}
type DeleteCancelAction struct{}
type RenameAction struct{}
type NewFileAction struct{}
type NewDirAction struct{}

// ===== PROMPT ACTIONS =====

type PromptInputAction struct {
	Text string
}
type PromptConfirmAction struct {
	Kind PromptKind
	Text string
}
type PromptCancelAction struct{}

// EditOp is a single edit applied to a text buffer.
type EditOp int

const (
	EditInsert EditOp = iota
	EditBackspace
	EditDelete
	EditLeft
	EditRight
	EditHome
	EditEnd
)

// EditAction is what Resolve returns for text-entry keys. The dispatcher
// applies it to its buffer and emits SearchInputAction or PromptInputAction.
type EditAction struct {
	Op   EditOp
	Rune rune
}

// ===== OVERLAY ACTIONS =====

type CloseOverlayAction struct{}
type PropertiesAction struct{}
type ChmodAction struct{}
type ChmodDigitAction struct {
	Digit int
}
type ChmodOctalModeAction struct{}
type ChmodRecursiveAction struct{}
type ChmodBackspaceAction struct{}
type ChmodApplyAction struct{}
type FavoritesAction struct{}
type FavoriteAddAction struct{}
type FavoritesMoveAction struct {
	Delta int
}
type FavoritesSelectAction struct{}
type FavoritesRemoveAction struct{}
type OpenWithAction struct{}
type OpenWithMoveAction struct {
	Delta int
}
type OpenWithSelectAction struct{}

// ===== APPLICATION ACTIONS =====

type QuitAction struct{}
type OpenEditorAction struct{}
type OpenShellAction struct{}
type SuspendAction struct{}

// UnbindName removes a chord from a binding table.
const UnbindName = "none"

var namedActions = map[string]Action{
	"quit":                QuitAction{},
	"move_up":             MoveUpAction{},
	"move_down":           MoveDownAction{},
	"move_left":           MoveLeftAction{},
	"move_right":          MoveRightAction{},
	"open":                OpenAction{},
	"toggle_expand":       ToggleExpandAction{},
	"go_parent":           GoParentAction{},
	"go_home":             GoHomeAction{},
	"go_to_top":           GoToTopAction{},
	"go_to_bottom":        GoToBottomAction{},
	"g_press":             GPressAction{},
	"history_back":        HistoryAction{Delta: -1},
	"history_forward":     HistoryAction{Delta: 1},
	"search_start":        SearchStartAction{},
	"toggle_hidden":       ToggleHiddenAction{},
	"toggle_help":         ToggleHelpAction{},
	"scroll_preview_up":   ScrollPreviewUpAction{},
	"scroll_preview_down": ScrollPreviewDownAction{},
	"preview_mode":        PreviewModeAction{},
	"shrink_tree":         ResizeTreeAction{Delta: -TreeRatioStep},
	"grow_tree":           ResizeTreeAction{Delta: TreeRatioStep},
	"sort_cycle":          SortCycleAction{},
	"sort_reverse":        SortReverseAction{},
	"reload":              ReloadAction{},
	"toggle_selection":    ToggleSelectionAction{},
	"clear_selection":     ClearSelectionAction{},
	"yank_path":           YankPathAction{},
	"cut":                 CutAction{},
	"copy":                CopyAction{},
	"paste":               PasteAction{},
	"delete":              DeleteAction{},
	"rename":              RenameAction{},
	"new_file":            NewFileAction{},
	"new_dir":             NewDirAction{},
	"properties":          PropertiesAction{},
	"chmod":               ChmodAction{},
	"favorites":           FavoritesAction{},
	"favorite_add":        FavoriteAddAction{},
	"open_with":           OpenWithAction{},
	"open_editor":         OpenEditorAction{},
	"open_shell":          OpenShellAction{},
	"suspend":             SuspendAction{},
}

// TreeRatioStep is how far grow_tree and shrink_tree move the split.
const TreeRatioStep = 5

func init() {
	for i := 1; i <= 9; i++ {
		namedActions[fmt.Sprintf("breadcrumb_%d", i)] = BreadcrumbAction{Index: i}
	}
}

// ActionByName returns the action bound to a config name.
func ActionByName(name string) (Action, bool) {
	a, ok := namedActions[name]
	return a, ok
}

// ActionNames lists every bindable name in sorted order.
func ActionNames() []string {
	names := make([]string, 0, len(namedActions))
	for n := range namedActions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
