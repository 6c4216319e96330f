package render

import "github.com/gdamore/tcell/v2"

// ColorTheme defines application colors.
type ColorTheme struct {
	Background  tcell.Color
	Foreground  tcell.Color
	HiddenFg    tcell.Color
	SelectionBg tcell.Color
	SelectionFg tcell.Color
	MarkedFg    tcell.Color
	DirectoryFg tcell.Color
	SymlinkFg   tcell.Color
	FileFg      tcell.Color
	StatusTagFg tcell.Color
	FooterBg    tcell.Color
	FooterFg    tcell.Color
	PreviewBg   tcell.Color
	PreviewFg   tcell.Color
	BorderFg    tcell.Color
	ErrorFg     tcell.Color
	ErrorBg     tcell.Color
	InfoFg      tcell.Color
	PromptFg    tcell.Color
}

// GetColorTheme returns the default color scheme.
func GetColorTheme() ColorTheme {
	return ColorTheme{
		Background:  tcell.ColorDefault,
		Foreground:  tcell.ColorDefault,
		HiddenFg:    tcell.ColorLightSlateGray,
		SelectionBg: tcell.Color33,
		SelectionFg: tcell.ColorWhite,
		MarkedFg:    tcell.Color214, // amber for marked entries
		DirectoryFg: tcell.Color33,
		SymlinkFg:   tcell.Color51,
		FileFg:      tcell.ColorDefault,
		StatusTagFg: tcell.Color141,
		FooterBg:    tcell.Color236,
		FooterFg:    tcell.Color252,
		PreviewBg:   tcell.ColorDefault,
		PreviewFg:   tcell.ColorDefault,
		BorderFg:    tcell.Color244,
		ErrorFg:     tcell.ColorWhite,
		ErrorBg:     tcell.Color160,
		InfoFg:      tcell.Color114,
		PromptFg:    tcell.Color220,
	}
}
