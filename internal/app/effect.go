package app

// Effect names the single kind of change an applied action made.
type Effect int

const (
	EffectNone Effect = iota
	EffectTree
	EffectMode
	EffectPreview
	EffectExternal
	EffectFS
)

var effectNames = [...]string{
	EffectNone:     "none",
	EffectTree:     "tree",
	EffectMode:     "mode",
	EffectPreview:  "preview",
	EffectExternal: "external",
	EffectFS:       "fs",
}

func (e Effect) String() string {
	if e >= 0 && int(e) < len(effectNames) {
		return effectNames[e]
	}
	return "unknown"
}
