package dispatch

// EditBuffer is a single-line text buffer with a rune cursor.
type EditBuffer struct {
	runes  []rune
	cursor int
}

// Set replaces the text and moves the cursor to the end.
func (b *EditBuffer) Set(s string) {
	b.runes = []rune(s)
	b.cursor = len(b.runes)
}

func (b *EditBuffer) Reset() {
	b.runes = nil
	b.cursor = 0
}

func (b *EditBuffer) String() string {
	return string(b.runes)
}

func (b *EditBuffer) Len() int {
	return len(b.runes)
}

// Cursor is the insertion point in runes.
func (b *EditBuffer) Cursor() int {
	return b.cursor
}

// Apply performs one edit and reports whether the text changed.
func (b *EditBuffer) Apply(e EditAction) bool {
	switch e.Op {
	case EditInsert:
		b.runes = append(b.runes, 0)
		copy(b.runes[b.cursor+1:], b.runes[b.cursor:])
		b.runes[b.cursor] = e.Rune
		b.cursor++
		return true
	case EditBackspace:
		if b.cursor == 0 {
			return false
		}
		b.runes = append(b.runes[:b.cursor-1], b.runes[b.cursor:]...)
		b.cursor--
		return true
	case EditDelete:
		if b.cursor >= len(b.runes) {
			return false
		}
		b.runes = append(b.runes[:b.cursor], b.runes[b.cursor+1:]...)
		return true
	case EditLeft:
		if b.cursor > 0 {
			b.cursor--
		}
	case EditRight:
		if b.cursor < len(b.runes) {
			b.cursor++
		}
	case EditHome:
		b.cursor = 0
	case EditEnd:
		b.cursor = len(b.runes)
	}
	return false
}
