package app

// statusTicks is how many ticks a status message stays on screen.
const statusTicks = 20

type statusLine struct {
	text  string
	isErr bool
	ticks int
}

func (s *statusLine) set(text string) {
	s.text, s.isErr, s.ticks = text, false, statusTicks
}

func (s *statusLine) fail(text string) {
	s.text, s.isErr, s.ticks = text, true, statusTicks
}

func (s *statusLine) clear() {
	*s = statusLine{}
}

// tick ages the message and reports whether it just expired.
func (s *statusLine) tick() bool {
	if s.text == "" {
		return false
	}
	s.ticks--
	if s.ticks > 0 {
		return false
	}
	s.clear()
	return true
}
