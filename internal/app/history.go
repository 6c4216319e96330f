package app

const historyLimit = 50

// history holds visited roots. Going back pushes the current root onto the
// forward stack and vice versa.
type history struct {
	back    []string
	forward []string
}

// push records dir before a navigation. A new navigation drops the forward
// stack.
func (h *history) push(dir string) {
	h.back = pushBounded(h.back, dir)
	h.forward = h.forward[:0]
}

func (h *history) goBack(current string) (string, bool) {
	if len(h.back) == 0 {
		return "", false
	}
	dir := h.back[len(h.back)-1]
	h.back = h.back[:len(h.back)-1]
	h.forward = pushBounded(h.forward, current)
	return dir, true
}

func (h *history) goForward(current string) (string, bool) {
	if len(h.forward) == 0 {
		return "", false
	}
	dir := h.forward[len(h.forward)-1]
	h.forward = h.forward[:len(h.forward)-1]
	h.back = pushBounded(h.back, current)
	return dir, true
}

func pushBounded(stack []string, dir string) []string {
	if n := len(stack); n > 0 && stack[n-1] == dir {
		return stack
	}
	stack = append(stack, dir)
	if len(stack) > historyLimit {
		stack = append(stack[:0], stack[len(stack)-historyLimit:]...)
	}
	return stack
}
