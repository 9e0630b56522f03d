package paint

// maxHistory bounds both the undo and the redo stacks.
const maxHistory = 20

// history keeps pixel snapshots. The newest entry is last.
type history struct {
	undo [][]byte
	redo [][]byte
}

// push records a snapshot taken before an edit and forgets redo.
func (h *history) push(snap []byte) {
	h.undo = pushBounded(h.undo, snap)
	h.redo = nil
}

// back returns the snapshot to restore for undo, saving current for redo.
func (h *history) back(current []byte) ([]byte, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = pushBounded(h.redo, current)
	return prev, true
}

// forward returns the snapshot to restore for redo, saving current for undo.
func (h *history) forward(current []byte) ([]byte, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = pushBounded(h.undo, current)
	return next, true
}

func (h *history) reset() {
	h.undo, h.redo = nil, nil
}

func pushBounded(stack [][]byte, snap []byte) [][]byte {
	if len(stack) >= maxHistory {
		stack = append(stack[:0:0], stack[len(stack)-maxHistory+1:]...)
	}
	return append(stack, snap)
}
