package state

// DefaultHistoryLimit bounds the number of undo steps kept.
const DefaultHistoryLimit = 100

// History keeps value snapshots of the element list for undo and redo.
type History struct {
	undo  [][]Element
	redo  [][]Element
	limit int
}

// NewHistory returns a history keeping at most limit undo steps.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Record stores snapshot, the scene as it was immediately before a mutating
// operation, and clears the redo stack.
func (h *History) Record(snapshot []Element) {
	h.undo = append(h.undo, snapshot)
	if len(h.undo) > h.limit {
		h.undo[0] = nil
		h.undo = h.undo[1:]
	}
	h.redo = nil
}

// Undo returns the snapshot to restore, pushing current onto the redo stack.
func (h *History) Undo(current []Element) ([]Element, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return prev, true
}

// Redo reverses the last Undo.
func (h *History) Redo(current []Element) ([]Element, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current)
	return next, true
}

// CanUndo reports whether an undo step is available.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether a redo step is available.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
