package selection

import "github.com/abelbrown/emsal/internal/model"

// Set is an ordered set of result items keyed by ID. Iteration order is
// selection order. The zero value is an empty set.
type Set struct {
	items []model.ResultItem

	// Position of the most recent removal. Re-selecting that item on the
	// very next toggle puts it back where it was.
	removedID string
	removedAt int
}

// NewSet returns a set holding items, dropping repeated IDs.
func NewSet(items ...model.ResultItem) Set {
	var s Set
	for _, it := range items {
		if !s.Contains(it.ID) {
			s.items = append(s.items, it)
		}
	}
	return s
}

// Toggle adds item if its ID is absent and removes it otherwise.
// It returns true when the item ends up selected. An item is appended
// unless it was removed by the previous toggle, in which case it returns
// to its old position, so toggling twice leaves the set unchanged.
func (s *Set) Toggle(item model.ResultItem) bool {
	for i, it := range s.items {
		if it.ID == item.ID {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			s.removedID, s.removedAt = item.ID, i
			return false
		}
	}

	at := len(s.items)
	if s.removedID == item.ID && s.removedAt < at {
		at = s.removedAt
	}
	s.removedID = ""

	items := make([]model.ResultItem, 0, len(s.items)+1)
	items = append(items, s.items[:at]...)
	items = append(items, item)
	s.items = append(items, s.items[at:]...)
	return true
}

// Contains reports whether an item with id is selected.
func (s Set) Contains(id string) bool {
	for _, it := range s.items {
		if it.ID == id {
			return true
		}
	}
	return false
}

// Len returns the number of selected items.
func (s Set) Len() int {
	return len(s.items)
}

// Items returns a copy of the selected items in selection order.
func (s Set) Items() []model.ResultItem {
	if len(s.items) == 0 {
		return nil
	}
	out := make([]model.ResultItem, len(s.items))
	copy(out, s.items)
	return out
}

// IDs returns the selected IDs in selection order.
func (s Set) IDs() []string {
	ids := make([]string, len(s.items))
	for i, it := range s.items {
		ids[i] = it.ID
	}
	return ids
}
