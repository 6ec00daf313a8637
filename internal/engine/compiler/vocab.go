package compiler

// orderedSet assigns dense IDs to strings in first-occurrence order.
// IDs are determined by insertion position (0-indexed).
type orderedSet struct {
	toID  map[string]int
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{toID: make(map[string]int)}
}

// add inserts s if it is new and returns its ID.
func (s *orderedSet) add(item string) int {
	if id, ok := s.toID[item]; ok {
		return id
	}
	id := len(s.items)
	s.toID[item] = id
	s.items = append(s.items, item)
	return id
}

// size returns the number of distinct items.
func (s *orderedSet) size() int {
	return len(s.items)
}
