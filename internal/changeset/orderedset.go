package changeset

// orderedSet keeps the first occurrence of each path, in insertion order.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet(capacity int) *orderedSet {
	return &orderedSet{
		seen:  make(map[string]struct{}, capacity),
		items: make([]string, 0, capacity),
	}
}

func (s *orderedSet) add(paths ...string) {
	for _, p := range paths {
		if _, ok := s.seen[p]; ok {
			continue
		}
		s.seen[p] = struct{}{}
		s.items = append(s.items, p)
	}
}

func (s *orderedSet) list() []string {
	return s.items
}
