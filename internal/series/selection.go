package series

// Selection is the set of series a chart displays. It starts empty, is
// seeded from DefaultSelection at most once, and afterwards only changes
// through Toggle. An emptied selection stays empty.
type Selection struct {
	names           []string
	hasAutoSelected bool
}

// Seed fills an empty, never-seeded selection with the top series of c.
// It reports whether the selection changed.
func (s *Selection) Seed(c Collection, topN int) bool {
	if s.hasAutoSelected || len(s.names) > 0 || len(c) == 0 {
		return false
	}
	s.names = DefaultSelection(c, topN)
	s.hasAutoSelected = true
	return true
}

// Toggle adds name if absent and removes it otherwise. It returns whether
// name is selected afterwards.
func (s *Selection) Toggle(name string) bool {
	s.hasAutoSelected = true
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			return false
		}
	}
	s.names = append(s.names, name)
	return true
}

// Contains reports whether name is selected.
func (s *Selection) Contains(name string) bool {
	for _, n := range s.names {
		if n == name {
			return true
		}
	}
	return false
}

// Names returns the selected names in selection order.
func (s *Selection) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of selected series.
func (s *Selection) Len() int { return len(s.names) }

// Seeded reports whether the selection is past its automatic phase.
func (s *Selection) Seeded() bool { return s.hasAutoSelected }
