package pagination

// State is an immutable page cursor. Every method returns a new State.
//
// Invariant: Offset is a non-negative multiple of PageSize and, once Total
// is known (> 0), Offset <= LastPageOffset().
type State struct {
	Offset   int
	PageSize int
	Total    int
}

// NewState returns the initial state (offset 0, total unknown).
func NewState(pageSize int) State {
	if pageSize <= 0 {
		panic("pagination: page size must be > 0")
	}
	return State{PageSize: pageSize}
}

// LastPageOffset is the offset of the last page, 0 when Total is unknown.
func (s State) LastPageOffset() int {
	if s.Total <= 0 {
		return 0
	}
	return ((s.Total - 1) / s.PageSize) * s.PageSize
}

// HasNext reports whether Next would move.
func (s State) HasNext() bool {
	return s.Offset+s.PageSize < s.Total
}

// HasPrev reports whether Prev would move.
func (s State) HasPrev() bool {
	return s.Offset > 0
}

// Page is the 1-based number of the current page.
func (s State) Page() int {
	return s.Offset/s.PageSize + 1
}

// TotalPages is the number of pages, 0 when Total is unknown.
func (s State) TotalPages() int {
	if s.Total <= 0 {
		return 0
	}
	return (s.Total + s.PageSize - 1) / s.PageSize
}

// Next advances one page if Offset+PageSize < Total, else returns s unchanged.
func (s State) Next() State {
	if s.HasNext() {
		s.Offset += s.PageSize
	}
	return s
}

// Prev retreats one page, clamped at 0.
func (s State) Prev() State {
	s.Offset -= s.PageSize
	if s.Offset < 0 {
		s.Offset = 0
	}
	return s
}

// Jump moves by pages*PageSize, clamped to [0, LastPageOffset()].
func (s State) Jump(pages int) State {
	last := s.LastPageOffset()

	// Beyond this many pages the clamp result no longer changes; bounding
	// pages keeps pages*PageSize from overflowing.
	bound := s.Offset/s.PageSize + last/s.PageSize + 1
	if pages > bound {
		pages = bound
	} else if pages < -bound {
		pages = -bound
	}

	s.Offset = clamp(s.Offset+pages*s.PageSize, 0, last)
	return s
}

// GoToFirst sets the offset to 0.
func (s State) GoToFirst() State {
	s.Offset = 0
	return s
}

// WithOffset applies an externally supplied offset (navigation parameter).
// Negative values become 0, values are rounded down to a page boundary and,
// when Total is known, clamped to LastPageOffset().
func (s State) WithOffset(offset int) State {
	if offset < 0 {
		offset = 0
	}
	offset -= offset % s.PageSize
	if s.Total > 0 && offset > s.LastPageOffset() {
		offset = s.LastPageOffset()
	}
	s.Offset = offset
	return s
}

// WithTotal records the total reported by the last fetch and re-establishes
// the offset invariant.
func (s State) WithTotal(total int) State {
	if total < 0 {
		total = 0
	}
	s.Total = total
	if total > 0 && s.Offset > s.LastPageOffset() {
		s.Offset = s.LastPageOffset()
	}
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
