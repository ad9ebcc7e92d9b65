package pagination

// Pager pages through an in-memory list of Count items, PerPage at a time.
// Page is 0-based.
type Pager struct {
	Page    int
	PerPage int
	Count   int
}

// NewPager returns a pager on page 0.
func NewPager(perPage int) Pager {
	if perPage <= 0 {
		panic("pagination: items per page must be > 0")
	}
	return Pager{PerPage: perPage}
}

// TotalPages is ceil(Count/PerPage).
func (p Pager) TotalPages() int {
	if p.Count <= 0 {
		return 0
	}
	return (p.Count + p.PerPage - 1) / p.PerPage
}

// HasNext reports whether NextPage would move.
func (p Pager) HasNext() bool {
	return p.Page < p.TotalPages()-1
}

// HasPrev reports whether PrevPage would move.
func (p Pager) HasPrev() bool {
	return p.Page > 0
}

// NextPage moves forward one page; no-op on the last page.
func (p Pager) NextPage() Pager {
	if p.HasNext() {
		p.Page++
	}
	return p
}

// PrevPage moves back one page; no-op on the first page.
func (p Pager) PrevPage() Pager {
	if p.HasPrev() {
		p.Page--
	}
	return p
}

// Reset returns to page 0 and forgets the count.
func (p Pager) Reset() Pager {
	return Pager{PerPage: p.PerPage}
}

// WithCount sets the number of items; the page is kept.
func (p Pager) WithCount(n int) Pager {
	if n < 0 {
		n = 0
	}
	p.Count = n
	return p
}

// WithPage jumps to page n, clamped to the existing pages.
func (p Pager) WithPage(n int) Pager {
	p.Page = clamp(n, 0, max(0, p.TotalPages()-1))
	return p
}

// Bounds returns the [start, end) window of the current page within Count.
func (p Pager) Bounds() (start, end int) {
	start = clamp(p.Page*p.PerPage, 0, p.Count)
	end = clamp(start+p.PerPage, 0, p.Count)
	return start, end
}

// Visible returns the items on the pager's current page.
func Visible[T any](p Pager, items []T) []T {
	p = p.WithCount(len(items))
	start, end := p.Bounds()
	return items[start:end]
}
