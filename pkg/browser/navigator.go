package browser

import (
	"net/url"
	"strconv"
	"sync"
)

// OffsetParam is the navigation parameter carrying the catalog offset.
const OffsetParam = "offset"

// Navigator is the navigation surface a view reads its offset from and
// writes it back to. Implementations must not call back into the view
// synchronously from SetQuery.
type Navigator interface {
	Query() url.Values
	SetQuery(q url.Values)
}

// OffsetFromQuery parses the offset parameter. ok is false when it is
// missing, not an integer, or negative.
func OffsetFromQuery(q url.Values) (offset int, ok bool) {
	raw := q.Get(OffsetParam)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// WithOffset returns a copy of q with the offset parameter set.
func WithOffset(q url.Values, offset int) url.Values {
	out := cloneQuery(q)
	out.Set(OffsetParam, strconv.Itoa(offset))
	return out
}

// MemoryNavigator keeps the query in memory and remembers every write.
type MemoryNavigator struct {
	mu      sync.Mutex
	query   url.Values
	history []string
}

// NewMemoryNavigator starts from an encoded query such as "offset=40".
func NewMemoryNavigator(rawQuery string) *MemoryNavigator {
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		q = url.Values{}
	}
	return &MemoryNavigator{query: q}
}

func (n *MemoryNavigator) Query() url.Values {
	n.mu.Lock()
	defer n.mu.Unlock()
	return cloneQuery(n.query)
}

func (n *MemoryNavigator) SetQuery(q url.Values) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.query = cloneQuery(q)
	n.history = append(n.history, n.query.Encode())
}

// History returns the encoded queries written so far, oldest first.
func (n *MemoryNavigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}

func cloneQuery(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}
