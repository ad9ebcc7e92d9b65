// Package browser holds the state of the two catalog views. Each view owns
// its data exclusively; remote loads run in the background and hand their
// results back through the view's mutex, tagged with a generation so a
// superseded load can never overwrite newer state.
package browser

import "sync"

// EventKind identifies a state change of a view.
type EventKind int

const (
	// EventOffsetChanged fires when the home view moves to another page.
	EventOffsetChanged EventKind = iota
	// EventPageLoaded fires when the raw page is published, before images.
	EventPageLoaded
	// EventPageEnriched fires when the page with images replaces the raw page.
	EventPageEnriched
	// EventDetailLoaded fires when a detail record is published.
	EventDetailLoaded
	// EventMovesLoaded fires when the resolved move list is published.
	EventMovesLoaded
	// EventMovePageChanged fires when the move pager moves.
	EventMovePageChanged
	// EventLoadFailed fires when a primary fetch fails. Previous data is kept.
	EventLoadFailed
)

func (k EventKind) String() string {
	switch k {
	case EventOffsetChanged:
		return "offset_changed"
	case EventPageLoaded:
		return "page_loaded"
	case EventPageEnriched:
		return "page_enriched"
	case EventDetailLoaded:
		return "detail_loaded"
	case EventMovesLoaded:
		return "moves_loaded"
	case EventMovePageChanged:
		return "move_page_changed"
	case EventLoadFailed:
		return "load_failed"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after the state change is visible
// through Snapshot.
type Event struct {
	Kind       EventKind
	Generation uint64
	Offset     int
	Err        error
}

// hub fans events out to subscribers. Handlers run on the goroutine that
// produced the event and must not block.
type hub struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func(Event)
}

func (h *hub) subscribe(fn func(Event)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handlers == nil {
		h.handlers = make(map[int]func(Event))
	}
	id := h.nextID
	h.nextID++
	h.handlers[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.handlers, id)
	}
}

func (h *hub) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	h.mu.Lock()
	fns := make([]func(Event), 0, len(h.handlers))
	for _, fn := range h.handlers {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}
