package browser

import (
	"context"
	"net/url"
	"strconv"
	"sync"

	"github.com/Sternrassler/pokedex-client/pkg/catalog"
	"github.com/Sternrassler/pokedex-client/pkg/logging"
	"github.com/Sternrassler/pokedex-client/pkg/pagination"
	"github.com/rs/zerolog"
)

// PageLoader is the part of *catalog.Catalog the home view uses.
type PageLoader interface {
	FetchPage(ctx context.Context, offset, limit int) (catalog.PageResult, error)
	Enrich(ctx context.Context, items []catalog.ItemSummary) []catalog.ItemSummary
}

// HomeSnapshot is a read-only copy of the home view state.
type HomeSnapshot struct {
	State      pagination.State
	Page       catalog.PageResult
	Loading    bool
	Err        error
	Generation uint64
}

// HomeView is the paginated catalog list. The offset is mirrored into the
// navigator on every change, and an inbound offset parameter overrides the
// in-memory offset whenever it differs.
type HomeView struct {
	parent context.Context
	loader PageLoader
	nav    Navigator
	logger zerolog.Logger
	events hub
	wg     sync.WaitGroup

	// navMu orders writes to nav. Lock order is navMu, then mu.
	navMu sync.Mutex

	mu         sync.Mutex
	state      pagination.State
	page       catalog.PageResult
	loading    bool
	err        error
	generation uint64
	cancel     context.CancelFunc
}

// NewHomeView creates a home view. Loads run under ctx; cancelling it
// cancels every in-flight load.
func NewHomeView(ctx context.Context, loader PageLoader, nav Navigator, pageSize int) *HomeView {
	if nav == nil {
		nav = NewMemoryNavigator("")
	}
	return &HomeView{
		parent: ctx,
		loader: loader,
		nav:    nav,
		logger: logging.NewLogger("home-view"),
		state:  pagination.NewState(pageSize),
	}
}

// Subscribe registers fn for state change events.
func (v *HomeView) Subscribe(fn func(Event)) (unsubscribe func()) {
	return v.events.subscribe(fn)
}

// Enter is called when the view becomes active. An offset parameter, when
// present, replaces the in-memory offset; the page is then loaded.
func (v *HomeView) Enter() {
	v.mu.Lock()
	if offset, ok := OffsetFromQuery(v.nav.Query()); ok {
		v.state = v.state.WithOffset(offset)
	}
	ev, start := v.startLoadLocked()
	v.mu.Unlock()

	v.syncOffset()
	v.events.emit(ev)
	start()
}

// OnParamsChanged is called when the navigation parameters change from
// outside. The page is reloaded only when the offset differs.
func (v *HomeView) OnParamsChanged() {
	offset, ok := OffsetFromQuery(v.nav.Query())
	if !ok {
		return
	}
	v.moveTo(func(s pagination.State) pagination.State { return s.WithOffset(offset) })
}

// Next advances one page; a no-op on the last page.
func (v *HomeView) Next() {
	v.moveTo(pagination.State.Next)
}

// Prev goes back one page; a no-op on the first page.
func (v *HomeView) Prev() {
	v.moveTo(pagination.State.Prev)
}

// Jump moves by pages, clamped to the valid range.
func (v *HomeView) Jump(pages int) {
	v.moveTo(func(s pagination.State) pagination.State { return s.Jump(pages) })
}

// GoToFirst returns to offset 0.
func (v *HomeView) GoToFirst() {
	v.moveTo(pagination.State.GoToFirst)
}

// Reload refetches the current page.
func (v *HomeView) Reload() {
	v.mu.Lock()
	ev, start := v.startLoadLocked()
	v.mu.Unlock()
	v.events.emit(ev)
	start()
}

func (v *HomeView) moveTo(step func(pagination.State) pagination.State) {
	v.mu.Lock()
	next := step(v.state)
	if next.Offset == v.state.Offset {
		v.mu.Unlock()
		return
	}
	v.state = next
	ev, start := v.startLoadLocked()
	v.mu.Unlock()

	v.syncOffset()
	v.events.emit(ev)
	start()
}

// startLoadLocked supersedes any in-flight load and prepares a new one for
// the current offset. v.mu must be held; start must be called after v.mu is
// released and the returned event has been emitted.
func (v *HomeView) startLoadLocked() (ev Event, start func()) {
	if v.cancel != nil {
		v.cancel()
	}
	v.generation++
	gen := v.generation
	ctx, cancel := context.WithCancel(v.parent)
	v.cancel = cancel
	v.loading = true
	v.err = nil

	offset, limit := v.state.Offset, v.state.PageSize
	v.wg.Add(1)

	ev = Event{Kind: EventOffsetChanged, Generation: gen, Offset: offset}
	return ev, func() { go v.load(ctx, gen, offset, limit) }
}

func (v *HomeView) load(ctx context.Context, gen uint64, offset, limit int) {
	defer v.wg.Done()

	page, err := v.loader.FetchPage(ctx, offset, limit)

	v.mu.Lock()
	if gen != v.generation {
		v.mu.Unlock()
		v.logger.Debug().Uint64("generation", gen).Int("offset", offset).Msg("Discarding stale page")
		return
	}
	if err != nil {
		v.loading = false
		v.err = err
		v.mu.Unlock()
		v.logger.Warn().Err(err).Int("offset", offset).Msg("Page load failed, keeping previous page")
		v.events.emit(Event{Kind: EventLoadFailed, Generation: gen, Offset: offset, Err: err})
		return
	}

	v.page = page
	clamped := v.state.WithTotal(page.Count)
	if clamped.Offset != v.state.Offset {
		// The offset lies past the last page; reload at the last page.
		v.state = clamped
		ev, start := v.startLoadLocked()
		v.mu.Unlock()
		v.syncOffset()
		v.events.emit(Event{Kind: EventPageLoaded, Generation: gen, Offset: offset}, ev)
		start()
		return
	}
	v.state = clamped
	v.mu.Unlock()
	v.events.emit(Event{Kind: EventPageLoaded, Generation: gen, Offset: offset})

	enriched := v.loader.Enrich(ctx, page.Items)

	v.mu.Lock()
	if gen != v.generation {
		v.mu.Unlock()
		v.logger.Debug().Uint64("generation", gen).Int("offset", offset).Msg("Discarding stale enrichment")
		return
	}
	if enriched != nil {
		v.page = catalog.PageResult{Count: page.Count, Items: enriched}
	}
	v.loading = false
	v.mu.Unlock()

	v.logger.Info().Int("offset", offset).Int("count", page.Count).Int("items", len(page.Items)).Msg("Page loaded")
	v.events.emit(Event{Kind: EventPageEnriched, Generation: gen, Offset: offset})
}

// syncOffset writes the current offset to the navigator. Writes are
// serialized and carry the offset current at write time.
func (v *HomeView) syncOffset() {
	v.navMu.Lock()
	defer v.navMu.Unlock()

	v.mu.Lock()
	offset := v.state.Offset
	v.mu.Unlock()

	q := v.nav.Query()
	if cur, ok := OffsetFromQuery(q); ok && cur == offset {
		return
	}
	v.nav.SetQuery(WithOffset(q, offset))
}

// Snapshot returns a copy of the current state.
func (v *HomeView) Snapshot() HomeSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return HomeSnapshot{
		State:      v.state,
		Page:       v.page,
		Loading:    v.loading,
		Err:        v.err,
		Generation: v.generation,
	}
}

// DetailLink returns the id of the item at index on the current page and
// the navigation parameters that let the detail view return here.
func (v *HomeView) DetailLink(index int) (id string, params url.Values, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if index < 0 || index >= len(v.page.Items) {
		return "", nil, false
	}
	params = url.Values{}
	params.Set(OffsetParam, strconv.Itoa(v.state.Offset))
	return v.page.Items[index].ID(), params, true
}

// Wait blocks until every started load has settled.
func (v *HomeView) Wait() {
	v.wg.Wait()
}

// Close cancels the in-flight load and waits for it to settle.
func (v *HomeView) Close() {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.generation++
	v.loading = false
	v.mu.Unlock()
	v.wg.Wait()
}
