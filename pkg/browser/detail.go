package browser

import (
	"context"
	"net/url"
	"sync"

	"github.com/Sternrassler/pokedex-client/pkg/catalog"
	"github.com/Sternrassler/pokedex-client/pkg/logging"
	"github.com/Sternrassler/pokedex-client/pkg/pagination"
	"github.com/rs/zerolog"
)

// DetailLoader is the part of *catalog.Catalog the detail view uses.
type DetailLoader interface {
	FetchDetail(ctx context.Context, id string) (catalog.DetailRecord, error)
	EnrichMoves(ctx context.Context, refs []catalog.MoveRef) []catalog.MoveSummary
}

// DetailSnapshot is a read-only copy of the detail view state.
type DetailSnapshot struct {
	ID           string
	Record       *catalog.DetailRecord
	Moves        []catalog.MoveSummary
	Pager        pagination.Pager
	Loading      bool
	MovesLoading bool
	Err          error
	BackOffset   int
	Generation   uint64
}

// VisibleMoves is the current page of resolved moves.
func (s DetailSnapshot) VisibleMoves() []catalog.MoveSummary {
	return pagination.Visible(s.Pager, s.Moves)
}

// DetailView shows one record and pages through its moves.
type DetailView struct {
	parent context.Context
	loader DetailLoader
	nav    Navigator
	logger zerolog.Logger
	events hub
	wg     sync.WaitGroup

	mu           sync.Mutex
	id           string
	record       *catalog.DetailRecord
	moves        []catalog.MoveSummary
	pager        pagination.Pager
	loading      bool
	movesLoading bool
	err          error
	backOffset   int
	generation   uint64
	cancel       context.CancelFunc
}

// NewDetailView creates a detail view showing movesPerPage moves at a time.
func NewDetailView(ctx context.Context, loader DetailLoader, nav Navigator, movesPerPage int) *DetailView {
	if nav == nil {
		nav = NewMemoryNavigator("")
	}
	return &DetailView{
		parent: ctx,
		loader: loader,
		nav:    nav,
		logger: logging.NewLogger("detail-view"),
		pager:  pagination.NewPager(movesPerPage),
	}
}

// Subscribe registers fn for state change events.
func (v *DetailView) Subscribe(fn func(Event)) (unsubscribe func()) {
	return v.events.subscribe(fn)
}

// Open loads the record for id. The offset parameter, if any, is kept as
// the offset to return to.
func (v *DetailView) Open(id string) {
	back, _ := OffsetFromQuery(v.nav.Query())

	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.generation++
	gen := v.generation
	ctx, cancel := context.WithCancel(v.parent)
	v.cancel = cancel
	v.id = id
	v.backOffset = back
	v.pager = v.pager.WithPage(0)
	v.loading = true
	v.movesLoading = false
	v.err = nil
	v.wg.Add(1)
	v.mu.Unlock()

	go v.load(ctx, gen, id)
}

func (v *DetailView) load(ctx context.Context, gen uint64, id string) {
	defer v.wg.Done()

	rec, err := v.loader.FetchDetail(ctx, id)

	v.mu.Lock()
	if gen != v.generation {
		v.mu.Unlock()
		v.logger.Debug().Uint64("generation", gen).Str("id", id).Msg("Discarding stale detail")
		return
	}
	if err != nil {
		v.loading = false
		v.err = err
		v.mu.Unlock()
		v.logger.Warn().Err(err).Str("id", id).Msg("Detail load failed, keeping previous record")
		v.events.emit(Event{Kind: EventLoadFailed, Generation: gen, Err: err})
		return
	}
	v.record = &rec
	v.moves = nil
	v.pager = v.pager.Reset()
	v.loading = false
	v.movesLoading = true
	v.mu.Unlock()
	v.events.emit(Event{Kind: EventDetailLoaded, Generation: gen})

	moves := v.loader.EnrichMoves(ctx, rec.Moves)

	v.mu.Lock()
	if gen != v.generation {
		v.mu.Unlock()
		v.logger.Debug().Uint64("generation", gen).Str("id", id).Msg("Discarding stale moves")
		return
	}
	v.moves = moves
	v.pager = v.pager.WithCount(len(moves))
	v.movesLoading = false
	v.mu.Unlock()

	v.logger.Info().Str("id", id).Int("moves", len(moves)).Int("refs", len(rec.Moves)).Msg("Detail loaded")
	v.events.emit(Event{Kind: EventMovesLoaded, Generation: gen})
}

// NextPage shows the next page of moves; a no-op on the last page.
func (v *DetailView) NextPage() {
	v.movePager(pagination.Pager.NextPage)
}

// PrevPage shows the previous page of moves; a no-op on the first page.
func (v *DetailView) PrevPage() {
	v.movePager(pagination.Pager.PrevPage)
}

func (v *DetailView) movePager(step func(pagination.Pager) pagination.Pager) {
	v.mu.Lock()
	next := step(v.pager)
	if next.Page == v.pager.Page {
		v.mu.Unlock()
		return
	}
	v.pager = next
	gen := v.generation
	v.mu.Unlock()
	v.events.emit(Event{Kind: EventMovePageChanged, Generation: gen})
}

// BackParams returns the navigation parameters that restore the home view
// to the page the record was opened from.
func (v *DetailView) BackParams() url.Values {
	v.mu.Lock()
	back := v.backOffset
	v.mu.Unlock()
	return WithOffset(nil, back)
}

// Snapshot returns a copy of the current state.
func (v *DetailView) Snapshot() DetailSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return DetailSnapshot{
		ID:           v.id,
		Record:       v.record,
		Moves:        v.moves,
		Pager:        v.pager,
		Loading:      v.loading,
		MovesLoading: v.movesLoading,
		Err:          v.err,
		BackOffset:   v.backOffset,
		Generation:   v.generation,
	}
}

// Wait blocks until every started load has settled.
func (v *DetailView) Wait() {
	v.wg.Wait()
}

// Close cancels the in-flight load and waits for it to settle.
func (v *DetailView) Close() {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.generation++
	v.loading = false
	v.movesLoading = false
	v.mu.Unlock()
	v.wg.Wait()
}
