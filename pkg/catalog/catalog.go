// Package catalog is the data-fetch pipeline behind both views: one page of
// the remote catalog plus its images, and one detail record plus its moves.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/pokedex-client/pkg/client"
	"github.com/Sternrassler/pokedex-client/pkg/logging"
	"github.com/Sternrassler/pokedex-client/pkg/pagination"
	"github.com/Sternrassler/pokedex-client/pkg/pokeapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var enrichmentLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pokedex_enrichment_lookups_total",
	Help: "Secondary lookups issued by enrichment, by kind and result",
}, []string{"kind", "result"})

// ErrInvalidArgument is returned for a negative offset or non-positive limit.
var ErrInvalidArgument = errors.New("invalid argument")

// Source is the remote API as seen by the catalog. *pokeapi.Service
// implements it.
type Source interface {
	List(ctx context.Context, offset, limit int) (*pokeapi.ListResponse, error)
	Pokemon(ctx context.Context, nameOrID string) (*pokeapi.Pokemon, error)
	Move(ctx context.Context, moveURL string) (*pokeapi.Move, error)
}

// Catalog fetches and enriches pages and detail records.
type Catalog struct {
	source Source
	batch  *pagination.BatchFetcher
	logger zerolog.Logger
}

// New creates a catalog over source. Enrichment batches run on batch.
func New(source Source, batch *pagination.BatchFetcher) *Catalog {
	if source == nil {
		panic("catalog: source cannot be nil")
	}
	if batch == nil {
		batch = pagination.NewBatchFetcher(pagination.DefaultConfig())
	}
	return &Catalog{
		source: source,
		batch:  batch,
		logger: logging.NewLogger("catalog"),
	}
}

// FetchPage retrieves limit summaries starting at offset. Remote failures
// are returned as is (client.ErrNetwork / client.ErrDecode); nothing is
// retried. The result never holds more than limit items.
func (c *Catalog) FetchPage(ctx context.Context, offset, limit int) (PageResult, error) {
	if offset < 0 || limit <= 0 {
		return PageResult{}, fmt.Errorf("%w: offset %d, limit %d", ErrInvalidArgument, offset, limit)
	}

	start := time.Now()
	resp, err := c.source.List(ctx, offset, limit)
	if err != nil {
		return PageResult{}, err
	}
	if resp.Count < 0 {
		return PageResult{}, &client.APIError{
			ErrorClass: client.ErrorClassDecode,
			Message:    fmt.Sprintf("negative count %d", resp.Count),
		}
	}

	results := resp.Results
	if len(results) > limit {
		results = results[:limit]
	}

	items := make([]ItemSummary, len(results))
	for i, r := range results {
		items[i] = ItemSummary{Name: r.Name, URL: r.URL}
	}

	c.logger.Debug().
		Int("offset", offset).
		Int("limit", limit).
		Int("count", resp.Count).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetched catalog page")

	return PageResult{Count: resp.Count, Items: items}, nil
}

// Enrich looks every item up by name and returns copies carrying the
// sprite URL. The output has the input's length and order. An item whose
// lookup fails is returned unchanged. Returns only after every lookup has
// settled; an empty input makes no calls and returns nil.
func (c *Catalog) Enrich(ctx context.Context, items []ItemSummary) []ItemSummary {
	if len(items) == 0 {
		return nil
	}

	settled := pagination.FetchAll(ctx, c.batch, items, func(ctx context.Context, item ItemSummary) (string, error) {
		p, err := c.source.Pokemon(ctx, item.Name)
		if err != nil {
			return "", err
		}
		return spriteOf(p), nil
	})

	out := make([]ItemSummary, len(items))
	for i, r := range settled {
		out[i] = items[i]
		if !r.OK() {
			enrichmentLookupsTotal.WithLabelValues("image", "failed").Inc()
			c.logger.Debug().Err(r.Err).Str("name", items[i].Name).Msg("Image lookup failed, keeping item")
			continue
		}
		enrichmentLookupsTotal.WithLabelValues("image", "ok").Inc()
		image := r.Value
		out[i].Image = &image
	}
	return out
}

// LoadPage is FetchPage followed by Enrich.
func (c *Catalog) LoadPage(ctx context.Context, offset, limit int) (PageResult, error) {
	page, err := c.FetchPage(ctx, offset, limit)
	if err != nil {
		return PageResult{}, err
	}
	if enriched := c.Enrich(ctx, page.Items); enriched != nil {
		page.Items = enriched
	}
	return page, nil
}

// FetchDetail retrieves the detail record of one pokemon by name or id.
// An unknown identifier yields client.ErrNotFound.
func (c *Catalog) FetchDetail(ctx context.Context, id string) (DetailRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return DetailRecord{}, fmt.Errorf("%w: empty pokemon id", client.ErrNotFound)
	}

	p, err := c.source.Pokemon(ctx, id)
	if err != nil {
		return DetailRecord{}, err
	}

	rec := DetailRecord{
		ID:             p.ID,
		Name:           p.Name,
		Height:         p.Height,
		Weight:         p.Weight,
		BaseExperience: p.BaseExperience,
		SpriteURL:      spriteOf(p),
		Types:          make([]string, 0, len(p.Types)),
		Abilities:      make([]string, 0, len(p.Abilities)),
		Stats:          make([]Stat, 0, len(p.Stats)),
		Moves:          make([]MoveRef, 0, len(p.Moves)),
	}
	for _, t := range p.Types {
		rec.Types = append(rec.Types, t.Type.Name)
	}
	for _, a := range p.Abilities {
		rec.Abilities = append(rec.Abilities, a.Ability.Name)
	}
	for _, s := range p.Stats {
		rec.Stats = append(rec.Stats, Stat{Name: s.Stat.Name, BaseStat: s.BaseStat})
	}
	for _, m := range p.Moves {
		rec.Moves = append(rec.Moves, MoveRef{Name: m.Move.Name, URL: m.Move.URL})
	}

	return rec, nil
}

// EnrichMoves resolves every move reference in parallel. Failed lookups are
// omitted; the successes keep their relative order. Returns only after every
// lookup has settled; an empty input makes no calls and returns nil.
func (c *Catalog) EnrichMoves(ctx context.Context, refs []MoveRef) []MoveSummary {
	if len(refs) == 0 {
		return nil
	}

	settled := pagination.FetchAll(ctx, c.batch, refs, func(ctx context.Context, ref MoveRef) (MoveSummary, error) {
		mv, err := c.source.Move(ctx, ref.URL)
		if err != nil {
			return MoveSummary{}, err
		}
		return summarizeMove(ref, mv), nil
	})

	out := make([]MoveSummary, 0, len(refs))
	for i, r := range settled {
		if !r.OK() {
			enrichmentLookupsTotal.WithLabelValues("move", "failed").Inc()
			c.logger.Debug().Err(r.Err).Str("move", refs[i].Name).Msg("Move lookup failed, omitting")
			continue
		}
		enrichmentLookupsTotal.WithLabelValues("move", "ok").Inc()
		out = append(out, r.Value)
	}
	return out
}

// LoadDetail is FetchDetail followed by EnrichMoves.
func (c *Catalog) LoadDetail(ctx context.Context, id string) (DetailRecord, []MoveSummary, error) {
	rec, err := c.FetchDetail(ctx, id)
	if err != nil {
		return DetailRecord{}, nil, err
	}
	return rec, c.EnrichMoves(ctx, rec.Moves), nil
}

func spriteOf(p *pokeapi.Pokemon) string {
	if p.Sprites.FrontDefault == nil {
		return ""
	}
	return *p.Sprites.FrontDefault
}

func summarizeMove(ref MoveRef, mv *pokeapi.Move) MoveSummary {
	s := MoveSummary{Name: mv.Name, Type: UnknownMoveType}
	if s.Name == "" {
		s.Name = ref.Name
	}
	if mv.Type != nil && mv.Type.Name != "" {
		s.Type = mv.Type.Name
	}
	if mv.Power != nil {
		s.Power = *mv.Power
	}
	if mv.Accuracy != nil {
		s.Accuracy = *mv.Accuracy
	}
	return s
}

func idFromURL(u string) string {
	return pokeapi.ExtractID(u)
}
