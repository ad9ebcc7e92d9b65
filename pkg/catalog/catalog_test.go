package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Sternrassler/pokedex-client/internal/testutil"
	"github.com/Sternrassler/pokedex-client/pkg/client"
	"github.com/Sternrassler/pokedex-client/pkg/pagination"
	"github.com/Sternrassler/pokedex-client/pkg/pokeapi"
)

type fakeSource struct {
	mu       sync.Mutex
	list     *pokeapi.ListResponse
	listErr  error
	pokemon  map[string]*pokeapi.Pokemon
	moves    map[string]*pokeapi.Move
	failing  map[string]bool
	calls    atomic.Int32
	lastList [2]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pokemon: make(map[string]*pokeapi.Pokemon),
		moves:   make(map[string]*pokeapi.Move),
		failing: make(map[string]bool),
	}
}

func (f *fakeSource) List(_ context.Context, offset, limit int) (*pokeapi.ListResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = [2]int{offset, limit}
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

func (f *fakeSource) Pokemon(_ context.Context, id string) (*pokeapi.Pokemon, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[id] {
		return nil, fmt.Errorf("get pokemon %q: %w", id, client.ErrNetwork)
	}
	p, ok := f.pokemon[id]
	if !ok {
		return nil, &client.APIError{StatusCode: 404, ErrorClass: client.ErrorClassNotFound, Endpoint: "/pokemon"}
	}
	return p, nil
}

func (f *fakeSource) Move(_ context.Context, u string) (*pokeapi.Move, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[u] {
		return nil, fmt.Errorf("get move %s: %w", u, client.ErrNetwork)
	}
	mv, ok := f.moves[u]
	if !ok {
		return nil, &client.APIError{StatusCode: 404, ErrorClass: client.ErrorClassNotFound, Endpoint: "/move"}
	}
	return mv, nil
}

func sprite(s string) *string { return &s }

func items(names ...string) []ItemSummary {
	out := make([]ItemSummary, len(names))
	for i, n := range names {
		out[i] = ItemSummary{Name: n, URL: "https://pokeapi.test/api/v2/pokemon/" + n + "/"}
	}
	return out
}

func TestFetchPage_InvalidArguments(t *testing.T) {
	src := newFakeSource()
	c := New(src, nil)

	for _, tc := range []struct{ offset, limit int }{{-1, 20}, {0, 0}, {0, -5}} {
		_, err := c.FetchPage(context.Background(), tc.offset, tc.limit)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("FetchPage(%d, %d) error = %v, want ErrInvalidArgument", tc.offset, tc.limit, err)
		}
	}
	if n := src.calls.Load(); n != 0 {
		t.Errorf("invalid arguments made %d remote calls", n)
	}
}

func TestFetchPage_TruncatesToLimit(t *testing.T) {
	src := newFakeSource()
	src.list = &pokeapi.ListResponse{Count: 1302}
	for i := 0; i < 25; i++ {
		src.list.Results = append(src.list.Results, pokeapi.NamedResource{Name: fmt.Sprintf("p%d", i), URL: fmt.Sprintf("https://x/pokemon/%d/", i)})
	}

	page, err := New(src, nil).FetchPage(context.Background(), 40, 20)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if page.Count != 1302 {
		t.Errorf("Count = %d, want 1302", page.Count)
	}
	if len(page.Items) != 20 {
		t.Errorf("len(Items) = %d, want 20", len(page.Items))
	}
	if src.lastList != [2]int{40, 20} {
		t.Errorf("List called with %v, want [40 20]", src.lastList)
	}
	if page.Items[0].Image != nil {
		t.Error("fetched items should not carry an image before enrichment")
	}
}

func TestFetchPage_PropagatesNetworkError(t *testing.T) {
	src := newFakeSource()
	src.listErr = fmt.Errorf("list pokemon: %w", client.ErrNetwork)

	_, err := New(src, nil).FetchPage(context.Background(), 0, 20)
	if !errors.Is(err, client.ErrNetwork) {
		t.Errorf("error = %v, want ErrNetwork", err)
	}
}

func TestFetchPage_NegativeCountIsDecodeError(t *testing.T) {
	src := newFakeSource()
	src.list = &pokeapi.ListResponse{Count: -1}

	_, err := New(src, nil).FetchPage(context.Background(), 0, 20)
	if !errors.Is(err, client.ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
}

func TestEnrich_EmptyInputMakesNoCalls(t *testing.T) {
	src := newFakeSource()
	if got := New(src, nil).Enrich(context.Background(), nil); got != nil {
		t.Errorf("Enrich(nil) = %v, want nil", got)
	}
	if n := src.calls.Load(); n != 0 {
		t.Errorf("Enrich(nil) made %d calls", n)
	}
}

func TestEnrich_FailedLookupKeepsItem(t *testing.T) {
	src := newFakeSource()
	src.pokemon["bulbasaur"] = &pokeapi.Pokemon{Name: "bulbasaur", Sprites: pokeapi.Sprites{FrontDefault: sprite("b.png")}}
	src.pokemon["venusaur"] = &pokeapi.Pokemon{Name: "venusaur", Sprites: pokeapi.Sprites{FrontDefault: sprite("v.png")}}
	src.failing["ivysaur"] = true

	in := items("bulbasaur", "ivysaur", "venusaur")
	out := New(src, nil).Enrich(context.Background(), in)

	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].Name != in[i].Name || out[i].URL != in[i].URL {
			t.Errorf("item %d = %+v, want name/url of %+v", i, out[i], in[i])
		}
	}
	if out[0].Image == nil || *out[0].Image != "b.png" {
		t.Errorf("item 0 image = %v, want b.png", out[0].Image)
	}
	if out[1].Image != nil {
		t.Errorf("item 1 image = %q, want nil", *out[1].Image)
	}
	if out[2].Image == nil || *out[2].Image != "v.png" {
		t.Errorf("item 2 image = %v, want v.png", out[2].Image)
	}
	if in[0].Image != nil {
		t.Error("Enrich must not mutate its input")
	}
}

func TestEnrich_NullSpriteBecomesEmptyString(t *testing.T) {
	src := newFakeSource()
	src.pokemon["missingno"] = &pokeapi.Pokemon{Name: "missingno"}

	out := New(src, nil).Enrich(context.Background(), items("missingno"))
	if out[0].Image == nil || *out[0].Image != "" {
		t.Errorf("image = %v, want empty string", out[0].Image)
	}
}

func TestEnrich_PreservesLengthForAnyFailurePattern(t *testing.T) {
	names := make([]string, 20)
	for i := range names {
		names[i] = fmt.Sprintf("p%d", i)
	}

	for mask := 0; mask < 8; mask++ {
		src := newFakeSource()
		for i, n := range names {
			if i%3 == mask%3 && mask > 0 {
				src.failing[n] = true
				continue
			}
			src.pokemon[n] = &pokeapi.Pokemon{Name: n, Sprites: pokeapi.Sprites{FrontDefault: sprite(n + ".png")}}
		}

		out := New(src, pagination.NewBatchFetcher(pagination.Config{MaxConcurrency: 4})).Enrich(context.Background(), items(names...))
		if len(out) != len(names) {
			t.Fatalf("mask %d: len = %d, want %d", mask, len(out), len(names))
		}
		for i, n := range names {
			if out[i].Name != n {
				t.Errorf("mask %d: position %d = %s, want %s", mask, i, out[i].Name, n)
			}
		}
	}
}

func TestLoadPage(t *testing.T) {
	src := newFakeSource()
	src.list = &pokeapi.ListResponse{Count: 2, Results: []pokeapi.NamedResource{{Name: "a", URL: "u/1/"}, {Name: "b", URL: "u/2/"}}}
	src.pokemon["a"] = &pokeapi.Pokemon{Name: "a", Sprites: pokeapi.Sprites{FrontDefault: sprite("a.png")}}
	src.failing["b"] = true

	page, err := New(src, nil).LoadPage(context.Background(), 0, 20)
	if err != nil {
		t.Fatalf("LoadPage() error = %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].Image == nil || page.Items[1].Image != nil {
		t.Errorf("LoadPage() items = %+v", page.Items)
	}
	if page.Items[1].ID() != "2" {
		t.Errorf("ID() = %q, want 2", page.Items[1].ID())
	}
}

func TestFetchDetail(t *testing.T) {
	src := newFakeSource()
	src.pokemon["25"] = &pokeapi.Pokemon{
		ID: 25, Name: "pikachu", Height: 4, Weight: 60, BaseExperience: 112,
		Sprites:   pokeapi.Sprites{FrontDefault: sprite("25.png")},
		Types:     []pokeapi.TypeSlot{{Slot: 1, Type: pokeapi.NamedResource{Name: "electric"}}},
		Abilities: []pokeapi.AbilitySlot{{Ability: pokeapi.NamedResource{Name: "static"}}},
		Stats:     []pokeapi.StatSlot{{BaseStat: 90, Stat: pokeapi.NamedResource{Name: "speed"}}},
		Moves: []pokeapi.MoveSlot{
			{Move: pokeapi.NamedResource{Name: "thunder-shock", URL: "m/84/"}},
			{Move: pokeapi.NamedResource{Name: "growl", URL: "m/45/"}},
		},
	}

	rec, err := New(src, nil).FetchDetail(context.Background(), "25")
	if err != nil {
		t.Fatalf("FetchDetail() error = %v", err)
	}
	if rec.ID != 25 || rec.Name != "pikachu" || rec.SpriteURL != "25.png" {
		t.Errorf("record = %+v", rec)
	}
	if strings.Join(rec.Types, ",") != "electric" || strings.Join(rec.Abilities, ",") != "static" {
		t.Errorf("types/abilities = %v / %v", rec.Types, rec.Abilities)
	}
	if len(rec.Stats) != 1 || rec.Stats[0] != (Stat{Name: "speed", BaseStat: 90}) {
		t.Errorf("stats = %+v", rec.Stats)
	}
	if len(rec.Moves) != 2 || rec.Moves[1] != (MoveRef{Name: "growl", URL: "m/45/"}) {
		t.Errorf("moves = %+v", rec.Moves)
	}
}

func TestFetchDetail_NotFound(t *testing.T) {
	c := New(newFakeSource(), nil)

	for _, id := range []string{"99999", "", "   ", "\t"} {
		if _, err := c.FetchDetail(context.Background(), id); !errors.Is(err, client.ErrNotFound) {
			t.Errorf("FetchDetail(%q) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestEnrichMoves_OmitsFailuresAndAppliesDefaults(t *testing.T) {
	src := newFakeSource()
	src.moves["m/1/"] = &pokeapi.Move{Name: "tackle", Type: &pokeapi.NamedResource{Name: "normal"}, Power: testutil.Int(40), Accuracy: testutil.Int(100)}
	src.failing["m/2/"] = true
	src.moves["m/3/"] = &pokeapi.Move{Name: "growl", Type: &pokeapi.NamedResource{Name: "normal"}, Accuracy: testutil.Int(100)}
	src.moves["m/4/"] = &pokeapi.Move{Name: "mystery"}

	refs := []MoveRef{{"tackle", "m/1/"}, {"ember", "m/2/"}, {"growl", "m/3/"}, {"mystery", "m/4/"}}
	got := New(src, nil).EnrichMoves(context.Background(), refs)

	want := []MoveSummary{
		{Name: "tackle", Type: "normal", Power: 40, Accuracy: 100},
		{Name: "growl", Type: "normal", Power: 0, Accuracy: 100},
		{Name: "mystery", Type: UnknownMoveType, Power: 0, Accuracy: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("EnrichMoves() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("move %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestEnrichMoves_AllSucceedKeepsLengthAndOrder(t *testing.T) {
	src := newFakeSource()
	var refs []MoveRef
	for i := 1; i <= 12; i++ {
		u := fmt.Sprintf("m/%d/", i)
		name := fmt.Sprintf("move-%d", i)
		src.moves[u] = &pokeapi.Move{Name: name, Type: &pokeapi.NamedResource{Name: "normal"}, Power: testutil.Int(i * 10)}
		refs = append(refs, MoveRef{Name: name, URL: u})
	}

	got := New(src, nil).EnrichMoves(context.Background(), refs)
	if len(got) != len(refs) {
		t.Fatalf("EnrichMoves() returned %d moves, want %d", len(got), len(refs))
	}
	for i, mv := range got {
		if mv.Name != refs[i].Name || mv.Power != (i+1)*10 {
			t.Errorf("move %d = %+v", i, mv)
		}
	}
}

func TestEnrichMoves_Empty(t *testing.T) {
	src := newFakeSource()
	if got := New(src, nil).EnrichMoves(context.Background(), []MoveRef{}); got != nil {
		t.Errorf("EnrichMoves(empty) = %v, want nil", got)
	}
	if n := src.calls.Load(); n != 0 {
		t.Errorf("made %d calls", n)
	}
}

func TestCatalog_AgainstMockAPI(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SeedPokemon(45)
	mock.AddPokemon(testutil.Pokemon{ID: 46, Name: "paras", Moves: []string{"scratch", "spore"}})
	mock.AddMove(testutil.Move{Name: "scratch", Type: "normal", Power: testutil.Int(40), Accuracy: testutil.Int(100)})
	mock.FailPath(testutil.APIPrefix+"/pokemon/pokemon-42", 500)

	cfg := client.DefaultConfig(nil, "pokedex-client-test/1.0")
	cfg.BaseURL = mock.BaseURL()
	cfg.RateLimit = 0
	api, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	defer api.Close()

	c := New(pokeapi.NewService(api), nil)

	page, err := c.LoadPage(context.Background(), 40, 20)
	if err != nil {
		t.Fatalf("LoadPage() error = %v", err)
	}
	if page.Count != 46 || len(page.Items) != 6 {
		t.Fatalf("page = count %d, %d items; want 46, 6", page.Count, len(page.Items))
	}
	if page.Items[0].Image == nil || *page.Items[0].Image != "https://sprites.test/41.png" {
		t.Errorf("item 0 image = %v", page.Items[0].Image)
	}
	if page.Items[1].Image != nil {
		t.Error("failed lookup should leave pokemon-42 without an image")
	}
	if page.Items[5].Image == nil || *page.Items[5].Image != "" {
		t.Errorf("paras has no sprite, image = %v", page.Items[5].Image)
	}

	rec, moves, err := c.LoadDetail(context.Background(), "46")
	if err != nil {
		t.Fatalf("LoadDetail() error = %v", err)
	}
	if rec.Name != "paras" || len(rec.Moves) != 2 {
		t.Errorf("record = %+v", rec)
	}
	if len(moves) != 1 || moves[0].Name != "scratch" || moves[0].Power != 40 {
		t.Errorf("moves = %+v, want only scratch", moves)
	}

	if _, err := c.FetchDetail(context.Background(), "9999"); !errors.Is(err, client.ErrNotFound) {
		t.Errorf("FetchDetail(9999) error = %v, want ErrNotFound", err)
	}
}

func TestCatalog_NegativeCountFromMockAPI(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SeedPokemon(3)
	mock.SetCount(-7)

	cfg := client.DefaultConfig(nil, "pokedex-client-test/1.0")
	cfg.BaseURL = mock.BaseURL()
	cfg.RateLimit = 0
	api, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	defer api.Close()

	_, err = New(pokeapi.NewService(api), nil).FetchPage(context.Background(), 0, 20)
	if !errors.Is(err, client.ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
}
