// Package testutil provides a configurable in-process Pokémon API for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// APIPrefix is the path prefix served by MockPokeAPI, mirroring the real API.
const APIPrefix = "/api/v2"

// MockResponse defines a canned response for one path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Pokemon is a fixture entry served by the list and detail endpoints.
type Pokemon struct {
	ID             int
	Name           string
	Height         int
	Weight         int
	BaseExperience int
	Sprite         string // empty serves "front_default": null
	Types          []string
	Abilities      []string
	Moves          []string
	Stats          map[string]int
}

// Move is a fixture entry served by the move endpoint. Nil Power/Accuracy
// are served as JSON null, like status moves on the real API.
type Move struct {
	Name     string
	Type     string
	Power    *int
	Accuracy *int
}

// Int returns a pointer to v, for Move fixtures.
func Int(v int) *int { return &v }

// MockPokeAPI is a configurable mock Pokémon API server.
type MockPokeAPI struct {
	server *httptest.Server

	mu            sync.RWMutex
	pokemon       map[string]Pokemon // keyed by name and by id
	moves         map[string]Move
	overrides     map[string]func(w http.ResponseWriter, r *http.Request)
	countOverride int
	countSet      bool
	requests      map[string]int
	requestTotal  int
}

// NewMockPokeAPI starts a new mock server.
func NewMockPokeAPI() *MockPokeAPI {
	m := &MockPokeAPI{
		pokemon:   make(map[string]Pokemon),
		moves:     make(map[string]Move),
		overrides: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		requests:  make(map[string]int),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// URL returns the server root URL.
func (m *MockPokeAPI) URL() string {
	return m.server.URL
}

// BaseURL returns the URL to configure as the client base URL.
func (m *MockPokeAPI) BaseURL() string {
	return m.server.URL + APIPrefix
}

// Close shuts down the mock server.
func (m *MockPokeAPI) Close() {
	m.server.Close()
}

// MoveURL returns the absolute URL the mock uses for a move reference.
func (m *MockPokeAPI) MoveURL(name string) string {
	return fmt.Sprintf("%s%s/move/%s/", m.server.URL, APIPrefix, name)
}

// PokemonURL returns the absolute URL the mock uses for a pokemon reference.
func (m *MockPokeAPI) PokemonURL(id int) string {
	return fmt.Sprintf("%s%s/pokemon/%d/", m.server.URL, APIPrefix, id)
}

// AddPokemon registers a pokemon fixture.
func (m *MockPokeAPI) AddPokemon(p Pokemon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pokemon[p.Name] = p
	m.pokemon[strconv.Itoa(p.ID)] = p
}

// AddMove registers a move fixture.
func (m *MockPokeAPI) AddMove(mv Move) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moves[mv.Name] = mv
}

// SeedPokemon registers n pokemon named "pokemon-<id>" with ids 1..n and a sprite each.
func (m *MockPokeAPI) SeedPokemon(n int) {
	for i := 1; i <= n; i++ {
		m.AddPokemon(Pokemon{
			ID:     i,
			Name:   fmt.Sprintf("pokemon-%d", i),
			Sprite: fmt.Sprintf("https://sprites.test/%d.png", i),
			Types:  []string{"normal"},
		})
	}
}

// SetCount overrides the "count" field of list responses.
func (m *MockPokeAPI) SetCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countOverride = n
	m.countSet = true
}

// SetHandler installs a custom handler for an exact path (trailing slash ignored).
func (m *MockPokeAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[normalize(path)] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockPokeAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// FailPath makes every request to path answer with status.
func (m *MockPokeAPI) FailPath(path string, status int) {
	m.SetResponse(path, MockResponse{
		StatusCode: status,
		Body:       fmt.Sprintf(`{"error":%q}`, http.StatusText(status)),
	})
}

// RequestCount returns the total number of requests served.
func (m *MockPokeAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestTotal
}

// RequestsFor returns the number of requests served for a path.
func (m *MockPokeAPI) RequestsFor(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[normalize(path)]
}

// Reset clears request counters.
func (m *MockPokeAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = make(map[string]int)
	m.requestTotal = 0
}

func normalize(path string) string {
	if len(path) > 1 {
		return strings.TrimRight(path, "/")
	}
	return path
}

func (m *MockPokeAPI) serve(w http.ResponseWriter, r *http.Request) {
	path := normalize(r.URL.Path)

	m.mu.Lock()
	m.requestTotal++
	m.requests[path]++
	handler, ok := m.overrides[path]
	m.mu.Unlock()

	if ok {
		handler(w, r)
		return
	}

	rest, ok := strings.CutPrefix(path, APIPrefix+"/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1 && parts[0] == "pokemon":
		m.serveList(w, r)
	case len(parts) == 2 && parts[0] == "pokemon":
		m.servePokemon(w, r, parts[1])
	case len(parts) == 2 && parts[0] == "move":
		m.serveMove(w, r, parts[1])
	default:
		http.NotFound(w, r)
	}
}

func (m *MockPokeAPI) serveList(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	m.mu.RLock()
	byID := make(map[int]Pokemon)
	for _, p := range m.pokemon {
		byID[p.ID] = p
	}
	count, countSet := m.countOverride, m.countSet
	m.mu.RUnlock()

	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	if !countSet {
		count = len(ids)
	}

	type ref struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	results := []ref{}
	for i := offset; i < len(ids) && i < offset+limit; i++ {
		p := byID[ids[i]]
		results = append(results, ref{Name: p.Name, URL: m.PokemonURL(p.ID)})
	}

	writeJSON(w, map[string]any{
		"count":    count,
		"next":     nil,
		"previous": nil,
		"results":  results,
	})
}

func (m *MockPokeAPI) servePokemon(w http.ResponseWriter, r *http.Request, key string) {
	m.mu.RLock()
	p, ok := m.pokemon[key]
	m.mu.RUnlock()
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	named := func(field string, names []string) []map[string]any {
		out := make([]map[string]any, 0, len(names))
		for i, n := range names {
			out = append(out, map[string]any{
				"slot": i + 1,
				field:  map[string]string{"name": n, "url": fmt.Sprintf("%s%s/%s/%s/", m.server.URL, APIPrefix, field, n)},
			})
		}
		return out
	}

	moves := make([]map[string]any, 0, len(p.Moves))
	for _, mv := range p.Moves {
		moves = append(moves, map[string]any{
			"move": map[string]string{"name": mv, "url": m.MoveURL(mv)},
		})
	}

	statNames := make([]string, 0, len(p.Stats))
	for name := range p.Stats {
		statNames = append(statNames, name)
	}
	sort.Strings(statNames)
	stats := make([]map[string]any, 0, len(statNames))
	for _, name := range statNames {
		stats = append(stats, map[string]any{
			"base_stat": p.Stats[name],
			"stat":      map[string]string{"name": name},
		})
	}

	var sprite any
	if p.Sprite != "" {
		sprite = p.Sprite
	}

	writeJSON(w, map[string]any{
		"id":              p.ID,
		"name":            p.Name,
		"height":          p.Height,
		"weight":          p.Weight,
		"base_experience": p.BaseExperience,
		"sprites":         map[string]any{"front_default": sprite},
		"types":           named("type", p.Types),
		"abilities":       named("ability", p.Abilities),
		"moves":           moves,
		"stats":           stats,
	})
}

func (m *MockPokeAPI) serveMove(w http.ResponseWriter, r *http.Request, key string) {
	m.mu.RLock()
	mv, ok := m.moves[key]
	m.mu.RUnlock()
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	body := map[string]any{
		"name":     mv.Name,
		"power":    mv.Power,
		"accuracy": mv.Accuracy,
	}
	if mv.Type != "" {
		body["type"] = map[string]string{"name": mv.Type}
	}
	writeJSON(w, body)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
