// Package pokeapi exposes the three remote operations the catalog needs:
// list, get-by-name-or-id and get-by-URL.
package pokeapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/pokedex-client/pkg/client"
)

// JSONGetter is satisfied by *client.Client.
type JSONGetter interface {
	GetJSON(ctx context.Context, endpoint string, v any) error
}

// Service performs typed requests against the Pokémon API.
type Service struct {
	api JSONGetter
}

// NewService wraps an API client.
func NewService(api JSONGetter) *Service {
	return &Service{api: api}
}

// List fetches one page of pokemon references.
func (s *Service) List(ctx context.Context, offset, limit int) (*ListResponse, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var out ListResponse
	if err := s.api.GetJSON(ctx, "/pokemon?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("list pokemon (offset %d, limit %d): %w", offset, limit, err)
	}
	return &out, nil
}

// Pokemon fetches a pokemon by name or numeric id.
func (s *Service) Pokemon(ctx context.Context, nameOrID string) (*Pokemon, error) {
	key := strings.ToLower(strings.TrimSpace(nameOrID))
	if key == "" {
		return nil, &client.APIError{ErrorClass: client.ErrorClassNotFound, Endpoint: "/pokemon", Message: "empty identifier"}
	}

	var out Pokemon
	if err := s.api.GetJSON(ctx, "/pokemon/"+url.PathEscape(key), &out); err != nil {
		return nil, fmt.Errorf("get pokemon %q: %w", key, err)
	}
	return &out, nil
}

// Move fetches a move by the absolute URL found in a pokemon record.
func (s *Service) Move(ctx context.Context, moveURL string) (*Move, error) {
	if strings.TrimSpace(moveURL) == "" {
		return nil, &client.APIError{ErrorClass: client.ErrorClassNotFound, Endpoint: "/move", Message: "empty url"}
	}

	var out Move
	if err := s.api.GetJSON(ctx, moveURL, &out); err != nil {
		return nil, fmt.Errorf("get move %s: %w", moveURL, err)
	}
	return &out, nil
}

// ExtractID returns the trailing path segment of a resource URL,
// e.g. "https://pokeapi.co/api/v2/pokemon/25/" -> "25".
func ExtractID(resourceURL string) string {
	trimmed := strings.TrimRight(resourceURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
