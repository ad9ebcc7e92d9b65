package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/pokedex-client/pkg/auth"
	"github.com/Sternrassler/pokedex-client/pkg/catalog"
	"github.com/Sternrassler/pokedex-client/pkg/client"
	"github.com/Sternrassler/pokedex-client/pkg/config"
	"github.com/Sternrassler/pokedex-client/pkg/logging"
	"github.com/Sternrassler/pokedex-client/pkg/metrics"
	"github.com/Sternrassler/pokedex-client/pkg/pagination"
	"github.com/Sternrassler/pokedex-client/pkg/pokeapi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/lrstanley/chix"
	"github.com/rs/zerolog"
)

type server struct {
	catalog       *catalog.Catalog
	authenticator auth.Authenticator
	tokens        *auth.TokenIssuer
	pageSize      int
	movesPerPage  int
	perMinute     int
	logger        zerolog.Logger
}

// newServer wires the catalog pipeline and the auth layer on top of api.
// bcryptCost <= 0 selects the bcrypt default.
func newServer(cfg *config.Config, api *client.Client, bcryptCost int) (*server, error) {
	authenticator, err := auth.NewStaticAuthenticator(cfg.Auth.Email, cfg.Auth.Password, bcryptCost)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}

	batch := pagination.NewBatchFetcher(pagination.Config{
		MaxConcurrency: cfg.API.MaxConcurrency,
		Timeout:        cfg.API.Timeout,
	})

	return &server{
		catalog:       catalog.New(pokeapi.NewService(api), batch),
		authenticator: authenticator,
		tokens:        tokens,
		pageSize:      cfg.Catalog.PageSize,
		movesPerPage:  cfg.Catalog.MovesPerPage,
		perMinute:     cfg.HTTP.RequestsPerMinute,
		logger:        logging.NewLogger("http"),
	}, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.StripSlashes,
		metrics.Instrument,
	)

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		if s.perMinute > 0 {
			r.Use(httprate.LimitByIP(s.perMinute, time.Minute))
		}
		r.Post("/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.tokens))
			r.Get("/pokemon", s.listPokemon)
			r.Get("/pokemon/{id}", s.getPokemon)
		})
	})

	return r
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

type loginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := chix.Bind(r, &req); err != nil {
		chix.JSON(w, r, http.StatusBadRequest, chix.M{"error": err.Error()})
		return
	}

	if err := s.authenticator.Authenticate(r.Context(), req.Email, req.Password); err != nil {
		s.logger.Info().Str("email", req.Email).Msg("Login rejected")
		chix.JSON(w, r, http.StatusUnauthorized, chix.M{"error": auth.ErrInvalidCredentials.Error()})
		return
	}

	token, expires, err := s.tokens.Issue(req.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue token")
		chix.JSON(w, r, http.StatusInternalServerError, chix.M{"error": "failed to issue token"})
		return
	}

	s.logger.Info().Str("email", req.Email).Msg("Login accepted")
	chix.JSON(w, r, http.StatusOK, chix.M{"token": token, "expires_at": expires.UTC()})
}

type pageInfo struct {
	Offset         int  `json:"offset"`
	Limit          int  `json:"limit"`
	Total          int  `json:"total"`
	LastPageOffset int  `json:"last_page_offset"`
	HasNext        bool `json:"has_next"`
	HasPrev        bool `json:"has_prev"`
}

type listResponse struct {
	Items      []catalog.ItemSummary `json:"items"`
	Pagination pageInfo              `json:"pagination"`
}

func (s *server) listPokemon(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		chix.JSON(w, r, http.StatusBadRequest, chix.M{"error": err.Error()})
		return
	}

	state := pagination.NewState(s.pageSize).WithOffset(offset)
	page, err := s.catalog.LoadPage(r.Context(), state.Offset, state.PageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// An offset past the end is clamped to the last page and fetched again.
	if clamped := state.WithTotal(page.Count); clamped.Offset != state.Offset {
		state = clamped
		page, err = s.catalog.LoadPage(r.Context(), state.Offset, state.PageSize)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	state = state.WithTotal(page.Count)

	items := page.Items
	if items == nil {
		items = []catalog.ItemSummary{}
	}

	chix.JSON(w, r, http.StatusOK, listResponse{
		Items: items,
		Pagination: pageInfo{
			Offset:         state.Offset,
			Limit:          state.PageSize,
			Total:          state.Total,
			LastPageOffset: state.LastPageOffset(),
			HasNext:        state.HasNext(),
			HasPrev:        state.HasPrev(),
		},
	})
}

type movePageInfo struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

type detailResponse struct {
	Pokemon         catalog.DetailRecord  `json:"pokemon"`
	Moves           []catalog.MoveSummary `json:"moves"`
	MovesPagination movePageInfo          `json:"moves_pagination"`
	BackOffset      int                   `json:"back_offset"`
}

func (s *server) getPokemon(w http.ResponseWriter, r *http.Request) {
	backOffset, err := intParam(r, "offset", 0)
	if err != nil {
		chix.JSON(w, r, http.StatusBadRequest, chix.M{"error": err.Error()})
		return
	}
	page, err := intParam(r, "page", 1)
	if err != nil || page < 1 {
		chix.JSON(w, r, http.StatusBadRequest, chix.M{"error": "page must be a positive integer"})
		return
	}

	rec, moves, err := s.catalog.LoadDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	pager := pagination.NewPager(s.movesPerPage).WithCount(len(moves)).WithPage(page - 1)
	visible := pagination.Visible(pager, moves)
	if visible == nil {
		visible = []catalog.MoveSummary{}
	}

	chix.JSON(w, r, http.StatusOK, detailResponse{
		Pokemon: rec,
		Moves:   visible,
		MovesPagination: movePageInfo{
			Page:       pager.Page + 1,
			PerPage:    pager.PerPage,
			Total:      pager.Count,
			TotalPages: pager.TotalPages(),
			HasNext:    pager.HasNext(),
			HasPrev:    pager.HasPrev(),
		},
		BackOffset: pagination.NewState(s.pageSize).WithOffset(backOffset).Offset,
	})
}

// writeError maps catalog and client errors to HTTP statuses.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, client.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, catalog.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, client.ErrNetwork), errors.Is(err, client.ErrDecode):
		status = http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	event := s.logger.Warn()
	if status == http.StatusInternalServerError {
		event = s.logger.Error()
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		event = event.Str("user", claims.Email)
	}
	event.Err(err).
		Str("path", r.URL.Path).
		Str("error_class", string(client.ClassOf(err))).
		Int("status", status).
		Msg("Request failed")

	chix.JSON(w, r, status, chix.M{"error": err.Error()})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
