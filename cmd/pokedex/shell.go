package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/pokedex-client/pkg/auth"
	"github.com/Sternrassler/pokedex-client/pkg/browser"
	"github.com/Sternrassler/pokedex-client/pkg/catalog"
	"github.com/Sternrassler/pokedex-client/pkg/client"
)

const maxLoginAttempts = 3

var errTooManyAttempts = errors.New("too many failed login attempts")

// passwordReader reads a password without echo when possible.
type passwordReader func() (string, error)

type shell struct {
	in           *bufio.Scanner
	out          io.Writer
	readPassword passwordReader

	authenticator auth.Authenticator
	nav           *browser.MemoryNavigator
	home          *browser.HomeView
	detail        *browser.DetailView
	inDetail      bool
}

func newShell(ctx context.Context, in io.Reader, out io.Writer, cat *catalog.Catalog, authenticator auth.Authenticator, pageSize, movesPerPage int) *shell {
	nav := browser.NewMemoryNavigator("")
	s := &shell{
		in:            bufio.NewScanner(in),
		out:           out,
		authenticator: authenticator,
		nav:           nav,
		home:          browser.NewHomeView(ctx, cat, nav, pageSize),
		detail:        browser.NewDetailView(ctx, cat, nav, movesPerPage),
	}
	s.readPassword = s.readLine
	return s
}

func (s *shell) readLine() (string, error) {
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *shell) login(ctx context.Context) error {
	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		fmt.Fprint(s.out, "Email: ")
		email, err := s.readLine()
		if err != nil {
			return err
		}
		fmt.Fprint(s.out, "Password: ")
		password, err := s.readPassword()
		if err != nil {
			return err
		}

		if err := s.authenticator.Authenticate(ctx, email, password); err == nil {
			fmt.Fprintln(s.out, "Welcome!")
			return nil
		}
		fmt.Fprintln(s.out, "Incorrect credentials.")
	}
	return errTooManyAttempts
}

// run logs in and then executes commands until quit or end of input.
func (s *shell) run(ctx context.Context) error {
	defer s.home.Close()
	defer s.detail.Close()

	if err := s.login(ctx); err != nil {
		return err
	}

	s.home.Enter()
	s.home.Wait()
	s.renderHome()

	for {
		fmt.Fprint(s.out, "> ")
		line, err := s.readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}

		cmd, err := parseCommand(line)
		if err != nil {
			fmt.Fprintln(s.out, err)
			continue
		}
		if cmd.kind == cmdQuit {
			return nil
		}
		s.execute(cmd)
	}
}

func (s *shell) execute(cmd command) {
	if cmd.kind == cmdHelp {
		fmt.Fprintln(s.out, helpText)
		return
	}

	if s.inDetail {
		switch cmd.kind {
		case cmdMore:
			s.detail.NextPage()
		case cmdLess:
			s.detail.PrevPage()
		case cmdReload:
			s.detail.Open(s.detail.Snapshot().ID)
			s.detail.Wait()
		case cmdBack:
			s.nav.SetQuery(s.detail.BackParams())
			s.home.OnParamsChanged()
			s.home.Wait()
			s.inDetail = false
			s.renderHome()
			return
		default:
			fmt.Fprintln(s.out, "Not available here; use back to return to the list.")
			return
		}
		s.renderDetail()
		return
	}

	switch cmd.kind {
	case cmdNext:
		s.home.Next()
	case cmdPrev:
		s.home.Prev()
	case cmdJump:
		s.home.Jump(cmd.arg)
	case cmdFirst:
		s.home.GoToFirst()
	case cmdReload:
		s.home.Reload()
	case cmdOpen:
		id, params, ok := s.home.DetailLink(cmd.arg - 1)
		if !ok {
			fmt.Fprintf(s.out, "No pokemon at position %d.\n", cmd.arg)
			return
		}
		s.nav.SetQuery(params)
		s.detail.Open(id)
		s.detail.Wait()
		s.inDetail = true
		s.renderDetail()
		return
	default:
		fmt.Fprintln(s.out, "Not available on the list; open a pokemon first.")
		return
	}
	s.home.Wait()
	s.renderHome()
}

func (s *shell) renderHome() {
	snap := s.home.Snapshot()
	if snap.Err != nil {
		fmt.Fprintf(s.out, "Could not load the page: %s\n", describe(snap.Err))
	}

	st := snap.State
	fmt.Fprintf(s.out, "Page %d of %d (offset %d, %d pokemon)\n", st.Page(), st.TotalPages(), st.Offset, st.Total)
	for i, item := range snap.Page.Items {
		marker := " "
		if item.Image != nil && *item.Image != "" {
			marker = "*"
		}
		fmt.Fprintf(s.out, "%3d %s %s\n", i+1, marker, item.Name)
	}
}

func (s *shell) renderDetail() {
	snap := s.detail.Snapshot()
	if snap.Err != nil {
		fmt.Fprintf(s.out, "Could not load pokemon %s: %s\n", snap.ID, describe(snap.Err))
	}
	if snap.Record == nil {
		return
	}

	rec := snap.Record
	fmt.Fprintf(s.out, "#%d %s\n", rec.ID, rec.Name)
	fmt.Fprintf(s.out, "  height %d  weight %d  base experience %d\n", rec.Height, rec.Weight, rec.BaseExperience)
	fmt.Fprintf(s.out, "  types: %s\n", strings.Join(rec.Types, ", "))
	fmt.Fprintf(s.out, "  abilities: %s\n", strings.Join(rec.Abilities, ", "))
	for _, st := range rec.Stats {
		fmt.Fprintf(s.out, "  %-16s %3d\n", st.Name, st.BaseStat)
	}
	if rec.SpriteURL != "" {
		fmt.Fprintf(s.out, "  sprite: %s\n", rec.SpriteURL)
	}

	pager := snap.Pager
	fmt.Fprintf(s.out, "Moves (page %d of %d, %d of %d resolved)\n", pager.Page+1, max(1, pager.TotalPages()), len(snap.Moves), len(rec.Moves))
	for _, mv := range snap.VisibleMoves() {
		fmt.Fprintf(s.out, "  %-20s %-10s power %3d  accuracy %3d\n", mv.Name, mv.Type, mv.Power, mv.Accuracy)
	}
}

func describe(err error) string {
	switch {
	case errors.Is(err, client.ErrNotFound):
		return "not found"
	case errors.Is(err, client.ErrDecode):
		return "unexpected response from the server"
	case errors.Is(err, client.ErrNetwork):
		return "network error, try reload"
	default:
		return err.Error()
	}
}
