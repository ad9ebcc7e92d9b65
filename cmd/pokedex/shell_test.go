package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Sternrassler/pokedex-client/internal/testutil"
	"github.com/Sternrassler/pokedex-client/pkg/auth"
	"github.com/Sternrassler/pokedex-client/pkg/catalog"
	"github.com/Sternrassler/pokedex-client/pkg/client"
	"github.com/Sternrassler/pokedex-client/pkg/pokeapi"
	"golang.org/x/crypto/bcrypt"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    command
		wantErr bool
	}{
		{"next", command{kind: cmdNext}, false},
		{"  N ", command{kind: cmdNext}, false},
		{"prev", command{kind: cmdPrev}, false},
		{"jump 3", command{kind: cmdJump, arg: 3}, false},
		{"j -2", command{kind: cmdJump, arg: -2}, false},
		{"first", command{kind: cmdFirst}, false},
		{"open 5", command{kind: cmdOpen, arg: 5}, false},
		{"back", command{kind: cmdBack}, false},
		{"more", command{kind: cmdMore}, false},
		{"less", command{kind: cmdLess}, false},
		{"quit", command{kind: cmdQuit}, false},
		{"", command{}, true},
		{"jump", command{}, true},
		{"jump x", command{}, true},
		{"open 0", command{}, true},
		{"next 2", command{}, true},
		{"dance", command{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCommand(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseCommand(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func newTestShell(t *testing.T, mock *testutil.MockPokeAPI, input string) (*shell, *bytes.Buffer) {
	t.Helper()

	api, err := client.New(client.Config{BaseURL: mock.BaseURL(), UserAgent: "pokedex-shell-test/1.0"})
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	t.Cleanup(func() { api.Close() })

	authenticator, err := auth.NewStaticAuthenticator("usuario@ups.edu.ec", "123456", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewStaticAuthenticator() error = %v", err)
	}

	out := &bytes.Buffer{}
	cat := catalog.New(pokeapi.NewService(api), nil)
	return newShell(context.Background(), strings.NewReader(input), out, cat, authenticator, 20, 8), out
}

func TestShell_Session(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SeedPokemon(45)

	moves := make([]string, 10)
	for i := range moves {
		moves[i] = fmt.Sprintf("move-%d", i)
		mock.AddMove(testutil.Move{Name: moves[i], Type: "normal", Power: testutil.Int(40)})
	}
	mock.AddPokemon(testutil.Pokemon{ID: 22, Name: "pokemon-22", Types: []string{"normal"}, Moves: moves})

	input := strings.Join([]string{
		"usuario@ups.edu.ec", "wrong1",
		"usuario@ups.edu.ec", "123456",
		"next",
		"open 2",
		"more",
		"next",
		"back",
		"dance",
		"quit",
	}, "\n") + "\n"

	sh, out := newTestShell(t, mock, input)
	if err := sh.run(context.Background()); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Incorrect credentials.",
		"Welcome!",
		"Page 1 of 3 (offset 0, 45 pokemon)",
		"Page 2 of 3 (offset 20, 45 pokemon)",
		"#22 pokemon-22",
		"Moves (page 1 of 2, 10 of 10 resolved)",
		"Moves (page 2 of 2, 10 of 10 resolved)",
		"Not available here",
		`unknown command "dance"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q\n%s", want, text)
		}
	}

	// back restores the page the detail was opened from
	last := text[strings.LastIndex(text, "Page "):]
	if !strings.HasPrefix(last, "Page 2 of 3") {
		t.Errorf("after back, list shows %q", strings.SplitN(last, "\n", 2)[0])
	}
}

func TestShell_LoginGivesUp(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()

	input := strings.Repeat("usuario@ups.edu.ec\nbad\n", maxLoginAttempts)
	sh, _ := newTestShell(t, mock, input)

	if err := sh.run(context.Background()); !errors.Is(err, errTooManyAttempts) {
		t.Errorf("run() error = %v, want errTooManyAttempts", err)
	}
	if mock.RequestCount() != 0 {
		t.Error("no catalog request should be made before login")
	}
}

func TestShell_EndOfInputExits(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SeedPokemon(3)

	sh, out := newTestShell(t, mock, "usuario@ups.edu.ec\n123456\n")
	if err := sh.run(context.Background()); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Page 1 of 1 (offset 0, 3 pokemon)") {
		t.Errorf("output = %s", out.String())
	}
}
