package main

import (
	"fmt"
	"strconv"
	"strings"
)

type commandKind int

const (
	cmdNext commandKind = iota
	cmdPrev
	cmdJump
	cmdFirst
	cmdOpen
	cmdBack
	cmdMore
	cmdLess
	cmdReload
	cmdHelp
	cmdQuit
)

type command struct {
	kind commandKind
	arg  int
}

const helpText = `Commands:
  next, n        next page
  prev, p        previous page
  jump N, j N    move N pages (negative goes back)
  first          first page
  open N, o N    show the N-th pokemon of the page
  back, b        return to the list
  more, less     page through the moves of the open pokemon
  reload, r      fetch the current view again
  help, h        this text
  quit, q        exit`

func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{}, fmt.Errorf("empty command")
	}

	simple := map[string]commandKind{
		"next": cmdNext, "n": cmdNext,
		"prev": cmdPrev, "p": cmdPrev,
		"first": cmdFirst,
		"back": cmdBack, "b": cmdBack,
		"more": cmdMore, "less": cmdLess,
		"reload": cmdReload, "r": cmdReload,
		"help": cmdHelp, "h": cmdHelp, "?": cmdHelp,
		"quit": cmdQuit, "q": cmdQuit, "exit": cmdQuit,
	}
	if kind, ok := simple[fields[0]]; ok {
		if len(fields) != 1 {
			return command{}, fmt.Errorf("%s takes no argument", fields[0])
		}
		return command{kind: kind}, nil
	}

	var kind commandKind
	switch fields[0] {
	case "jump", "j":
		kind = cmdJump
	case "open", "o":
		kind = cmdOpen
	default:
		return command{}, fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	if len(fields) != 2 {
		return command{}, fmt.Errorf("%s needs one number", fields[0])
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return command{}, fmt.Errorf("%s: %q is not a number", fields[0], fields[1])
	}
	if kind == cmdOpen && n < 1 {
		return command{}, fmt.Errorf("open: position starts at 1")
	}
	return command{kind: kind, arg: n}, nil
}
