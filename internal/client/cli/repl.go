package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// commands is the surface the loop dispatches to. *App implements it.
type commands interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, ballotID string) error
	Vote(ctx context.Context, ballotID string) error
	Results(ctx context.Context, ballotID string) error
	Archive(ctx context.Context, ballotID string) error
}

const (
	helpLoggedOut = "Available commands: login, exit"
	helpLoggedIn  = "Available commands: (l)ist, show <id>, vote <id>, results <id>, archive <id>, logout, exit"
)

// runREPL reads one command per line until EOF or exit. Handler errors are
// printed and the loop goes on. Commands prompting for input share reader
// with the loop.
func runREPL(ctx context.Context, a commands, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for {
		fmt.Fprintf(out, "ballot [%s]> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, arg := parts[0], ""
		if len(parts) > 1 {
			arg = parts[1]
		}

		err = nil
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(out, helpLoggedIn)
			} else {
				fmt.Fprintln(out, helpLoggedOut)
			}
		case "login":
			err = a.Login(ctx)
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		default:
			if !a.isLoggedIn() {
				fmt.Fprintln(out, "Please log in first")
				continue
			}
			err = dispatch(ctx, a, cmd, arg, out)
		}

		if err != nil {
			fmt.Fprintln(out, "error:", explain(err))
		}
	}
}

func dispatch(ctx context.Context, a commands, cmd, arg string, out io.Writer) error {
	byID := map[string]func(context.Context, string) error{
		"show":    a.Show,
		"vote":    a.Vote,
		"results": a.Results,
		"archive": a.Archive,
	}

	switch cmd {
	case "l", "list":
		return a.List(ctx)
	case "logout":
		return a.Logout(ctx)
	}

	fn, ok := byID[cmd]
	if !ok {
		fmt.Fprintln(out, "Unknown command:", cmd)
		return nil
	}
	if arg == "" {
		fmt.Fprintf(out, "usage: %s <ballot id>\n", cmd)
		return nil
	}
	return fn(ctx, arg)
}
