// Package cli is the interactive voter client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/client"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/client/config"
)

// ballotAPI is what the commands need from the server connection.
// *client.GRPCClient satisfies it.
type ballotAPI interface {
	Login(ctx context.Context, userName string, password []byte) error
	ListBallots(ctx context.Context) (available, finished []client.Ballot, err error)
	GetBallot(ctx context.Context, ballotID string) (*client.Ballot, error)
	CastVote(ctx context.Context, ballotID string, selections map[string]string) (string, error)
	GetResults(ctx context.Context, ballotID string) (*client.Results, error)
	ExportArchive(ctx context.Context, ballotID string) (key, url string, err error)
	Logout()
	Close() error
}

type App struct {
	config   *config.Config
	api      ballotAPI
	reader   *bufio.Reader
	out      io.Writer
	userName string
}

func NewApp(c *config.Config) (*App, error) {
	api, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}
	return newApp(c, api, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, api ballotAPI, in io.Reader, out io.Writer) *App {
	return &App{config: c, api: api, reader: bufio.NewReader(in), out: out}
}

func (a *App) Run(ctx context.Context) {
	defer a.api.Close()
	runREPL(ctx, a, a.status, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) status() string {
	if a.isLoggedIn() {
		return a.userName
	}
	return "not logged in"
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// explain turns client errors into the message shown at the prompt.
func explain(err error) string {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return "session expired or credentials rejected, please log in"
	case errors.Is(err, client.ErrNotPermitted):
		return "not permitted"
	case errors.Is(err, client.ErrNotFound):
		return "ballot not found"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	default:
		return err.Error()
	}
}
