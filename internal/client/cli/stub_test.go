package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/client"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/client/config"
)

type stubAPI struct {
	loginErr   error
	available  []client.Ballot
	finished   []client.Ballot
	ballot     *client.Ballot
	castStatus string
	castErr    error
	results    *client.Results
	archiveKey string
	archiveURL string
	err        error

	loggedInAs string
	password   string
	cast       map[string]string
	loggedOut  bool
	closed     bool
}

func (s *stubAPI) Login(_ context.Context, userName string, password []byte) error {
	s.loggedInAs, s.password = userName, string(password)
	return s.loginErr
}

func (s *stubAPI) ListBallots(context.Context) ([]client.Ballot, []client.Ballot, error) {
	return s.available, s.finished, s.err
}

func (s *stubAPI) GetBallot(context.Context, string) (*client.Ballot, error) {
	return s.ballot, s.err
}

func (s *stubAPI) CastVote(_ context.Context, _ string, sel map[string]string) (string, error) {
	s.cast = sel
	return s.castStatus, s.castErr
}

func (s *stubAPI) GetResults(context.Context, string) (*client.Results, error) {
	return s.results, s.err
}

func (s *stubAPI) ExportArchive(context.Context, string) (string, string, error) {
	return s.archiveKey, s.archiveURL, s.err
}

func (s *stubAPI) Logout()      { s.loggedOut = true }
func (s *stubAPI) Close() error { s.closed = true; return nil }

func testApp(t *testing.T, api *stubAPI, input string) (*App, *bytes.Buffer) {
	t.Helper()

	origPassword := readPassword
	readPassword = func(int) ([]byte, error) { return []byte("pw"), nil }
	t.Cleanup(func() { readPassword = origPassword })

	cfg := &config.Config{ArchiveDir: t.TempDir(), RequestTimeout: time.Second}
	var out bytes.Buffer
	return newApp(cfg, api, strings.NewReader(input), &out), &out
}

func sampleBallot() *client.Ballot {
	return &client.Ballot{
		ID:        "b1",
		Title:     "School levy",
		District:  "BaltimoreCounty",
		PublishAt: "2021-11-01T00:00:00Z",
		DueAt:     "2021-11-30T00:00:00Z",
		State:     "open",
		Questions: []client.Question{
			{ID: "q1", Prompt: "Approve the levy?", Choices: []client.Choice{{ID: "c1", Label: "Yes"}, {ID: "c2", Label: "No"}}},
			{ID: "q2", Prompt: "Term length?", Choices: []client.Choice{{ID: "c3", Label: "2 years"}, {ID: "c4", Label: "4 years"}}},
		},
	}
}
