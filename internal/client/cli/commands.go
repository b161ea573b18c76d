package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/client"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/filex"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/netx"
)

// downloadArchive is a seam over the presigned GET.
var downloadArchive = netx.DownloadPresigned

func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	rctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.api.Login(rctx, userName, password); err != nil {
		return err
	}

	a.userName = userName
	a.printf("Logged in as %s\n", userName)
	return nil
}

func (a *App) Logout(context.Context) error {
	a.api.Logout()
	a.userName = ""
	a.printf("Logged out\n")
	return nil
}

func (a *App) List(ctx context.Context) error {
	rctx, cancel := a.withTimeout(ctx)
	defer cancel()

	available, finished, err := a.api.ListBallots(rctx)
	if err != nil {
		return err
	}

	a.printf("Available:\n")
	a.printBallots(available)
	a.printf("Finished:\n")
	a.printBallots(finished)
	return nil
}

func (a *App) printBallots(bs []client.Ballot) {
	if len(bs) == 0 {
		a.printf("  (none)\n")
		return
	}
	for _, b := range bs {
		due := b.DueAt
		if due == "" {
			due = "no due date"
		}
		a.printf("  %s  %s  [%s, due %s]\n", b.ID, b.Title, b.State, due)
	}
}

func (a *App) Show(ctx context.Context, ballotID string) error {
	rctx, cancel := a.withTimeout(ctx)
	defer cancel()

	b, err := a.api.GetBallot(rctx, ballotID)
	if err != nil {
		return err
	}

	a.printf("%s\n", b.Title)
	if b.Description != "" {
		a.printf("%s\n", b.Description)
	}
	a.printf("District: %s\nOpens: %s\nDue: %s\nState: %s\n", b.District, b.PublishAt, b.DueAt, b.State)
	for i, q := range b.Questions {
		a.printf("%d. %s\n", i+1, q.Prompt)
		for _, c := range q.Choices {
			a.printf("   - %s\n", c.Label)
		}
	}
	return nil
}

// Vote walks the questions of a ballot, then submits all picks at once.
// Skipped questions are left out of the submission.
func (a *App) Vote(ctx context.Context, ballotID string) error {
	rctx, cancel := a.withTimeout(ctx)
	b, err := a.api.GetBallot(rctx, ballotID)
	cancel()
	if err != nil {
		return err
	}

	a.printf("%s\n", b.Title)
	selections := make(map[string]string, len(b.Questions))
	for _, q := range b.Questions {
		a.printf("\n%s\n", q.Prompt)
		for i, c := range q.Choices {
			a.printf("  %d) %s\n", i+1, c.Label)
		}
		n, err := a.chooseIndex(len(q.Choices))
		if err != nil {
			return err
		}
		if n > 0 {
			selections[q.ID] = q.Choices[n-1].ID
		}
	}

	rctx, cancel = a.withTimeout(ctx)
	defer cancel()
	status, err := a.api.CastVote(rctx, ballotID, selections)
	if err != nil {
		return err
	}

	switch status {
	case "accepted":
		a.printf("Your vote was recorded.\n")
	case "no_selection":
		a.printf("Nothing selected, no vote was recorded.\n")
	default:
		a.printf("Server answered: %s\n", status)
	}
	return nil
}

// chooseIndex asks until it gets a number in [1, n] or an empty line,
// which yields 0.
func (a *App) chooseIndex(n int) (int, error) {
	for {
		line, err := getSimpleText(a.reader, "Choice (empty to skip)", a.out)
		if err != nil {
			return 0, err
		}
		if line == "" {
			return 0, nil
		}
		i, err := strconv.Atoi(line)
		if err == nil && i >= 1 && i <= n {
			return i, nil
		}
		a.printf("Enter a number from 1 to %d\n", n)
	}
}

func (a *App) Results(ctx context.Context, ballotID string) error {
	rctx, cancel := a.withTimeout(ctx)
	defer cancel()

	r, err := a.api.GetResults(rctx, ballotID)
	if err != nil {
		return err
	}

	a.printf("%s\nVoters: %d, ballots cast: %d\n", r.Ballot.Title, r.Receipts, r.Envelopes)
	for i, q := range r.Questions {
		a.printf("%d. %s\n", i+1, q.Prompt)
		for _, c := range q.Choices {
			a.printf("   %-30s %d\n", c.Label, c.Count)
		}
	}
	return nil
}

// Archive has the server export an archived ballot and saves the document
// under the configured archive directory.
func (a *App) Archive(ctx context.Context, ballotID string) error {
	rctx, cancel := a.withTimeout(ctx)
	defer cancel()

	key, url, err := a.api.ExportArchive(rctx, ballotID)
	if err != nil {
		return err
	}
	body, err := downloadArchive(rctx, url)
	if err != nil {
		return fmt.Errorf("error downloading archive: %w", err)
	}
	path, err := filex.SaveTo(a.config.ArchiveDir, key, body)
	if err != nil {
		return err
	}

	a.printf("Archive saved to: %s\n", path)
	return nil
}
