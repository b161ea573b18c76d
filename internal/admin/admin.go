// Package admin implements the operator commands of the ballot server.
// They work directly against the database, without the gRPC transport.
package admin

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/flagx"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/logging"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/config"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/lifecycle"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/repomanager"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/services"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/storage"
)

const usage = `usage: admin <command> [flags]

commands:
  migrate          apply database migrations
  create-user      create a user with a voter profile
                   -username, -email, -district, -middle-name, -birth-date YYYY-MM-DD, -staff=true
  export-archives  upload the results of every archived ballot to object storage

server flags (-d, -c, ...) are accepted by every command`

var ErrUsage = errors.New(usage)

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepositoryManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}
	newObjectStore = func(ctx context.Context, c *config.Config) (storage.ObjectStore, error) {
		return storage.NewS3Store(ctx, c)
	}
	readPassword = func() ([]byte, error) {
		return term.ReadPassword(int(os.Stdin.Fd()))
	}
	clock services.Clock = services.SystemClock{}
)

// Run executes the command named by args[0].
func Run(ctx context.Context, args []string, out io.Writer) error {
	cmd, rest := flagx.Subcommand(args)
	if cmd == "" {
		return ErrUsage
	}

	cfg := config.LoadConfig(rest)
	logger := logging.NewJSON(os.Stderr, slog.LevelInfo)

	db, err := openDB(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := newRepositoryManager()

	switch cmd {
	case "migrate":
		if err := rm.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("migrations error: %w", err)
		}
		fmt.Fprintln(out, "migrations applied")
		return nil
	case "create-user":
		return createUser(ctx, db, rm, cfg, logger, rest, out)
	case "export-archives":
		return exportArchives(ctx, db, rm, cfg, logger, out)
	default:
		return ErrUsage
	}
}

func createUser(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager, cfg *config.Config,
	logger logging.Logger, args []string, out io.Writer) error {
	var (
		in        services.RegisterInput
		birthDate string
	)

	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&in.UserName, "username", "", "login name")
	fs.StringVar(&in.Email, "email", "", "e-mail address")
	fs.StringVar(&in.District, "district", "", "voting district")
	fs.StringVar(&in.MiddleName, "middle-name", "", "middle name")
	fs.StringVar(&birthDate, "birth-date", "", "birth date, YYYY-MM-DD")
	fs.BoolVar(&in.IsStaff, "staff", false, "grant staff rights")

	allowed := []string{"-username", "-email", "-district", "-middle-name", "-birth-date", "-staff"}
	if err := fs.Parse(flagx.FilterArgs(args, allowed)); err != nil {
		return fmt.Errorf("%w\n%v", ErrUsage, err)
	}
	if in.UserName == "" {
		return fmt.Errorf("-username is required")
	}
	if birthDate != "" {
		t, err := time.Parse("2006-01-02", birthDate)
		if err != nil {
			return fmt.Errorf("-birth-date: %w", err)
		}
		in.BirthDate = &t
	}

	fmt.Fprint(out, "Password: ")
	password, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("error reading password: %w", err)
	}
	in.Password = password

	users := services.NewUserService(db, rm, cfg, services.NewLogNotifier(logger), clock, logger)
	identity, err := users.Register(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "created user %s (%s)\n", identity.User.UserName, identity.User.ID)
	return nil
}

// exportArchives uploads every archived ballot. Exports overwrite, so the
// command is safe to run from cron.
func exportArchives(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager, cfg *config.Config,
	logger logging.Logger, out io.Writer) error {
	store, err := newObjectStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("object storage init error: %w", err)
	}

	now := clock.Now()
	ballots := services.NewBallotService(db, rm, nil, nil, cfg, logger)
	archive := services.NewArchiveService(db, rm, services.NewTallyService(db, rm, nil), store, nil, logger)

	archived, err := ballots.ListByPhase(ctx, lifecycle.PhaseArchived, now)
	if err != nil {
		return err
	}

	var errs []error
	for _, b := range archived {
		key, err := archive.Export(ctx, b.ID, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("ballot %s: %w", b.ID, err))
			continue
		}
		fmt.Fprintln(out, key)
	}
	return errors.Join(errs...)
}
