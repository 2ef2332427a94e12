package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/fp4-go/internal/storage/sqlstore"
	"github.com/yndnr/fp4-go/internal/telemetry/logger"
)

// MigrateCommand applies or lists database migrations without starting the server.
func MigrateCommand() *cli.Command {
	dbFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "driver",
			Usage:   "Database driver: sqlite3 or pgx",
			EnvVars: []string{"FP4_STORAGE__DRIVER"},
			Value:   "sqlite3",
		},
		&cli.StringFlag{
			Name:     "dsn",
			Usage:    "Database DSN",
			EnvVars:  []string{"FP4_STORAGE__DSN"},
			Required: true,
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Log each applied migration",
		},
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Subcommands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply pending migrations",
				Flags:  dbFlags,
				Action: migrateUp,
			},
			{
				Name:   "status",
				Usage:  "List migrations and whether they are applied",
				Flags:  dbFlags,
				Action: migrateStatus,
			},
		},
	}
}

func openStore(c *cli.Context) (*sqlstore.Store, error) {
	ctx, cancel := requestContext(c)
	defer cancel()

	level := "warn"
	if c.Bool("verbose") {
		level = "info"
	}
	errOut := c.App.ErrWriter
	if errOut == nil {
		errOut = os.Stderr
	}
	log, err := logger.New(logger.Config{Level: level, Format: "text", Output: errOut})
	if err != nil {
		return nil, err
	}

	return sqlstore.Open(ctx, sqlstore.Config{
		Driver:       c.String("driver"),
		DSN:          c.String("dsn"),
		MaxOpenConns: 1,
	}, logger.Slog(log))
}

func migrateUp(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := requestContext(c)
	defer cancel()

	applied, err := store.Migrate(ctx)
	if err != nil {
		return err
	}
	w := stdout(c)
	if len(applied) == 0 {
		fmt.Fprintln(w, "Schema is up to date.")
		return nil
	}
	for _, v := range applied {
		fmt.Fprintf(w, "Applied migration %d\n", v)
	}
	return nil
}

func migrateStatus(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := requestContext(c)
	defer cancel()

	status, err := store.MigrationStatus(ctx)
	if err != nil {
		return err
	}
	return render(c, flags, status)
}
