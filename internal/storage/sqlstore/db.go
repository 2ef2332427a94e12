package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/yndnr/fp4-go/internal/storage/sqlstore/migrations"
)

// Config configures the database pool.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store implements the credential and seizure repositories.
type Store struct {
	db      *sql.DB
	dialect dialect
	log     *slog.Logger
}

// Open connects to the database and pings it.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Store, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}
	return New(db, cfg.Driver, log)
}

// New wraps an open *sql.DB.
func New(db *sql.DB, driver string, log *slog.Logger) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, dialect: d, log: log}, nil
}

// DB returns the underlying pool.
func (s *Store) DB() *sql.DB { return s.db }

// Driver returns the driver name.
func (s *Store) Driver() string { return s.dialect.driver }

// Stats returns pool statistics.
func (s *Store) Stats() sql.DBStats { return s.db.Stats() }

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the pool.
func (s *Store) Close() error { return s.db.Close() }

// MigrationState is the status of one migration.
type MigrationState struct {
	Version   int64     `json:"version" yaml:"version"`
	Source    string    `json:"source" yaml:"source"`
	Applied   bool      `json:"applied" yaml:"applied"`
	AppliedAt time.Time `json:"applied_at,omitempty" yaml:"applied_at,omitempty"`
}

func (s *Store) provider() (*goose.Provider, error) {
	sub, err := fs.Sub(migrations.FS, s.dialect.dir)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(s.dialect.goose, s.db, sub)
}

// Migrate applies pending migrations and returns the versions it applied.
func (s *Store) Migrate(ctx context.Context) ([]int64, error) {
	p, err := s.provider()
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	applied := make([]int64, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Version)
		s.log.Info("migration applied",
			"version", r.Source.Version,
			"source", r.Source.Path,
			"duration", r.Duration,
		)
	}
	return applied, nil
}

// MigrationStatus lists every known migration.
func (s *Store) MigrationStatus(ctx context.Context) ([]MigrationState, error) {
	p, err := s.provider()
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	status, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	out := make([]MigrationState, 0, len(status))
	for _, st := range status {
		out = append(out, MigrationState{
			Version:   st.Source.Version,
			Source:    st.Source.Path,
			Applied:   st.State == goose.StateApplied,
			AppliedAt: st.AppliedAt,
		})
	}
	return out, nil
}
