package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/provider"
	"github.com/fjod/bakehouse/internal/signal"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations
var migrations embed.FS

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

func (c *Credentials) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName)
}

// Store implements provider.Provider on database/sql. Postgres and SQLite
// share every query; both accept $N placeholders.
type Store struct {
	db      *sql.DB
	dialect Dialect
	bus     signal.Bus
	logger  *slog.Logger
}

func OpenPostgres(cred *Credentials, bus signal.Bus, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", cred.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return newStore(db, DialectPostgres, bus, logger), nil
}

// OpenSQLite opens a local database file; ":memory:" gives a throwaway one.
func OpenSQLite(path string, bus signal.Bus, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)
	return newStore(db, DialectSQLite, bus, logger), nil
}

func newStore(db *sql.DB, dialect Dialect, bus signal.Bus, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if bus == nil {
		bus = signal.NewLocal()
	}
	return &Store{db: db, dialect: dialect, bus: bus, logger: logger}
}

// DB exposes the pool for components sharing the connection, such as the
// Postgres signal bus.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) RunMigrations() error {
	var (
		driver database.Driver
		err    error
	)
	switch s.dialect {
	case DialectPostgres:
		driver, err = postgres.WithInstance(s.db, &postgres.Config{
			MigrationsTable: "bakery_schema_migrations",
		})
	case DialectSQLite:
		driver, err = sqlite.WithInstance(s.db, &sqlite.Config{
			MigrationsTable: "bakery_schema_migrations",
		})
	default:
		return fmt.Errorf("unknown dialect %q", s.dialect)
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	src, err := iofs.New(migrations, "migrations/"+string(s.dialect))
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(s.dialect), driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}
	return nil
}

func (s *Store) SubscribeToNotifications(ctx context.Context, userID string, onNew func(domain.UserNotification)) (func(), error) {
	return provider.Subscribe(ctx, s.bus, s.GetUserNotifications, userID, onNew, s.logger)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isDuplicate(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	var liteErr *sqlitedrv.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

var _ provider.Provider = (*Store)(nil)
