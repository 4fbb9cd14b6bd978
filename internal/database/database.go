package database

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver ("pgx")
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite" // SQLite driver ("sqlite")
)

//go:embed migrations/*.sql
var migrations embed.FS

// connectAttempts bounds how many times New pings an unreachable database.
const connectAttempts = 5

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DriverName maps a configured driver to the registered database/sql name.
func DriverName(driver string) (string, error) {
	switch driver {
	case "sqlite":
		return "sqlite", nil
	case "postgres":
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// New creates a new database connection pool and waits until it answers a ping.
func New(ctx context.Context, driver, dataSourceName string) (*sqlx.DB, error) {
	name, err := DriverName(driver)
	if err != nil {
		return nil, err
	}
	if name == "sqlite" {
		dataSourceName = sqliteDSN(dataSourceName)
	}

	db, err := sqlx.Open(name, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if name == "sqlite" {
		// One writer avoids SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
	}

	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(250*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			log.Warn().Err(err).Str("driver", driver).Msg("Database not reachable yet")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate applies all pending schema migrations.
func Migrate(ctx context.Context, db *sqlx.DB, driver string) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	dialect := "sqlite3"
	if driver == "postgres" {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.DB, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db.DB)
	if err == nil {
		log.Info().Int64("version", version).Msg("Database schema up to date")
	}
	return nil
}

// sqliteDSN enables foreign keys for file paths or in-memory names that do
// not already carry pragmas.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
