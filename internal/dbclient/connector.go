package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stationcsv/internal/domain"
)

// OpenSQL opens a pooled connection for a MySQL, Postgres or SQLite target
// and verifies it with a ping.
func OpenSQL(ctx context.Context, t *domain.DatabaseTarget) (*sql.DB, error) {
	var driverName, dsn string
	switch t.Driver {
	case domain.DatabaseDriverSQLite:
		driverName, dsn = "sqlite", buildSQLiteDSN(t)
	case domain.DatabaseDriverMySQL:
		driverName, dsn = "mysql", buildMySQLDSN(t)
	case domain.DatabaseDriverPostgres:
		driverName, dsn = "postgres", buildPostgresDSN(t)
	default:
		return nil, fmt.Errorf("unsupported sql driver: %q", t.Driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	if t.Driver == domain.DatabaseDriverSQLite {
		// SQLite only supports one writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(2)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(10 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}
	return db, nil
}

// Placeholder returns the bind parameter for the n-th (1-based) argument.
func Placeholder(driver domain.DatabaseDriver, n int) string {
	if driver == domain.DatabaseDriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// QuoteIdent quotes a table or column name for the driver.
func QuoteIdent(driver domain.DatabaseDriver, name string) string {
	if driver == domain.DatabaseDriverMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// NumberColumnType is the column type used for float values.
func NumberColumnType(driver domain.DatabaseDriver) string {
	switch driver {
	case domain.DatabaseDriverSQLite:
		return "REAL"
	case domain.DatabaseDriverMySQL:
		return "DOUBLE"
	default:
		return "DOUBLE PRECISION"
	}
}
