package destinations

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"stationcsv/internal/dbclient"
	"stationcsv/internal/domain"
	"stationcsv/internal/etl"
)

// ── SQL Table Destination ───────────────────────────────────
// Writes rows into a table on SQLite, MySQL or Postgres. The table is
// created from the job schema when it does not exist.

type sqlTableDestination struct{}

func init() { etl.RegisterDestination(&sqlTableDestination{}) }

func (d *sqlTableDestination) Spec() etl.DestinationSpec {
	return etl.DestinationSpec{
		Type:  "sql_table",
		Label: "SQL Table",
		ConfigFields: []etl.ConfigField{
			{Key: "driver", Label: "Driver", Required: true, Options: []string{"sqlite", "mysql", "postgres"}},
			{Key: "dsn", Label: "DSN", Help: "Full connection string; overrides host/port/database/username"},
			{Key: "host", Label: "Host", Help: "Hostname, or the database file path for sqlite"},
			{Key: "port", Label: "Port"},
			{Key: "database", Label: "Database"},
			{Key: "username", Label: "Username"},
			{Key: "password", Label: "Password"},
			{Key: "sslMode", Label: "SSL Mode", Default: "disable"},
			{Key: "table", Label: "Table", Required: true},
		},
	}
}

func (d *sqlTableDestination) Open(ctx context.Context, cfg etl.DestinationConfig, schema *etl.Schema, mode etl.WriteMode) (etl.RowWriter, error) {
	driver := domain.DatabaseDriver(stringOpt(cfg, "driver"))
	table := stringOpt(cfg, "table")
	if table == "" {
		return nil, fmt.Errorf("table is required")
	}

	db, err := dbclient.OpenSQL(ctx, targetFromConfig(cfg, driver))
	if err != nil {
		return nil, err
	}

	quoted := dbclient.QuoteIdent(driver, table)
	if _, err := db.ExecContext(ctx, createTableSQL(driver, quoted, schema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	if mode == etl.WriteReplace {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+quoted); err != nil {
			db.Close()
			return nil, fmt.Errorf("clear table %s: %w", table, err)
		}
	}

	return &sqlRowWriter{db: db, insert: insertSQL(driver, quoted, schema)}, nil
}

func createTableSQL(driver domain.DatabaseDriver, table string, schema *etl.Schema) string {
	cols := make([]string, 0, len(schema.Fields)+1)
	cols = append(cols, dbclient.QuoteIdent(driver, "source_line")+" INTEGER NOT NULL")
	for _, f := range schema.Fields {
		typ := "TEXT"
		if f.Type == etl.FieldNumber {
			typ = dbclient.NumberColumnType(driver)
		}
		cols = append(cols, dbclient.QuoteIdent(driver, f.Name)+" "+typ)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(cols, ", "))
}

func insertSQL(driver domain.DatabaseDriver, table string, schema *etl.Schema) string {
	names := make([]string, 0, len(schema.Fields)+1)
	params := make([]string, 0, len(schema.Fields)+1)
	names = append(names, dbclient.QuoteIdent(driver, "source_line"))
	params = append(params, dbclient.Placeholder(driver, 1))
	for i, f := range schema.Fields {
		names = append(names, dbclient.QuoteIdent(driver, f.Name))
		params = append(params, dbclient.Placeholder(driver, i+2))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(names, ", "), strings.Join(params, ", "))
}

type sqlRowWriter struct {
	db     *sql.DB
	insert string
}

// Write inserts one row per statement; each insert commits on its own.
func (w *sqlRowWriter) Write(ctx context.Context, row etl.Row) error {
	args := make([]any, 0, len(row.Values)+1)
	args = append(args, row.Line)
	args = append(args, row.Values...)
	_, err := w.db.ExecContext(ctx, w.insert, args...)
	return err
}

func (w *sqlRowWriter) Close() error {
	return w.db.Close()
}
