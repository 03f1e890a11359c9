package destinations

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stationcsv/internal/domain"
	"stationcsv/internal/etl"

	_ "modernc.org/sqlite"
)

var rows = []etl.Row{
	{Line: 2, Values: []any{"b", 10.5, 20.25, "f", "g", "h"}},
	{Line: 3, Values: []any{"with,comma", -1.0, 0.0, "x", "y", "z"}},
}

func writeRows(t *testing.T, typ string, cfg etl.DestinationConfig, mode etl.WriteMode) {
	t.Helper()
	dest, err := etl.GetDestination(typ)
	if err != nil {
		t.Fatalf("get %s: %v", typ, err)
	}
	w, err := dest.Open(context.Background(), cfg, etl.DefaultMapping.Schema(), mode)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, r := range rows {
		if err := w.Write(context.Background(), r); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

/* csv_file ------------------------------------------------------------ */

func TestCSVDestination_AppendAndReplace(t *testing.T) {
	out := filepath.Join(t.TempDir(), "test.csv")
	cfg := etl.DestinationConfig{"filePath": out}

	writeRows(t, "csv_file", cfg, etl.WriteAppend)
	writeRows(t, "csv_file", cfg, etl.WriteAppend)
	data, _ := os.ReadFile(out)
	want := "b,10.5,20.25,f,g,h\n\"with,comma\",-1,0,x,y,z\n"
	if string(data) != want+want {
		t.Fatalf("append output:\n%s", data)
	}

	writeRows(t, "csv_file", cfg, etl.WriteReplace)
	data, _ = os.ReadFile(out)
	if string(data) != want {
		t.Fatalf("replace output:\n%s", data)
	}
}

func TestCSVDestination_CRLF(t *testing.T) {
	out := filepath.Join(t.TempDir(), "test.csv")
	writeRows(t, "csv_file", etl.DestinationConfig{"filePath": out, "crlf": "true"}, etl.WriteAppend)
	data, _ := os.ReadFile(out)
	if !strings.HasPrefix(string(data), "b,10.5,20.25,f,g,h\r\n") {
		t.Fatalf("expected CRLF line endings, got %q", data)
	}
}

func TestCSVDestination_RowDurableBeforeClose(t *testing.T) {
	out := filepath.Join(t.TempDir(), "test.csv")
	dest, _ := etl.GetDestination("csv_file")
	w, err := dest.Open(context.Background(), etl.DestinationConfig{"filePath": out}, etl.DefaultMapping.Schema(), etl.WriteAppend)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()

	if err := w.Write(context.Background(), rows[0]); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "b,10.5,20.25,f,g,h\n" {
		t.Fatalf("row not on disk after Write: %q", data)
	}
}

func TestCSVDestination_Errors(t *testing.T) {
	dest, _ := etl.GetDestination("csv_file")
	schema := etl.DefaultMapping.Schema()
	if _, err := dest.Open(context.Background(), etl.DestinationConfig{}, schema, etl.WriteAppend); err == nil {
		t.Error("expected error without filePath")
	}
	bad := filepath.Join(t.TempDir(), "missing-dir", "test.csv")
	if _, err := dest.Open(context.Background(), etl.DestinationConfig{"filePath": bad}, schema, etl.WriteAppend); err == nil {
		t.Error("expected error for unwritable path")
	}
}

/* sql_table ----------------------------------------------------------- */

func TestSQLTableDestination_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	cfg := etl.DestinationConfig{"driver": "sqlite", "host": path, "table": "stations"}

	writeRows(t, "sql_table", cfg, etl.WriteAppend)
	writeRows(t, "sql_table", cfg, etl.WriteAppend)
	if n := countRows(t, path); n != 4 {
		t.Fatalf("append: want 4 rows, got %d", n)
	}

	writeRows(t, "sql_table", cfg, etl.WriteReplace)
	if n := countRows(t, path); n != 2 {
		t.Fatalf("replace: want 2 rows, got %d", n)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var (
		line       int
		name       string
		lat, lng   float64
		c7, c8, c9 string
	)
	err = db.QueryRow(`SELECT source_line, id, latitude, longitude, burnable, incombustible, resource FROM stations ORDER BY source_line LIMIT 1`).
		Scan(&line, &name, &lat, &lng, &c7, &c8, &c9)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if line != 2 || name != "b" || lat != 10.5 || lng != 20.25 || c9 != "h" {
		t.Errorf("unexpected row: %d %s %v %v %s %s %s", line, name, lat, lng, c7, c8, c9)
	}
}

func countRows(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM stations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestSQLStatements(t *testing.T) {
	schema := &etl.Schema{Fields: []etl.Field{{Name: "name", Type: etl.FieldText}, {Name: "lat", Type: etl.FieldNumber}}}

	got := createTableSQL(domain.DatabaseDriverPostgres, `"t"`, schema)
	want := `CREATE TABLE IF NOT EXISTS "t" ("source_line" INTEGER NOT NULL, "name" TEXT, "lat" DOUBLE PRECISION)`
	if got != want {
		t.Errorf("create:\n got %s\nwant %s", got, want)
	}

	got = insertSQL(domain.DatabaseDriverPostgres, `"t"`, schema)
	want = `INSERT INTO "t" ("source_line", "name", "lat") VALUES ($1, $2, $3)`
	if got != want {
		t.Errorf("insert:\n got %s\nwant %s", got, want)
	}

	got = insertSQL(domain.DatabaseDriverMySQL, "`t`", schema)
	want = "INSERT INTO `t` (`source_line`, `name`, `lat`) VALUES (?, ?, ?)"
	if got != want {
		t.Errorf("mysql insert:\n got %s\nwant %s", got, want)
	}
}

func TestSQLTableDestination_RequiresTable(t *testing.T) {
	dest, _ := etl.GetDestination("sql_table")
	_, err := dest.Open(context.Background(), etl.DestinationConfig{"driver": "sqlite"}, etl.DefaultMapping.Schema(), etl.WriteAppend)
	if err == nil {
		t.Fatal("expected error without table")
	}
}

/* mongodb ------------------------------------------------------------- */

func TestRowDocument(t *testing.T) {
	doc := rowDocument(etl.DefaultMapping.Schema().FieldNames(), rows[0])
	if len(doc) != 7 {
		t.Fatalf("want 7 elements, got %d", len(doc))
	}
	if doc[0].Key != "source_line" || doc[0].Value != 2 {
		t.Errorf("first element = %+v", doc[0])
	}
	if doc[2].Key != "latitude" || doc[2].Value != 10.5 {
		t.Errorf("latitude element = %+v", doc[2])
	}
}

func TestMongoDestination_RequiresCollection(t *testing.T) {
	dest, _ := etl.GetDestination("mongodb")
	_, err := dest.Open(context.Background(), etl.DestinationConfig{"dsn": "mongodb://localhost:1"}, etl.DefaultMapping.Schema(), etl.WriteAppend)
	if err == nil {
		t.Fatal("expected error without collection")
	}
}

/* config -------------------------------------------------------------- */

func TestTargetFromConfig(t *testing.T) {
	cfg := etl.DestinationConfig{
		"host": "db", "port": float64(5433), "database": "gs",
		"username": "u", "password": "p", "extra": map[string]any{"authSource": "admin"},
	}
	tg := targetFromConfig(cfg, domain.DatabaseDriverPostgres)
	if tg.Port != 5433 || tg.Host != "db" || tg.Password != "p" || tg.Extra["authSource"] != "admin" {
		t.Errorf("unexpected target: %+v", tg)
	}
	if intOpt(etl.DestinationConfig{"port": 27017}, "port") != 27017 {
		t.Error("int port not read")
	}
	if intOpt(etl.DestinationConfig{"port": "3306"}, "port") != 3306 {
		t.Error("string port not read")
	}
}
