package dbclient

import (
	"stationcsv/internal/domain"

	_ "modernc.org/sqlite"
)

// buildSQLiteDSN opens the file in WAL mode with a busy timeout.
func buildSQLiteDSN(t *domain.DatabaseTarget) string {
	if t.DSN != "" {
		return t.DSN
	}
	return t.Host + "?_journal_mode=WAL&_busy_timeout=5000"
}
