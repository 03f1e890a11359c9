package domain

// DatabaseDriver represents the type of database engine a job can write to.
type DatabaseDriver string

const (
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverMongoDB  DatabaseDriver = "mongodb"
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
)

// DatabaseTarget holds what is needed to reach an external database.
// When DSN is set it is used as-is and the discrete fields are ignored.
type DatabaseTarget struct {
	Driver   DatabaseDriver    `json:"driver" yaml:"driver"`
	DSN      string            `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Host     string            `json:"host,omitempty" yaml:"host,omitempty"` // hostname or file path (sqlite)
	Port     int               `json:"port,omitempty" yaml:"port,omitempty"`
	Database string            `json:"database,omitempty" yaml:"database,omitempty"`
	Username string            `json:"username,omitempty" yaml:"username,omitempty"`
	Password string            `json:"-" yaml:"password,omitempty"`
	SSLMode  string            `json:"sslMode,omitempty" yaml:"sslMode,omitempty"`
	Extra    map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"` // driver-specific options
}

// Redacted returns a copy safe to log.
func (t DatabaseTarget) Redacted() DatabaseTarget {
	if t.Password != "" {
		t.Password = "***"
	}
	return t
}
