package destinations

import (
	"fmt"
	"strconv"

	"stationcsv/internal/domain"
	"stationcsv/internal/etl"
)

// stringOpt reads a string option, accepting numbers written without quotes.
func stringOpt(cfg etl.DestinationConfig, key string) string {
	switch v := cfg[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// intOpt reads an integer option from JSON (float64), YAML (int) or text.
func intOpt(cfg etl.DestinationConfig, key string) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// targetFromConfig builds a database target from destination options.
func targetFromConfig(cfg etl.DestinationConfig, driver domain.DatabaseDriver) *domain.DatabaseTarget {
	t := &domain.DatabaseTarget{
		Driver:   driver,
		DSN:      stringOpt(cfg, "dsn"),
		Host:     stringOpt(cfg, "host"),
		Port:     intOpt(cfg, "port"),
		Database: stringOpt(cfg, "database"),
		Username: stringOpt(cfg, "username"),
		Password: stringOpt(cfg, "password"),
		SSLMode:  stringOpt(cfg, "sslMode"),
	}
	if extra, ok := cfg["extra"].(map[string]any); ok {
		t.Extra = make(map[string]string, len(extra))
		for k, v := range extra {
			t.Extra[k] = fmt.Sprint(v)
		}
	}
	return t
}
