package dbclient

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"stationcsv/internal/domain"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// OpenMongo connects to a MongoDB target and returns the client together
// with the database name to use.
func OpenMongo(ctx context.Context, t *domain.DatabaseTarget) (*mongo.Client, string, error) {
	uri := buildMongoURI(t)

	dbName := t.Database
	if dbName == "" {
		dbName = databaseFromURI(uri)
	}

	logURI := uri
	if t.Password != "" {
		logURI = strings.ReplaceAll(logURI, t.Password, "***")
	}
	log.Printf("[MONGO] Connecting with URI: %s (database %s)", logURI, dbName)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, "", fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, "", fmt.Errorf("ping mongo: %w", err)
	}
	return client, dbName, nil
}

// buildMongoURI uses DSN (or a full mongodb:// host) directly, otherwise
// assembles the URI from host, port and credentials.
func buildMongoURI(t *domain.DatabaseTarget) string {
	if t.DSN != "" {
		return t.DSN
	}
	if strings.HasPrefix(t.Host, "mongodb+srv://") || strings.HasPrefix(t.Host, "mongodb://") {
		uri := t.Host
		if t.Password != "" {
			uri = strings.ReplaceAll(uri, "<password>", t.Password)
			uri = strings.ReplaceAll(uri, "<db_password>", t.Password)
		}
		return uri
	}

	port := t.Port
	if port == 0 {
		port = 27017
	}
	var uri string
	if t.Username != "" {
		uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", t.Username, t.Password, t.Host, port)
	} else {
		uri = fmt.Sprintf("mongodb://%s:%d", t.Host, port)
	}

	if len(t.Extra) > 0 {
		keys := make([]string, 0, len(t.Extra))
		for k := range t.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		params := make([]string, 0, len(keys))
		for _, k := range keys {
			params = append(params, k+"="+t.Extra[k])
		}
		uri += "/?" + strings.Join(params, "&")
	}
	return uri
}

// databaseFromURI extracts the path database name (mongodb://host/NAME?opts),
// falling back to "test" like the mongo shell.
func databaseFromURI(uri string) string {
	rest := uri
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		if strings.HasPrefix(rest, prefix) {
			rest = rest[len(prefix):]
			break
		}
	}
	if at := strings.LastIndex(rest, "@"); at != -1 {
		rest = rest[at+1:]
	}
	if slash := strings.Index(rest, "/"); slash != -1 {
		path := rest[slash+1:]
		if q := strings.Index(path, "?"); q != -1 {
			path = path[:q]
		}
		if path != "" {
			return path
		}
	}
	return "test"
}
