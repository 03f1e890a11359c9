package destinations

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"stationcsv/internal/dbclient"
	"stationcsv/internal/domain"
	"stationcsv/internal/etl"
)

// ── MongoDB Destination ─────────────────────────────────────
// Inserts one document per row into a collection.

type mongoDestination struct{}

func init() { etl.RegisterDestination(&mongoDestination{}) }

func (d *mongoDestination) Spec() etl.DestinationSpec {
	return etl.DestinationSpec{
		Type:  "mongodb",
		Label: "MongoDB Collection",
		ConfigFields: []etl.ConfigField{
			{Key: "dsn", Label: "URI", Help: "mongodb:// or mongodb+srv:// connection string"},
			{Key: "host", Label: "Host"},
			{Key: "port", Label: "Port"},
			{Key: "database", Label: "Database"},
			{Key: "username", Label: "Username"},
			{Key: "password", Label: "Password"},
			{Key: "collection", Label: "Collection", Required: true},
		},
	}
}

func (d *mongoDestination) Open(ctx context.Context, cfg etl.DestinationConfig, schema *etl.Schema, mode etl.WriteMode) (etl.RowWriter, error) {
	collection := stringOpt(cfg, "collection")
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}

	client, dbName, err := dbclient.OpenMongo(ctx, targetFromConfig(cfg, domain.DatabaseDriverMongoDB))
	if err != nil {
		return nil, err
	}
	coll := client.Database(dbName).Collection(collection)

	if mode == etl.WriteReplace {
		if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
			client.Disconnect(context.Background())
			return nil, fmt.Errorf("clear collection %s: %w", collection, err)
		}
	}
	return &mongoRowWriter{client: client, coll: coll, names: schema.FieldNames()}, nil
}

type mongoRowWriter struct {
	client *mongo.Client
	coll   *mongo.Collection
	names  []string
}

func (w *mongoRowWriter) Write(ctx context.Context, row etl.Row) error {
	_, err := w.coll.InsertOne(ctx, rowDocument(w.names, row))
	return err
}

func (w *mongoRowWriter) Close() error {
	return w.client.Disconnect(context.Background())
}

// rowDocument keeps column order by building an ordered bson.D.
func rowDocument(names []string, row etl.Row) bson.D {
	doc := make(bson.D, 0, len(names)+1)
	doc = append(doc, bson.E{Key: "source_line", Value: row.Line})
	for i, name := range names {
		if i < len(row.Values) {
			doc = append(doc, bson.E{Key: name, Value: row.Values[i]})
		}
	}
	return doc
}
