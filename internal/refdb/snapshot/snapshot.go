// Package snapshot optionally persists a built ReferenceIndex's raw rows to
// MongoDB so a second process can skip re-parsing the ~55k-row hierarchy
// CSV on cold start. It is never consulted on the per-request hot path —
// only at startup, before the index is handed to the rest of the pipeline —
// matching spec §5's "a request never blocks on I/O" invariant. Grounded on
// the teacher's app/services/admin_service.go seeding idiom, repurposed from
// "the database is the system of record" to "the database is an optional
// warm-start cache".
package snapshot

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mtarikozcan/turkish-address-system/internal/refdb"
)

// Store wraps a single Mongo collection holding raw AdminRecord rows for one
// "gazetteer_version" (the label the operator passes as --gazetteer-version;
// it is not derived from the CSV contents, so a changed reference file needs
// a new version label to avoid reusing an older snapshot).
type Store struct {
	collection *mongo.Collection
}

// row is the persisted document shape.
type row struct {
	Province     string `bson:"province"`
	District     string `bson:"district"`
	Neighborhood string `bson:"neighborhood"`
	Source       string `bson:"source"`
	Version      string `bson:"gazetteer_version"`
}

// Connect opens a Mongo client against uri and returns a Store bound to
// database/collection, plus the client's disconnect function to call when
// done.
func Connect(ctx context.Context, uri, database, collection string) (*Store, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}
	coll := client.Database(database).Collection(collection)
	return &Store{collection: coll}, client.Disconnect, nil
}

// Save persists rows under version, replacing any previous snapshot with the
// same version.
func (s *Store) Save(ctx context.Context, version string, rows []refdb.AdminRecord) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{"gazetteer_version": version}); err != nil {
		return err
	}
	docs := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, row{
			Province:     r.Province,
			District:     r.District,
			Neighborhood: r.Neighborhood,
			Source:       r.Source,
			Version:      version,
		})
	}
	if len(docs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := s.collection.InsertMany(ctx, docs)
	return err
}

// Load retrieves a previously saved snapshot for version, or ok=false if
// none exists (the caller should then fall back to parsing the CSV).
func (s *Store) Load(ctx context.Context, version string) ([]refdb.AdminRecord, bool, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"gazetteer_version": version})
	if err != nil {
		return nil, false, err
	}
	defer cursor.Close(ctx)

	var rows []refdb.AdminRecord
	for cursor.Next(ctx) {
		var r row
		if err := cursor.Decode(&r); err != nil {
			continue
		}
		rows = append(rows, refdb.AdminRecord{
			Province:     r.Province,
			District:     r.District,
			Neighborhood: r.Neighborhood,
			Source:       r.Source,
		})
	}
	return rows, len(rows) > 0, cursor.Err()
}
