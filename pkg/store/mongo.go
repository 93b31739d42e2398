package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PainterQubits/paramdb/pkg/errors"
)

// MongoBackend stores commit rows in a MongoDB collection, one document per
// commit with _id = commit id. The next id is derived from the maximum _id
// at append time, so the backend assumes a single writer.
type MongoBackend struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	URI        string // default "mongodb://localhost:27017"
	Database   string // default "paramdb"
	Collection string // default "commits"
}

type mongoRow struct {
	ID        int64     `bson:"_id"`
	Message   string    `bson:"message"`
	Timestamp time.Time `bson:"timestamp"`
	Data      []byte    `bson:"data,omitempty"`
}

// NewMongoBackend connects to MongoDB and verifies the connection.
func NewMongoBackend(ctx context.Context, cfg MongoConfig) (*MongoBackend, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "paramdb"
	}
	if cfg.Collection == "" {
		cfg.Collection = "commits"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageIO, err, "connect to mongodb at %s", cfg.URI)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorageIO, err, "ping mongodb at %s", cfg.URI)
	}
	return &MongoBackend{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Append implements [Backend].
func (b *MongoBackend) Append(ctx context.Context, message string, ts time.Time, data []byte) (Row, error) {
	var last mongoRow
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}).SetProjection(bson.D{{Key: "_id", Value: 1}})
	err := b.coll.FindOne(ctx, bson.D{}, opts).Decode(&last)
	if err != nil && err != mongo.ErrNoDocuments {
		return Row{}, errors.Wrap(errors.ErrCodeStorageIO, err, "find latest commit id")
	}
	id := last.ID + 1
	ts = ts.UTC()
	_, err = b.coll.InsertOne(ctx, mongoRow{ID: id, Message: message, Timestamp: ts, Data: data})
	if err != nil {
		return Row{}, errors.Wrap(errors.ErrCodeStorageIO, err, "insert commit %d", id)
	}
	return Row{ID: id, Message: message, Timestamp: ts}, nil
}

// Get implements [Backend].
func (b *MongoBackend) Get(ctx context.Context, id int64, withData bool) (Row, error) {
	opts := options.FindOne()
	if !withData {
		opts.SetProjection(bson.D{{Key: "data", Value: 0}})
	}
	var row mongoRow
	err := b.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}, opts).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return Row{}, errors.New(errors.ErrCodeCommitNotFound, "commit %d does not exist", id)
	}
	if err != nil {
		return Row{}, errors.Wrap(errors.ErrCodeStorageIO, err, "read commit %d", id)
	}
	return Row{ID: row.ID, Message: row.Message, Timestamp: row.Timestamp.UTC(), Data: row.Data}, nil
}

// Latest implements [Backend].
func (b *MongoBackend) Latest(ctx context.Context, withData bool) (Row, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})
	if !withData {
		opts.SetProjection(bson.D{{Key: "data", Value: 0}})
	}
	var row mongoRow
	err := b.coll.FindOne(ctx, bson.D{}, opts).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return Row{}, errors.New(errors.ErrCodeCommitNotFound, "store has no commits")
	}
	if err != nil {
		return Row{}, errors.Wrap(errors.ErrCodeStorageIO, err, "read latest commit")
	}
	return Row{ID: row.ID, Message: row.Message, Timestamp: row.Timestamp.UTC(), Data: row.Data}, nil
}

// Count implements [Backend].
func (b *MongoBackend) Count(ctx context.Context) (int64, error) {
	n, err := b.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorageIO, err, "count commits")
	}
	return n, nil
}

// Range implements [Backend].
func (b *MongoBackend) Range(ctx context.Context, offset, limit int64, withData bool) ([]Row, error) {
	if limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit)
	if !withData {
		opts.SetProjection(bson.D{{Key: "data", Value: 0}})
	}
	cur, err := b.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageIO, err, "query commits")
	}
	defer cur.Close(ctx)

	var rows []Row
	for cur.Next(ctx) {
		var row mongoRow
		if err := cur.Decode(&row); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorageIO, err, "decode commit row")
		}
		rows = append(rows, Row{ID: row.ID, Message: row.Message, Timestamp: row.Timestamp.UTC(), Data: row.Data})
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageIO, err, "iterate commits")
	}
	return rows, nil
}

// Close implements [Backend].
func (b *MongoBackend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.client.Disconnect(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeStorageIO, err, "disconnect from mongodb")
	}
	return nil
}

var _ Backend = (*MongoBackend)(nil)
