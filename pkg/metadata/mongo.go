package metadata

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/spatialgen/pkg/errors"
)

// MongoSink upserts records into a MongoDB collection, one document per
// image keyed by the record path.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoSink connects to uri and verifies the connection.
func NewMongoSink(ctx context.Context, uri, database, collection string) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "ping mongodb")
	}
	return &MongoSink{client: client, coll: client.Database(database).Collection(collection)}, nil
}

// Write implements Sink.
func (s *MongoSink) Write(ctx context.Context, path string, rec Record) error {
	doc, err := document(path, rec)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", path)
	}
	_, err = s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: path}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "upsert %s", path)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// document converts rec to BSON through its JSON encoding so that both
// stores agree on field names, order and precision.
func document(path string, rec Record) (bson.D, error) {
	data, err := Encode(rec)
	if err != nil {
		return nil, err
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, err
	}
	return append(bson.D{{Key: "_id", Value: path}}, doc...), nil
}

var _ Sink = (*MongoSink)(nil)
