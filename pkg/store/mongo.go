package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
)

// Default MongoDB locations.
const (
	DefaultMongoDatabase   = "graphbuilder"
	DefaultMongoCollection = "graphs"
)

// mongoGraph is the stored form of one graph. The name is the primary key.
type mongoGraph struct {
	Name      string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore stores each graph as one document in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// NewMongoStore connects to uri and uses database.collection.
// Empty database or collection names fall back to the defaults.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := ping(ctx, func(ctx context.Context) error { return client.Ping(ctx, nil) }); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	s := NewMongoStoreFromClient(client, database, collection)
	s.owned = true
	return s, nil
}

// NewMongoStoreFromClient creates a store on an existing client. Close does
// not disconnect a client it did not create.
func NewMongoStoreFromClient(client *mongo.Client, database, collection string) *MongoStore {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

func (s *MongoStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := apperr.ValidateGraphName(name); err != nil {
		return nil, err
	}
	var doc mongoGraph
	err := s.coll.FindOne(ctx, byName(name)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("get %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("find graph: %w", err)
	}
	return doc.Data, nil
}

func (s *MongoStore) Put(ctx context.Context, name string, data []byte) error {
	if err := apperr.ValidateGraphName(name); err != nil {
		return err
	}
	doc := mongoGraph{Name: name, Data: data, UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, byName(name), doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert graph: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if err := apperr.ValidateGraphName(name); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, byName(name))
	if err != nil {
		return fmt.Errorf("delete graph: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete %q: %w", name, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]Info, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "updated_at": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	var docs []mongoGraph
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode graph list: %w", err)
	}

	out := make([]Info, 0, len(docs))
	for _, d := range docs {
		out = append(out, Info{Name: d.Name, UpdatedAt: d.UpdatedAt})
	}
	sortInfos(out)
	return out, nil
}

// Close disconnects the client if the store created it.
func (s *MongoStore) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func byName(name string) bson.D {
	return bson.D{{Key: "_id", Value: name}}
}

var _ Store = (*MongoStore)(nil)
