package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sweetpotato0/docqa/config"
	docerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/memory"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoDialTimeout = 10 * time.Second

// MongoStore keeps one document per turn, keyed by turn ID. Snapshots are
// decoded straight into memory.Memory through its bson tags.
type MongoStore struct {
	client *mongo.Client
	turns  *mongo.Collection
}

var _ memory.MemoryStore = (*MongoStore)(nil)

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

var bySeq = bson.D{{Key: "seq", Value: 1}, {Key: "created_at", Value: 1}}

// NewMongoStore connects within mongoDialTimeout and ensures the seq index.
func NewMongoStore(ctx context.Context, cfg *MongoConfig) (*MongoStore, error) {
	if cfg == nil {
		cfg = MongoConfigFromEnv()
	}
	if err := config.ValidateMongoDBConfig(cfg.URI, cfg.Database, cfg.Collection); err != nil {
		return nil, fmt.Errorf("%w: %w", docerrors.ErrInvalidInput, err)
	}

	ctx, cancel := context.WithTimeout(ctx, mongoDialTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect turn database: %w", err)
	}
	s := &MongoStore{client: client, turns: client.Database(cfg.Database).Collection(cfg.Collection)}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping turn database: %w", err)
	}
	if _, err := s.turns.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bySeq}); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("index turns by seq: %w", err)
	}
	return s, nil
}

func (s *MongoStore) AddMemory(ctx context.Context, mem *memory.Memory) error {
	if err := checkSnapshot(mem); err != nil {
		return err
	}
	if mem.CreatedAt.IsZero() {
		mem.CreatedAt = time.Now()
	}
	_, err := s.turns.ReplaceOne(ctx, bson.M{"_id": mem.ID}, mem, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store turn %s: %w", mem.ID, err)
	}
	return nil
}

// SearchMemory quotes query before building the case-insensitive regex, so
// it matches literally.
func (s *MongoStore) SearchMemory(ctx context.Context, query string) ([]*memory.Memory, error) {
	filter := bson.M{}
	if q := strings.TrimSpace(query); q != "" {
		re := bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
		filter["$or"] = bson.A{bson.M{"question": re}, bson.M{"answer": re}}
	}
	cur, err := s.turns.Find(ctx, filter, options.Find().SetSort(bySeq))
	if err != nil {
		return nil, fmt.Errorf("search turns: %w", err)
	}
	out := make([]*memory.Memory, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode turns: %w", err)
	}
	return out, nil
}

func (s *MongoStore) GetMemoryByID(ctx context.Context, id string) (*memory.Memory, error) {
	var mem memory.Memory
	err := s.turns.FindOne(ctx, bson.M{"_id": id}).Decode(&mem)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, fmt.Errorf("turn %s: %w", id, docerrors.ErrNotFound)
	case err != nil:
		return nil, err
	}
	return &mem, nil
}

func (s *MongoStore) Clear(ctx context.Context) error {
	_, err := s.turns.DeleteMany(ctx, bson.M{})
	return err
}

func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.turns.CountDocuments(ctx, bson.M{})
	return int(n), err
}

func (s *MongoStore) Ping(ctx context.Context) error { return s.client.Ping(ctx, nil) }

// Close disconnects; ctx bounds the wait for in-flight operations.
func (s *MongoStore) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }
