package topology

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flowboardhq/flowboard/pkg/errors"
)

// DiagramStore persists serialized diagrams. The in-memory Store holds
// live editing state; a DiagramStore holds saved documents.
type DiagramStore interface {
	Save(ctx context.Context, d Diagram) (string, error)
	Get(ctx context.Context, id string) (Diagram, error)
	List(ctx context.Context) ([]Diagram, error)
	Delete(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

// MongoStore is a MongoDB-backed DiagramStore for server deployments.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoConfig configures the MongoDB connection.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// NewMongoStore connects to MongoDB and returns a diagram store.
// Defaults: database "flowboard", collection "diagrams", 10s timeout.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "flowboard"
	}
	if cfg.Collection == "" {
		cfg.Collection = "diagrams"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongodb")
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Save upserts a diagram by ID, assigning a fresh ID if empty.
// Returns the diagram ID.
func (m *MongoStore) Save(ctx context.Context, d Diagram) (string, error) {
	if d.ID == "" {
		d.ID = NewID()
	}
	_, err := m.coll.ReplaceOne(ctx,
		bson.M{"_id": d.ID}, d,
		options.Replace().SetUpsert(true))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "save diagram %s", d.ID)
	}
	return d.ID, nil
}

// Get loads a diagram by ID.
func (m *MongoStore) Get(ctx context.Context, id string) (Diagram, error) {
	var d Diagram
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return Diagram{}, errors.New(errors.ErrCodeDiagramNotFound, "diagram %q not found", id)
	}
	if err != nil {
		return Diagram{}, errors.Wrap(errors.ErrCodeStorage, err, "load diagram %s", id)
	}
	return d, nil
}

// List returns all stored diagrams.
func (m *MongoStore) List(ctx context.Context) ([]Diagram, error) {
	cur, err := m.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list diagrams")
	}
	defer cur.Close(ctx)

	var out []Diagram
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode diagrams")
	}
	return out, nil
}

// Delete removes a diagram by ID. Deleting a missing diagram is not an
// error.
func (m *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete diagram %s", id)
	}
	return nil
}

// Close disconnects from MongoDB.
func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// MemDiagramStore is an in-memory DiagramStore for tests and standalone
// runs without a database.
type MemDiagramStore struct {
	mu       sync.Mutex
	diagrams map[string]Diagram
}

// NewMemDiagramStore creates an empty in-memory diagram store.
func NewMemDiagramStore() *MemDiagramStore {
	return &MemDiagramStore{diagrams: make(map[string]Diagram)}
}

// Save stores a diagram, assigning a fresh ID if empty.
func (m *MemDiagramStore) Save(_ context.Context, d Diagram) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = NewID()
	}
	m.diagrams[d.ID] = d
	return d.ID, nil
}

// Get loads a diagram by ID.
func (m *MemDiagramStore) Get(_ context.Context, id string) (Diagram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.diagrams[id]
	if !ok {
		return Diagram{}, errors.New(errors.ErrCodeDiagramNotFound, "diagram %q not found", id)
	}
	return d, nil
}

// List returns all stored diagrams.
func (m *MemDiagramStore) List(_ context.Context) ([]Diagram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Diagram, 0, len(m.diagrams))
	for _, d := range m.diagrams {
		out = append(out, d)
	}
	return out, nil
}

// Delete removes a diagram by ID.
func (m *MemDiagramStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.diagrams, id)
	return nil
}

// Close does nothing.
func (m *MemDiagramStore) Close(context.Context) error { return nil }

// Ensure both stores implement DiagramStore.
var (
	_ DiagramStore = (*MongoStore)(nil)
	_ DiagramStore = (*MemDiagramStore)(nil)
)
