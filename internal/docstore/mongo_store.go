package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	connectTimeout   = 10 * time.Second
	operationTimeout = 5 * time.Second
)

// MongoStore is an implementation of Store backed by a MongoDB collection.
type MongoStore struct {
	uri        string
	database   string
	collection string

	client    *mongo.Client
	documents *mongo.Collection
}

// NewMongoStore creates a MongoStore for the given connection string,
// database and collection.
func NewMongoStore(uri, database, collection string) *MongoStore {
	return &MongoStore{uri: uri, database: database, collection: collection}
}

// Initialize connects to MongoDB and creates the collection indexes.
func (m *MongoStore) Initialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.uri))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return fmt.Errorf("can't ping MongoDB: %w", err)
	}

	m.client = client
	m.documents = client.Database(m.database).Collection(m.collection)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "uploadDate", Value: -1}}},
		{Keys: bson.D{{Key: "originalName", Value: 1}}},
	}
	if _, err := m.documents.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("can't create indexes: %w", err)
	}

	return nil
}

// Close disconnects from MongoDB.
func (m *MongoStore) Close() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// Create inserts a new document.
func (m *MongoStore) Create(ctx context.Context, doc *Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	if _, err := m.documents.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert document %s: %w", doc.ID, err)
	}
	return nil
}

// Get returns the document with the given id.
func (m *MongoStore) Get(ctx context.Context, id string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	var doc Document
	err := m.documents.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	return &doc, nil
}

// List returns all documents, newest upload first.
func (m *MongoStore) List(ctx context.Context) ([]*Document, error) {
	return m.find(ctx, bson.M{})
}

// SearchByName returns documents whose original name contains name,
// ignoring case.
func (m *MongoStore) SearchByName(ctx context.Context, name string) ([]*Document, error) {
	filter := bson.M{
		"originalName": bson.M{"$regex": regexp.QuoteMeta(name), "$options": "i"},
	}
	return m.find(ctx, filter)
}

func (m *MongoStore) find(ctx context.Context, filter bson.M) ([]*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "uploadDate", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := m.documents.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer cursor.Close(ctx)

	docs := []*Document{}
	for cursor.Next(ctx) {
		var doc Document
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		docs = append(docs, &doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Update applies changes to a document.
func (m *MongoStore) Update(ctx context.Context, id string, changes Changes) (*Document, error) {
	set := bson.M{}
	if changes.OriginalName != nil {
		set["originalName"] = *changes.OriginalName
	}
	if changes.Filename != nil {
		set["filename"] = *changes.Filename
	}
	if len(set) == 0 {
		return m.Get(ctx, id)
	}
	return m.findAndUpdate(ctx, id, bson.M{"$set": set})
}

// SetExtractedText stores the text of a document.
func (m *MongoStore) SetExtractedText(ctx context.Context, id string, text string, pages []string) (*Document, error) {
	if pages == nil {
		pages = []string{}
	}
	return m.findAndUpdate(ctx, id, bson.M{"$set": bson.M{"extractedText": text, "pages": pages}})
}

func (m *MongoStore) findAndUpdate(ctx context.Context, id string, update bson.M) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc Document
	err := m.documents.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update document %s: %w", id, err)
	}
	return &doc, nil
}

// Delete removes a document.
func (m *MongoStore) Delete(ctx context.Context, id string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	var doc Document
	err := m.documents.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return &doc, nil
}
