package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB field names holding the server-assigned timestamps
const (
	mongoCreatedAt = "created_at"
	mongoUpdatedAt = "updated_at"
)

// MongoDatabase implements backend.Database for MongoDB, one collection per backend collection
type MongoDatabase struct {
	db *mongo.Database
}

// NewMongoDatabase creates a new MongoDatabase
func NewMongoDatabase(db *mongo.Database) *MongoDatabase {
	return &MongoDatabase{db: db}
}

// CreateDocument inserts a new document in MongoDB
func (d *MongoDatabase) CreateDocument(ctx context.Context, collectionID, documentID string, fields map[string]any) (*backend.Document, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)

	doc := bson.M{}
	for k, v := range fields {
		doc[k] = v
	}
	doc["_id"] = documentID
	doc[mongoCreatedAt] = now
	doc[mongoUpdatedAt] = now

	if _, err := d.db.Collection(collectionID).InsertOne(ctx, doc); err != nil {
		return nil, wrap(fmt.Sprintf("insert %s/%s", collectionID, documentID), err)
	}

	return &backend.Document{
		ID:           documentID,
		CollectionID: collectionID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Fields:       copyFields(fields),
	}, nil
}

// UpdateDocument sets fields on an existing document and returns the result
func (d *MongoDatabase) UpdateDocument(ctx context.Context, collectionID, documentID string, fields map[string]any) (*backend.Document, error) {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	set[mongoUpdatedAt] = time.Now().UTC().Truncate(time.Millisecond)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var raw bson.M
	err := d.db.Collection(collectionID).
		FindOneAndUpdate(ctx, bson.M{"_id": documentID}, bson.M{"$set": set}, opts).
		Decode(&raw)
	if err != nil {
		return nil, wrap(fmt.Sprintf("update %s/%s", collectionID, documentID), err)
	}
	return documentFromBSON(collectionID, raw), nil
}

// GetDocument retrieves a document by ID from MongoDB
func (d *MongoDatabase) GetDocument(ctx context.Context, collectionID, documentID string) (*backend.Document, error) {
	var raw bson.M
	err := d.db.Collection(collectionID).FindOne(ctx, bson.M{"_id": documentID}).Decode(&raw)
	if err != nil {
		return nil, wrap(fmt.Sprintf("find %s/%s", collectionID, documentID), err)
	}
	return documentFromBSON(collectionID, raw), nil
}

// DeleteDocument deletes a document by ID from MongoDB
func (d *MongoDatabase) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	res, err := d.db.Collection(collectionID).DeleteOne(ctx, bson.M{"_id": documentID})
	if err != nil {
		return wrap(fmt.Sprintf("delete %s/%s", collectionID, documentID), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete %s/%s: %w", collectionID, documentID, backend.ErrNotFound)
	}
	return nil
}

// ListDocuments retrieves documents matching the queries
func (d *MongoDatabase) ListDocuments(ctx context.Context, collectionID string, queries ...backend.Query) ([]backend.Document, error) {
	filter := bson.M{}
	findOptions := options.Find()
	var sort bson.D
	for _, q := range queries {
		switch q.Method {
		case backend.QueryEqual:
			filter[q.Field] = q.Value
		case backend.QueryOrderDesc:
			sort = append(sort, bson.E{Key: mongoField(q.Field), Value: -1})
		case backend.QueryLimit:
			findOptions.SetLimit(int64(q.Limit))
		default:
			return nil, fmt.Errorf("list %s: query %s: %w", collectionID, q, backend.ErrRejected)
		}
	}
	if len(sort) > 0 {
		findOptions.SetSort(sort)
	}

	cursor, err := d.db.Collection(collectionID).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, wrap(fmt.Sprintf("list %s", collectionID), err)
	}
	defer cursor.Close(ctx)

	var raws []bson.M
	if err = cursor.All(ctx, &raws); err != nil {
		return nil, wrap(fmt.Sprintf("list %s", collectionID), err)
	}

	docs := make([]backend.Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, *documentFromBSON(collectionID, raw))
	}
	return docs, nil
}

// EnsureIndexes creates the indexes the façade's queries rely on
func (d *MongoDatabase) EnsureIndexes(ctx context.Context, usersCollectionID, postsCollectionID string) error {
	_, err := d.db.Collection(usersCollectionID).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "accountId", Value: 1}},
	})
	if err != nil {
		return wrap("index users.accountId", err)
	}
	_, err = d.db.Collection(postsCollectionID).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: mongoCreatedAt, Value: -1}},
	})
	if err != nil {
		return wrap("index posts.created_at", err)
	}
	return nil
}

func mongoField(field string) string {
	if field == backend.FieldCreatedAt {
		return mongoCreatedAt
	}
	return field
}

func documentFromBSON(collectionID string, raw bson.M) *backend.Document {
	doc := &backend.Document{
		CollectionID: collectionID,
		CreatedAt:    bsonTime(raw[mongoCreatedAt]),
		UpdatedAt:    bsonTime(raw[mongoUpdatedAt]),
		Fields:       make(map[string]any, len(raw)),
	}
	switch id := raw["_id"].(type) {
	case string:
		doc.ID = id
	case primitive.ObjectID:
		doc.ID = id.Hex()
	default:
		doc.ID = fmt.Sprint(id)
	}

	for k, v := range raw {
		switch k {
		case "_id", mongoCreatedAt, mongoUpdatedAt:
			continue
		}
		if arr, ok := v.(primitive.A); ok {
			v = []any(arr)
		}
		doc.Fields[k] = v
	}
	return doc
}

func bsonTime(v any) time.Time {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t
	}
	return time.Time{}
}
