package repositories

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/snapgram/backend/internal/backend"
)

// Firestore field names holding the server-assigned timestamps
const (
	firestoreCreatedAt = "createdAt"
	firestoreUpdatedAt = "updatedAt"
)

// FirestoreDatabase implements backend.Database on Cloud Firestore
type FirestoreDatabase struct {
	client *firestore.Client
}

// NewFirestoreDatabase creates a FirestoreDatabase
func NewFirestoreDatabase(client *firestore.Client) *FirestoreDatabase {
	return &FirestoreDatabase{client: client}
}

// CreateDocument creates a document, failing if it already exists
func (d *FirestoreDatabase) CreateDocument(ctx context.Context, collectionID, documentID string, fields map[string]any) (*backend.Document, error) {
	data := copyFields(fields)
	data[firestoreCreatedAt] = firestore.ServerTimestamp
	data[firestoreUpdatedAt] = firestore.ServerTimestamp

	wr, err := d.client.Collection(collectionID).Doc(documentID).Create(ctx, data)
	if err != nil {
		return nil, wrap(fmt.Sprintf("create document %s/%s", collectionID, documentID), err)
	}

	return &backend.Document{
		ID:           documentID,
		CollectionID: collectionID,
		CreatedAt:    wr.UpdateTime,
		UpdatedAt:    wr.UpdateTime,
		Fields:       copyFields(fields),
	}, nil
}

// UpdateDocument sets the given top-level fields of an existing document
func (d *FirestoreDatabase) UpdateDocument(ctx context.Context, collectionID, documentID string, fields map[string]any) (*backend.Document, error) {
	updates := make([]firestore.Update, 0, len(fields)+1)
	for k, v := range fields {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	updates = append(updates, firestore.Update{Path: firestoreUpdatedAt, Value: firestore.ServerTimestamp})

	ref := d.client.Collection(collectionID).Doc(documentID)
	if _, err := ref.Update(ctx, updates); err != nil {
		return nil, wrap(fmt.Sprintf("update document %s/%s", collectionID, documentID), err)
	}
	return d.GetDocument(ctx, collectionID, documentID)
}

// GetDocument reads one document
func (d *FirestoreDatabase) GetDocument(ctx context.Context, collectionID, documentID string) (*backend.Document, error) {
	snap, err := d.client.Collection(collectionID).Doc(documentID).Get(ctx)
	if err != nil {
		return nil, wrap(fmt.Sprintf("get document %s/%s", collectionID, documentID), err)
	}
	return documentFromSnapshot(collectionID, snap), nil
}

// DeleteDocument deletes one document; a missing document is reported as not found
func (d *FirestoreDatabase) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	_, err := d.client.Collection(collectionID).Doc(documentID).Delete(ctx, firestore.Exists)
	if err != nil {
		return wrap(fmt.Sprintf("delete document %s/%s", collectionID, documentID), err)
	}
	return nil
}

// ListDocuments runs the queries as a single Firestore query
func (d *FirestoreDatabase) ListDocuments(ctx context.Context, collectionID string, queries ...backend.Query) ([]backend.Document, error) {
	q := d.client.Collection(collectionID).Query
	for _, query := range queries {
		switch query.Method {
		case backend.QueryEqual:
			q = q.Where(query.Field, "==", query.Value)
		case backend.QueryOrderDesc:
			q = q.OrderBy(firestoreField(query.Field), firestore.Desc)
		case backend.QueryLimit:
			q = q.Limit(query.Limit)
		default:
			return nil, fmt.Errorf("list documents %s: query %s: %w", collectionID, query, backend.ErrRejected)
		}
	}

	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, wrap(fmt.Sprintf("list documents %s", collectionID), err)
	}

	docs := make([]backend.Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, *documentFromSnapshot(collectionID, snap))
	}
	return docs, nil
}

func firestoreField(field string) string {
	if field == backend.FieldCreatedAt {
		return firestoreCreatedAt
	}
	return field
}

func documentFromSnapshot(collectionID string, snap *firestore.DocumentSnapshot) *backend.Document {
	data := snap.Data()
	doc := &backend.Document{
		ID:           snap.Ref.ID,
		CollectionID: collectionID,
		CreatedAt:    snap.CreateTime,
		UpdatedAt:    snap.UpdateTime,
	}
	if t, ok := data[firestoreCreatedAt].(time.Time); ok {
		doc.CreatedAt = t
	}
	if t, ok := data[firestoreUpdatedAt].(time.Time); ok {
		doc.UpdatedAt = t
	}
	delete(data, firestoreCreatedAt)
	delete(data, firestoreUpdatedAt)
	doc.Fields = data
	return doc
}
