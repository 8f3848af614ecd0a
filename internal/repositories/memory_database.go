package repositories

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/snapgram/backend/internal/backend"
)

// MemoryDatabase implements backend.Database in process memory. It backs the
// "memory" driver used for local development.
type MemoryDatabase struct {
	mu          sync.RWMutex
	collections map[string]map[string]backend.Document
	now         func() time.Time
}

// NewMemoryDatabase creates an empty MemoryDatabase
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		collections: make(map[string]map[string]backend.Document),
		now:         time.Now,
	}
}

// CreateDocument stores a new document, failing if the ID is taken
func (d *MemoryDatabase) CreateDocument(_ context.Context, collectionID, documentID string, fields map[string]any) (*backend.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	coll, ok := d.collections[collectionID]
	if !ok {
		coll = make(map[string]backend.Document)
		d.collections[collectionID] = coll
	}
	if _, exists := coll[documentID]; exists {
		return nil, fmt.Errorf("document %s/%s: %w", collectionID, documentID, backend.ErrConflict)
	}

	// strictly increasing timestamps keep ordering stable within one clock tick
	now := d.now()
	for _, doc := range coll {
		if !now.After(doc.CreatedAt) {
			now = doc.CreatedAt.Add(time.Nanosecond)
		}
	}

	doc := backend.Document{
		ID:           documentID,
		CollectionID: collectionID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Fields:       copyFields(fields),
	}
	coll[documentID] = doc
	return cloneDocument(doc), nil
}

// UpdateDocument merges fields into an existing document
func (d *MemoryDatabase) UpdateDocument(_ context.Context, collectionID, documentID string, fields map[string]any) (*backend.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.collections[collectionID][documentID]
	if !ok {
		return nil, fmt.Errorf("document %s/%s: %w", collectionID, documentID, backend.ErrNotFound)
	}
	merged := copyFields(doc.Fields)
	for k, v := range fields {
		merged[k] = v
	}
	doc.Fields = merged
	doc.UpdatedAt = d.now()
	d.collections[collectionID][documentID] = doc
	return cloneDocument(doc), nil
}

// GetDocument returns one document
func (d *MemoryDatabase) GetDocument(_ context.Context, collectionID, documentID string) (*backend.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	doc, ok := d.collections[collectionID][documentID]
	if !ok {
		return nil, fmt.Errorf("document %s/%s: %w", collectionID, documentID, backend.ErrNotFound)
	}
	return cloneDocument(doc), nil
}

// DeleteDocument removes one document
func (d *MemoryDatabase) DeleteDocument(_ context.Context, collectionID, documentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.collections[collectionID][documentID]; !ok {
		return fmt.Errorf("document %s/%s: %w", collectionID, documentID, backend.ErrNotFound)
	}
	delete(d.collections[collectionID], documentID)
	return nil
}

// ListDocuments applies equality filters, then ordering, then the limit
func (d *MemoryDatabase) ListDocuments(_ context.Context, collectionID string, queries ...backend.Query) ([]backend.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var (
		filters []backend.Query
		order   string
		limit   int
	)
	for _, q := range queries {
		switch q.Method {
		case backend.QueryEqual:
			filters = append(filters, q)
		case backend.QueryOrderDesc:
			order = q.Field
		case backend.QueryLimit:
			limit = q.Limit
		default:
			return nil, fmt.Errorf("query %s: %w", q, backend.ErrRejected)
		}
	}

	docs := make([]backend.Document, 0)
	for _, doc := range d.collections[collectionID] {
		if matches(doc, filters) {
			docs = append(docs, *cloneDocument(doc))
		}
	}

	switch order {
	case "":
		sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.Before(docs[j].CreatedAt) })
	case backend.FieldCreatedAt:
		sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	default:
		sort.SliceStable(docs, func(i, j int) bool {
			return fmt.Sprint(docs[i].Fields[order]) > fmt.Sprint(docs[j].Fields[order])
		})
	}

	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func matches(doc backend.Document, filters []backend.Query) bool {
	for _, f := range filters {
		if !reflect.DeepEqual(doc.Fields[f.Field], f.Value) {
			return false
		}
	}
	return true
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if s, ok := v.([]string); ok {
			v = append(make([]string, 0, len(s)), s...)
		}
		out[k] = v
	}
	return out
}

func cloneDocument(doc backend.Document) *backend.Document {
	doc.Fields = copyFields(doc.Fields)
	return &doc
}
