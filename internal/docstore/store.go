package docstore

import (
	"context"
	"errors"
	"fmt"
)

// OwnerField is the document field projected into the indexed owner column.
const OwnerField = "ownerId"

var ErrNotFound = errors.New("document not found")

// Fields is the body of a document.
type Fields map[string]any

// Document is a stored body together with its store-assigned id.
type Document struct {
	ID     string
	Fields Fields
}

// Filter selects documents whose Field equals Value. The zero Filter matches everything.
type Filter struct {
	Field string
	Value any
}

// Where builds an exact-match filter.
func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

func (f Filter) matches(fields Fields) bool {
	if f.Field == "" {
		return true
	}
	got, ok := fields[f.Field]
	if !ok {
		return false
	}
	if a, ok := got.(string); ok {
		b, ok := f.Value.(string)
		return ok && a == b
	}
	return fmt.Sprint(got) == fmt.Sprint(f.Value)
}

// Store is a collection-oriented document database.
type Store interface {
	Query(ctx context.Context, collection string, filter Filter) ([]Document, error)
	Add(ctx context.Context, collection string, fields Fields) (string, error)
	// AddAll writes every document or none of them.
	AddAll(ctx context.Context, collection string, docs []Fields) ([]string, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	// Update merges fields over the stored body.
	Update(ctx context.Context, collection, id string, fields Fields) error
	Delete(ctx context.Context, collection, id string) error
}
