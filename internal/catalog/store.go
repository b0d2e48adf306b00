package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"medadmin/m/domain"
	"medadmin/m/internal/docstore"
)

// Store is the owner-scoped view of the record collection used by Service.
type Store interface {
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Medicine, error)
	Get(ctx context.Context, id string) (domain.Medicine, error)
	Create(ctx context.Context, m domain.Medicine) (string, error)
	Update(ctx context.Context, m domain.Medicine) error
	Delete(ctx context.Context, id string) error
}

// DocumentStore binds a docstore collection to medicine records.
type DocumentStore struct {
	docs       docstore.Store
	collection string
}

func NewDocumentStore(docs docstore.Store, collection string) *DocumentStore {
	return &DocumentStore{docs: docs, collection: collection}
}

func (s *DocumentStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Medicine, error) {
	docs, err := s.docs.Query(ctx, s.collection, docstore.Where(docstore.OwnerField, ownerID))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Medicine, 0, len(docs))
	for _, d := range docs {
		m, err := fromDocument(d)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *DocumentStore) Get(ctx context.Context, id string) (domain.Medicine, error) {
	d, err := s.docs.Get(ctx, s.collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Medicine{}, ErrNotFound
	}
	if err != nil {
		return domain.Medicine{}, err
	}
	return fromDocument(d)
}

func (s *DocumentStore) Create(ctx context.Context, m domain.Medicine) (string, error) {
	fields, err := toFields(m)
	if err != nil {
		return "", err
	}
	return s.docs.Add(ctx, s.collection, fields)
}

// CreateAll writes all records in one transaction.
func (s *DocumentStore) CreateAll(ctx context.Context, records []domain.Medicine) ([]string, error) {
	docs := make([]docstore.Fields, 0, len(records))
	for _, m := range records {
		fields, err := toFields(m)
		if err != nil {
			return nil, err
		}
		docs = append(docs, fields)
	}
	return s.docs.AddAll(ctx, s.collection, docs)
}

func (s *DocumentStore) Update(ctx context.Context, m domain.Medicine) error {
	fields, err := toFields(m)
	if err != nil {
		return err
	}
	err = s.docs.Update(ctx, s.collection, m.ID, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	err := s.docs.Delete(ctx, s.collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func toFields(m domain.Medicine) (docstore.Fields, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode medicine: %w", err)
	}
	var fields docstore.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode medicine: %w", err)
	}
	return fields, nil
}

// fromDocument tolerates non-string values written by other clients by
// dropping them rather than failing the whole list.
func fromDocument(d docstore.Document) (domain.Medicine, error) {
	clean := make(docstore.Fields, len(d.Fields))
	for k, v := range d.Fields {
		if s, ok := v.(string); ok {
			clean[k] = s
		}
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return domain.Medicine{}, fmt.Errorf("decode medicine %s: %w", d.ID, err)
	}
	var m domain.Medicine
	if err := json.Unmarshal(raw, &m); err != nil {
		return domain.Medicine{}, fmt.Errorf("decode medicine %s: %w", d.ID, err)
	}
	m.ID = d.ID
	return m, nil
}
