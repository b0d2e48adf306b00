package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// fixed width so created_at orders lexicographically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type documentRow struct {
	ID   string `db:"id"`
	Data string `db:"data"`
}

// SQLStore keeps documents as JSON rows in the documents table.
type SQLStore struct {
	db    *sqlx.DB
	now   func() time.Time
	newID func() string
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

func (s *SQLStore) Query(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	query := `SELECT id, data FROM documents WHERE collection = ?`
	args := []any{collection}
	if filter.Field == OwnerField {
		owner, ok := filter.Value.(string)
		if !ok {
			return nil, fmt.Errorf("query %s: %s filter must be a string", collection, OwnerField)
		}
		query += ` AND owner_id = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at, id`

	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		fields, err := decode(row.Data)
		if err != nil {
			return nil, fmt.Errorf("query %s: document %s: %w", collection, row.ID, err)
		}
		if !filter.matches(fields) {
			continue
		}
		docs = append(docs, Document{ID: row.ID, Fields: fields})
	}
	return docs, nil
}

func (s *SQLStore) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}
	id := s.newID()
	ts := s.now().Format(timeLayout)
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO documents (id, collection, owner_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`),
		id, collection, ownerOf(fields), string(data), ts, ts)
	if err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}
	return id, nil
}

func (s *SQLStore) AddAll(ctx context.Context, collection string, docs []Fields) ([]string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("add to %s: %w", collection, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO documents (id, collection, owner_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return nil, fmt.Errorf("add to %s: %w", collection, err)
	}
	defer stmt.Close()

	ids := make([]string, 0, len(docs))
	for i, fields := range docs {
		data, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("add to %s: document %d: %w", collection, i, err)
		}
		id := s.newID()
		ts := s.now().Format(timeLayout)
		if _, err := stmt.ExecContext(ctx, id, collection, ownerOf(fields), string(data), ts, ts); err != nil {
			return nil, fmt.Errorf("add to %s: document %d: %w", collection, i, err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("add to %s: %w", collection, err)
	}
	return ids, nil
}

func (s *SQLStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT id, data FROM documents WHERE collection = ? AND id = ?`), collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	fields, err := decode(row.Data)
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return Document{ID: row.ID, Fields: fields}, nil
}

func (s *SQLStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	defer tx.Rollback()

	var data string
	err = tx.GetContext(ctx, &data, tx.Rebind(`SELECT data FROM documents WHERE collection = ? AND id = ?`), collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	merged, err := decode(data)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	for k, v := range fields {
		merged[k] = v
	}
	encoded, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE documents SET data = ?, owner_id = ?, updated_at = ? WHERE collection = ? AND id = ?`),
		string(encoded), ownerOf(merged), s.now().Format(timeLayout), collection, id)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return tx.Commit()
}

func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM documents WHERE collection = ? AND id = ?`), collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func ownerOf(fields Fields) string {
	owner, _ := fields[OwnerField].(string)
	return owner
}

func decode(data string) (Fields, error) {
	fields := Fields{}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return fields, nil
}
