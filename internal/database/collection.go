package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound is returned when no document has the requested id.
	ErrNotFound = errors.New("document not found")
	// ErrVersionConflict is returned when an update kept losing the race
	// against concurrent writers of the same document.
	ErrVersionConflict = errors.New("document version conflict")
)

// maxUpdateAttempts bounds the read-modify-write retries in Update.
const maxUpdateAttempts = 3

// Document is a decoded row of a collection.
type Document[T any] struct {
	ID      string
	Version int64
	Data    T
}

type docRow struct {
	ID      string `db:"id"`
	Version int64  `db:"version"`
	Body    string `db:"body"`
}

// Collection stores JSON documents of type T in one table.  Every write
// bumps the document version; Update uses it to reject stale writes.
type Collection[T any] struct {
	db    *sqlx.DB
	table string
}

// NewCollection binds a collection to one of the migrated tables.
func NewCollection[T any](db *sqlx.DB, table string) *Collection[T] {
	return &Collection[T]{db: db, table: table}
}

// Insert stores data under id and returns the stored document.
func (c *Collection[T]) Insert(ctx context.Context, id string, data T) (Document[T], error) {
	body, err := json.Marshal(data)
	if err != nil {
		return Document[T]{}, fmt.Errorf("encode %s document: %w", c.table, err)
	}
	q := c.db.Rebind("INSERT INTO " + c.table + " (id, version, seq, body) VALUES (?, 1, ?, ?)")
	if _, err := c.db.ExecContext(ctx, q, id, nextSeq(), string(body)); err != nil {
		return Document[T]{}, err
	}
	return Document[T]{ID: id, Version: 1, Data: data}, nil
}

// FindOne returns the document with the given id or ErrNotFound.
func (c *Collection[T]) FindOne(ctx context.Context, id string) (Document[T], error) {
	var r docRow
	q := c.db.Rebind("SELECT id, version, body FROM " + c.table + " WHERE id = ?")
	if err := c.db.GetContext(ctx, &r, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document[T]{}, ErrNotFound
		}
		return Document[T]{}, err
	}
	return c.decode(r)
}

// Find returns the documents accepted by match in insertion order.  A nil
// match returns every document.
func (c *Collection[T]) Find(ctx context.Context, match func(T) bool) ([]Document[T], error) {
	var rows []docRow
	q := "SELECT id, version, body FROM " + c.table + " ORDER BY seq, id"
	if err := c.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	out := make([]Document[T], 0, len(rows))
	for _, r := range rows {
		doc, err := c.decode(r)
		if err != nil {
			return nil, err
		}
		if match == nil || match(doc.Data) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Count returns the number of documents in the collection.
func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+c.table)
	return n, err
}

// Update applies mutate to the document with the given id and writes the
// result back if the stored version is unchanged since the read.  A stale
// write restarts from a fresh read, so mutate may run more than once and
// must only touch the value it is given.  mutate returns false to leave the
// document untouched.  Update reports how many documents changed: 0 when the
// id is unmatched or mutate declined, 1 otherwise.
func (c *Collection[T]) Update(ctx context.Context, id string, mutate func(*T) bool) (int, error) {
	q := c.db.Rebind("UPDATE " + c.table + " SET body = ?, version = version + 1 WHERE id = ? AND version = ?")
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		doc, err := c.FindOne(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		if !mutate(&doc.Data) {
			return 0, nil
		}
		body, err := json.Marshal(doc.Data)
		if err != nil {
			return 0, fmt.Errorf("encode %s document: %w", c.table, err)
		}
		res, err := c.db.ExecContext(ctx, q, string(body), id, doc.Version)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if n == 1 {
			return 1, nil
		}
	}
	return 0, ErrVersionConflict
}

// Remove deletes the document with the given id and reports how many rows
// were removed.
func (c *Collection[T]) Remove(ctx context.Context, id string) (int, error) {
	q := c.db.Rebind("DELETE FROM " + c.table + " WHERE id = ?")
	res, err := c.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (c *Collection[T]) decode(r docRow) (Document[T], error) {
	var data T
	if err := json.Unmarshal([]byte(r.Body), &data); err != nil {
		return Document[T]{}, fmt.Errorf("decode %s/%s: %w", c.table, r.ID, err)
	}
	return Document[T]{ID: r.ID, Version: r.Version, Data: data}, nil
}

var (
	seqMu   sync.Mutex
	lastSeq int64
)

// nextSeq returns a strictly increasing insertion sequence based on the clock.
func nextSeq() int64 {
	seqMu.Lock()
	defer seqMu.Unlock()
	now := time.Now().UnixNano()
	if now <= lastSeq {
		now = lastSeq + 1
	}
	lastSeq = now
	return now
}
