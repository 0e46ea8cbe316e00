package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	data       JSONB       NOT NULL,
	version    INTEGER     NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (collection, created_at DESC);
`

const uniqueViolation = "23505"

// ConnectPostgres opens a pooled connection and verifies it.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// EnsurePostgresSchema creates the documents table if it is missing.
func EnsurePostgresSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, postgresSchema)
	return err
}

// PostgresCollection stores documents of one collection as JSONB rows in the
// shared documents table.
type PostgresCollection[T Document] struct {
	db         *sql.DB
	collection string
	newDoc     func() T
	now        func() time.Time
}

func NewPostgresCollection[T Document](db *sql.DB, collection string, newDoc func() T) *PostgresCollection[T] {
	return &PostgresCollection[T]{
		db:         db,
		collection: collection,
		newDoc:     newDoc,
		now:        time.Now,
	}
}

func (c *PostgresCollection[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	var data []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		c.collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, err
	}
	return c.decode(data)
}

func (c *PostgresCollection[T]) FindOne(ctx context.Context, filter Filter) (T, error) {
	var zero T
	docs, err := c.Find(ctx, filter, Page{Page: 1, Limit: 1})
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, ErrNotFound
	}
	return docs[0], nil
}

func (c *PostgresCollection[T]) Find(ctx context.Context, filter Filter, page Page) ([]T, error) {
	where, args, err := buildPostgresWhere(c.collection, filter)
	if err != nil {
		return nil, err
	}

	query := "SELECT data FROM documents WHERE " + where + " ORDER BY created_at DESC"
	if page.Limit > 0 {
		args = append(args, page.Limit, page.Offset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []T{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		doc, err := c.decode(data)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

func (c *PostgresCollection[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	where, args, err := buildPostgresWhere(c.collection, filter)
	if err != nil {
		return 0, err
	}

	var count int64
	err = c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE "+where, args...).Scan(&count)
	return count, err
}

func (c *PostgresCollection[T]) Create(ctx context.Context, doc T) error {
	if doc.GetID() == "" {
		doc.SetID(uuid.New().String())
	}
	doc.SetVersion(1)
	doc.Touch(c.now())

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	res, err := c.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (collection, id) DO NOTHING`,
		c.collection, doc.GetID(), data, 1, doc.GetCreatedAt(),
	)
	if err != nil {
		return translatePostgresError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (c *PostgresCollection[T]) UpdateByID(ctx context.Context, doc T) error {
	expected := doc.GetVersion()
	doc.SetVersion(expected + 1)
	now := c.now()
	doc.Touch(now)

	data, err := json.Marshal(doc)
	if err != nil {
		doc.SetVersion(expected)
		return err
	}

	res, err := c.db.ExecContext(ctx,
		`UPDATE documents SET data = $1, version = $2, updated_at = $3
		 WHERE collection = $4 AND id = $5 AND version = $6`,
		data, expected+1, now, c.collection, doc.GetID(), expected,
	)
	if err != nil {
		doc.SetVersion(expected)
		return translatePostgresError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		doc.SetVersion(expected)
		return c.missOrConflict(ctx, doc.GetID(), ErrVersionConflict)
	}
	return nil
}

func (c *PostgresCollection[T]) DeleteByID(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		c.collection, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Decrement runs a single conditional UPDATE so concurrent callers can never
// drive the field below zero.
func (c *PostgresCollection[T]) Decrement(ctx context.Context, id, field string, n int) error {
	if !fieldNameRegex.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	res, err := c.db.ExecContext(ctx, `
		UPDATE documents
		SET data = data || jsonb_build_object(
				$3::text, (data->>($3::text))::bigint - $4::bigint,
				'version', version + 1,
				'updatedAt', $5::text),
			version = version + 1,
			updated_at = $6
		WHERE collection = $1 AND id = $2 AND (data->>($3::text))::bigint >= $4::bigint`,
		c.collection, id, field, n, c.now().UTC().Format(time.RFC3339Nano), c.now(),
	)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return c.missOrConflict(ctx, id, ErrInsufficient)
	}
	return nil
}

func (c *PostgresCollection[T]) Increment(ctx context.Context, id, field string, n int) error {
	if !fieldNameRegex.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	res, err := c.db.ExecContext(ctx, `
		UPDATE documents
		SET data = data || jsonb_build_object(
				$3::text, COALESCE((data->>($3::text))::bigint, 0) + $4::bigint,
				'version', version + 1,
				'updatedAt', $5::text),
			version = version + 1,
			updated_at = $6
		WHERE collection = $1 AND id = $2`,
		c.collection, id, field, n, c.now().UTC().Format(time.RFC3339Nano), c.now(),
	)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureUnique adds a partial unique index on a JSON field of this collection.
func (c *PostgresCollection[T]) EnsureUnique(ctx context.Context, field string) error {
	if !fieldNameRegex.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	name := pq.QuoteIdentifier(fmt.Sprintf("uq_%s_%s", c.collection, field))
	_, err := c.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE UNIQUE INDEX IF NOT EXISTS %s ON documents ((data->>%s)) WHERE collection = %s`,
		name, pq.QuoteLiteral(field), pq.QuoteLiteral(c.collection),
	))
	return err
}

// missOrConflict distinguishes a missing row from a failed condition after
// an UPDATE matched nothing.
func (c *PostgresCollection[T]) missOrConflict(ctx context.Context, id string, conflict error) error {
	var exists bool
	err := c.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`,
		c.collection, id,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return conflict
}

func (c *PostgresCollection[T]) decode(data []byte) (T, error) {
	doc := c.newDoc()
	if err := json.Unmarshal(data, doc); err != nil {
		var zero T
		return zero, err
	}
	return doc, nil
}

// buildPostgresWhere renders filter as a parameterised WHERE clause. Field
// names are bound as parameters, never interpolated.
func buildPostgresWhere(collection string, filter Filter) (string, []any, error) {
	if err := filter.validate(); err != nil {
		return "", nil, err
	}

	clauses := []string{"collection = $1"}
	args := []any{collection}

	for _, k := range filter.sortedKeys() {
		args = append(args, k, textValue(filter.Equals[k]))
		clauses = append(clauses, fmt.Sprintf("data->>($%d::text) = $%d", len(args)-1, len(args)))
	}

	if filter.Search != "" && len(filter.SearchFields) > 0 {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		pattern := len(args)
		ors := make([]string, 0, len(filter.SearchFields))
		for _, f := range filter.SearchFields {
			args = append(args, f)
			ors = append(ors, fmt.Sprintf("data->>($%d::text) ILIKE $%d", len(args), pattern))
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}

	return strings.Join(clauses, " AND "), args, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func translatePostgresError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
