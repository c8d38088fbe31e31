package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxPool is the subset of *pgxpool.Pool used by PostgresStore.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore keeps documents as JSONB rows in the documents table
// created by the database migrations. Filters use JSONB containment.
type PostgresStore struct {
	pool pgxPool
}

func NewPostgresStore(pool pgxPool) *PostgresStore {
	if pool == nil {
		panic("store: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) InsertOne(ctx context.Context, collection string, doc Document) (uuid.UUID, error) {
	if err := validCollection(collection); err != nil {
		return uuid.Nil, err
	}
	data, err := encode(doc)
	if err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO documents (id, collection, data)
		VALUES ($1, $2, $3)
	`
	if _, err := s.pool.Exec(ctx, query, id.String(), collection, data); err != nil {
		return uuid.Nil, fmt.Errorf("insert into %s: %w", collection, err)
	}

	return id, nil
}

func (s *PostgresStore) FindMany(ctx context.Context, collection string, filter Filter, limit int) ([]Document, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("encoding filter: %w", err)
	}

	// A NULL limit returns every row.
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	query := `
		SELECT id::text, data
		FROM documents
		WHERE collection = $1 AND data @> $2
		ORDER BY seq
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, query, collection, filterJSON, limitArg)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var (
			rawID string
			data  []byte
		)
		if err := rows.Scan(&rawID, &data); err != nil {
			return nil, fmt.Errorf("find in %s: %w", collection, err)
		}

		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parsing document id %q: %w", rawID, err)
		}

		doc, err := decode(id, data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	return docs, nil
}

func (s *PostgresStore) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
