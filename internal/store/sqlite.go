package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps every collection in one SQLite table:
//
//	documents(seq, id, collection, data, created_at)
//
// data is the JSON-encoded document; seq preserves insertion order.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		collection TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	)`); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS documents_collection_idx ON documents (collection, seq)`); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) InsertOne(ctx context.Context, collection string, doc Document) (uuid.UUID, error) {
	if err := validCollection(collection); err != nil {
		return uuid.Nil, err
	}
	data, err := encode(doc)
	if err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, data) VALUES (?, ?, ?)`,
		id.String(), collection, string(data),
	); err != nil {
		return uuid.Nil, fmt.Errorf("insert into %s: %w", collection, err)
	}

	return id, nil
}

func (s *SQLiteStore) FindMany(ctx context.Context, collection string, filter Filter, limit int) ([]Document, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	query := strings.Builder{}
	query.WriteString(`SELECT id, data FROM documents WHERE collection = ?`)
	args := []any{collection}

	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		// Keys were checked against fieldName, so they are safe in a path.
		path := `'$.` + key + `'`

		switch v := filter[key].(type) {
		case nil:
			query.WriteString(` AND json_type(data, ` + path + `) = 'null'`)
		case map[string]any, []any:
			return nil, fmt.Errorf("filter field %q: only scalar values are supported", key)
		default:
			query.WriteString(` AND json_extract(data, ` + path + `) = ?`)
			args = append(args, sqliteValue(v))
		}
	}

	if limit <= 0 {
		limit = -1
	}
	query.WriteString(` ORDER BY seq LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var rawID, raw string
		if err := rows.Scan(&rawID, &raw); err != nil {
			return nil, err
		}

		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parsing document id %q: %w", rawID, err)
		}

		doc, err := decode(id, []byte(raw))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

func (s *SQLiteStore) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT collection FROM documents ORDER BY collection`)
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

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqliteValue converts a decoded JSON value to what json_extract returns
// for it: booleans become 0/1, numbers become int64 or float64.
func sqliteValue(v any) any {
	switch v := v.(type) {
	case bool:
		if v {
			return 1
		}
		return 0
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	}
	return v
}
