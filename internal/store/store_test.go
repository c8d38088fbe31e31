package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/deppfellow/vdpulizie/internal/config"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreTests runs the common suite against a fresh, empty Store.
func runStoreTests(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("FindMany empty", func(t *testing.T) {
		docs, err := s.FindMany(ctx, "lead", nil, 50)
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})

	var firstID uuid.UUID

	t.Run("InsertOne and FindMany", func(t *testing.T) {
		id, err := s.InsertOne(ctx, "lead", Document{
			"name":          "Mario Rossi",
			"status":        "nuovo",
			"square_meters": 80,
			"message":       nil,
		})
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, id)
		firstID = id

		docs, err := s.FindMany(ctx, "lead", Filter{}, 50)
		require.NoError(t, err)
		require.Len(t, docs, 1)

		assert.Equal(t, id, docs[0][IDField])
		assert.Equal(t, "Mario Rossi", docs[0]["name"])
		assert.Equal(t, json.Number("80"), docs[0]["square_meters"])
		assert.Nil(t, docs[0]["message"])
	})

	t.Run("insertion order and limit", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			_, err := s.InsertOne(ctx, "lead", Document{
				"name":   fmt.Sprintf("lead-%d", i),
				"status": "contattato",
			})
			require.NoError(t, err)
		}

		docs, err := s.FindMany(ctx, "lead", nil, 3)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, firstID, docs[0][IDField])
		assert.Equal(t, "lead-0", docs[1]["name"])
		assert.Equal(t, "lead-1", docs[2]["name"])

		all, err := s.FindMany(ctx, "lead", nil, 0)
		require.NoError(t, err)
		assert.Len(t, all, 6)
	})

	t.Run("filter", func(t *testing.T) {
		docs, err := s.FindMany(ctx, "lead", Filter{"status": "nuovo"}, 50)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Mario Rossi", docs[0]["name"])

		docs, err = s.FindMany(ctx, "lead", Filter{"square_meters": 80}, 50)
		require.NoError(t, err)
		assert.Len(t, docs, 1)

		docs, err = s.FindMany(ctx, "lead", Filter{"status": "chiuso"}, 50)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		_, err := s.InsertOne(ctx, "quote", Document{"amount": 120})
		require.NoError(t, err)

		docs, err := s.FindMany(ctx, "quote", nil, 50)
		require.NoError(t, err)
		assert.Len(t, docs, 1)

		names, err := s.ListCollections(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"lead", "quote"}, names)
	})

	t.Run("rejects explicit id", func(t *testing.T) {
		_, err := s.InsertOne(ctx, "lead", Document{IDField: "custom"})
		assert.Error(t, err)
	})

	t.Run("rejects bad names", func(t *testing.T) {
		_, err := s.InsertOne(ctx, "lead; DROP TABLE documents", Document{})
		assert.Error(t, err)

		_, err = s.FindMany(ctx, "lead", Filter{"name') OR 1=1 --": "x"}, 10)
		assert.Error(t, err)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	runStoreTests(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	defer s.Close()
	runStoreTests(t, s)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	doc := Document{"name": "Anna"}
	_, err := s.InsertOne(ctx, "lead", doc)
	require.NoError(t, err)
	doc["name"] = "changed"

	docs, err := s.FindMany(ctx, "lead", nil, 0)
	require.NoError(t, err)
	docs[0]["name"] = "changed again"

	docs, err = s.FindMany(ctx, "lead", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "Anna", docs[0]["name"])
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	_, err := s.InsertOne(ctx, "lead", Document{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
}

func TestSQLiteStore_RejectsNestedFilter(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.FindMany(context.Background(), "lead", Filter{"address": map[string]any{"city": "Roma"}}, 10)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	logger := zerolog.Nop()

	cfg := config.DefaultConfig()
	cfg.Store.Backend = config.BackendMemory
	s, err := Open(context.Background(), cfg, &logger, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	cfg.Store.Backend = config.BackendSQLite
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "nested", "leads.db")
	s, err = Open(context.Background(), cfg, &logger, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	cfg.Store.Backend = "mongo"
	_, err = Open(context.Background(), cfg, &logger, nil)
	assert.Error(t, err)
}

func TestPersistent(t *testing.T) {
	assert.False(t, Persistent(nil))
	assert.False(t, Persistent(NewMemoryStore()))

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	defer s.Close()
	assert.True(t, Persistent(s))

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	assert.True(t, Persistent(NewPostgresStore(mock)))
}

func TestSQLiteStore_NumberFilter(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.InsertOne(ctx, "lead", Document{"square_meters": 9007199254740993})
	require.NoError(t, err)

	docs, err := s.FindMany(ctx, "lead", Filter{"square_meters": 9007199254740993}, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, json.Number("9007199254740993"), docs[0]["square_meters"])
}
