package store

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type memoryRecord struct {
	id   uuid.UUID
	data []byte
}

// MemoryStore keeps documents in process memory. Documents are stored
// serialized so callers never share maps with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]memoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]memoryRecord),
	}
}

func (s *MemoryStore) InsertOne(ctx context.Context, collection string, doc Document) (uuid.UUID, error) {
	if err := validCollection(collection); err != nil {
		return uuid.Nil, err
	}
	data, err := encode(doc)
	if err != nil {
		return uuid.Nil, err
	}
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()

	s.mu.Lock()
	s.collections[collection] = append(s.collections[collection], memoryRecord{id: id, data: data})
	s.mu.Unlock()

	return id, nil
}

func (s *MemoryStore) FindMany(ctx context.Context, collection string, filter Filter, limit int) ([]Document, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	records := s.collections[collection]
	s.mu.RUnlock()

	docs := make([]Document, 0)
	for _, rec := range records {
		if limit > 0 && len(docs) >= limit {
			break
		}

		doc, err := decode(rec.id, rec.data)
		if err != nil {
			return nil, err
		}
		if matches(doc, filter) {
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

func (s *MemoryStore) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name, records := range s.collections {
		if len(records) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}

func matches(doc Document, filter Filter) bool {
	for key, want := range filter {
		got, ok := doc[key]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
