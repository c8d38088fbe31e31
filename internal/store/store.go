// Package store is the persistence accessor: a thin pass-through to a
// document database, keyed by collection name.
//
// Stores do not validate, retry or wrap calls in transactions. Driver
// errors reach the caller with their message intact.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// IDField is the key under which FindMany returns a document's identifier.
// Its value is the store-native uuid.UUID.
const IDField = "_id"

// Document is a single record. Values follow encoding/json decoding rules
// once they have been through a store, except that numbers are json.Number
// so integers keep their exact value.
type Document map[string]any

// Filter matches documents whose top-level fields equal the given values.
// An empty Filter matches everything.
type Filter map[string]any

// Store is implemented by every persistence backend.
type Store interface {
	// InsertOne stores doc in collection and returns its generated id.
	InsertOne(ctx context.Context, collection string, doc Document) (uuid.UUID, error)

	// FindMany returns up to limit documents of collection matching filter,
	// oldest first. A limit <= 0 means no limit.
	FindMany(ctx context.Context, collection string, filter Filter, limit int) ([]Document, error)

	// ListCollections returns the names of collections holding documents.
	ListCollections(ctx context.Context) ([]string, error)

	// Ping checks that the backing database is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Persistent reports whether s is backed by a database. The memory store
// is not.
func Persistent(s Store) bool {
	if s == nil {
		return false
	}
	_, inMemory := s.(*MemoryStore)
	return !inMemory
}

var fieldName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// encode serializes doc, rejecting an explicit id: ids are always generated.
func encode(doc Document) ([]byte, error) {
	if _, ok := doc[IDField]; ok {
		return nil, fmt.Errorf("document must not set %q", IDField)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return data, nil
}

func decode(id uuid.UUID, data []byte) (Document, error) {
	var doc Document
	if err := Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding document %s: %w", id, err)
	}
	if doc == nil {
		doc = Document{}
	}
	doc[IDField] = id
	return doc, nil
}

// Unmarshal decodes JSON the way stores do, with numbers as json.Number.
func Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// normalizeFilter round-trips filter through JSON so its values compare
// equal to decoded document values, and checks field names.
func normalizeFilter(filter Filter) (Filter, error) {
	if len(filter) == 0 {
		return Filter{}, nil
	}

	for key := range filter {
		if !fieldName.MatchString(key) {
			return nil, fmt.Errorf("invalid filter field %q", key)
		}
	}

	data, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("encoding filter: %w", err)
	}

	var normalized Filter
	if err := Unmarshal(data, &normalized); err != nil {
		return nil, fmt.Errorf("decoding filter: %w", err)
	}
	return normalized, nil
}

func validCollection(collection string) error {
	if !fieldName.MatchString(collection) {
		return fmt.Errorf("invalid collection name %q", collection)
	}
	return nil
}
