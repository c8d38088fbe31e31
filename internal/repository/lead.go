package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/vdpulizie/internal/model"
	"github.com/deppfellow/vdpulizie/internal/store"
	"github.com/google/uuid"
)

type LeadRepository struct {
	store store.Store
}

func NewLeadRepository(s store.Store) *LeadRepository {
	return &LeadRepository{store: s}
}

// Create inserts lead and returns its id as a string. lead.ID is ignored.
func (r *LeadRepository) Create(ctx context.Context, lead *model.Lead) (string, error) {
	record := *lead
	record.ID = ""

	doc, err := toDocument(record)
	if err != nil {
		return "", err
	}

	id, err := r.store.InsertOne(ctx, model.LeadCollection, doc)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// List returns up to limit leads, oldest first, with IDs stringified.
func (r *LeadRepository) List(ctx context.Context, limit int) ([]model.Lead, error) {
	docs, err := r.store.FindMany(ctx, model.LeadCollection, store.Filter{}, limit)
	if err != nil {
		return nil, err
	}

	leads := make([]model.Lead, 0, len(docs))
	for _, doc := range docs {
		lead, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

func toDocument(lead model.Lead) (store.Document, error) {
	data, err := json.Marshal(lead)
	if err != nil {
		return nil, fmt.Errorf("encoding lead: %w", err)
	}

	var doc store.Document
	if err := store.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("encoding lead: %w", err)
	}
	return doc, nil
}

func fromDocument(doc store.Document) (model.Lead, error) {
	var lead model.Lead

	if raw, ok := doc[store.IDField]; ok {
		doc[store.IDField] = stringID(raw)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return lead, fmt.Errorf("decoding lead: %w", err)
	}
	if err := json.Unmarshal(data, &lead); err != nil {
		return lead, fmt.Errorf("decoding lead %v: %w", doc[store.IDField], err)
	}
	return lead, nil
}

// stringID renders a store-native identifier as text.
func stringID(raw any) string {
	switch id := raw.(type) {
	case uuid.UUID:
		return id.String()
	case string:
		return id
	case fmt.Stringer:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}
