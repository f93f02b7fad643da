// Package search keeps a full-text index of list-view entities.
package search

import (
	"context"

	"github.com/google/uuid"
)

// Kind names an indexed collection
type Kind string

const (
	KindOpportunities Kind = "opportunities"
	KindLeads         Kind = "leads"
	KindContacts      Kind = "contacts"
)

// Kinds lists every indexed collection
var Kinds = []Kind{KindOpportunities, KindLeads, KindContacts}

// Document is the indexed form of an entity
type Document struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Owner string `json:"ownerId,omitempty"`
}

// Index resolves free-text queries to entity ids.
// Callers fall back to SQL matching when Healthy is false or SearchIDs fails.
type Index interface {
	Healthy() bool
	SearchIDs(ctx context.Context, kind Kind, q string, limit int) ([]uuid.UUID, error)
	Upsert(kind Kind, doc Document)
	Remove(kind Kind, id uuid.UUID)
	Close()
}

// Noop is the Index used when no search engine is configured
type Noop struct{}

func (Noop) Healthy() bool { return false }

func (Noop) SearchIDs(context.Context, Kind, string, int) ([]uuid.UUID, error) {
	return nil, nil
}

func (Noop) Upsert(Kind, Document) {}

func (Noop) Remove(Kind, uuid.UUID) {}

func (Noop) Close() {}
