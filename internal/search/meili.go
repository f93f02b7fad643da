package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	meili "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

const indexPrefix = "crm_"

// maxSearchHits bounds the id list handed to SQL
const maxSearchHits = 1000

// Meili implements Index with Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	logger  *zap.Logger
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client, configures the indexes when reachable
// and monitors health in the background.
func NewMeili(url, apiKey string, logger *zap.Logger) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		logger: logger,
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		logger.Warn("Meilisearch unavailable, list search falls back to SQL", zap.String("url", url), zap.Error(err))
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func indexUID(kind Kind) string {
	return indexPrefix + string(kind)
}

func (m *Meili) configureIndexes() {
	for _, kind := range Kinds {
		uid := indexUID(kind)
		if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: uid, PrimaryKey: "id"}); err != nil {
			m.logger.Debug("Create index failed (may already exist)", zap.String("index", uid), zap.Error(err))
		}

		index := m.client.Index(uid)
		filterable := []interface{}{"ownerId"}
		if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
			m.logger.Warn("Update filterable attributes failed", zap.String("index", uid), zap.Error(err))
		}
		searchable := []string{"title", "text"}
		if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
			m.logger.Warn("Update searchable attributes failed", zap.String("index", uid), zap.Error(err))
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				m.logger.Info("Meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// SearchIDs returns the ids of the best matches for q, most relevant first.
func (m *Meili) SearchIDs(ctx context.Context, kind Kind, q string, limit int) ([]uuid.UUID, error) {
	if !m.healthy.Load() {
		return nil, fmt.Errorf("meilisearch unhealthy")
	}
	if limit <= 0 || limit > maxSearchHits {
		limit = maxSearchHits
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID: indexUID(kind),
			Query:    q,
			Limit:    int64(limit),
		}},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	ids := make([]uuid.UUID, 0)
	for _, result := range resp.Results {
		for _, hit := range result.Hits {
			if id, ok := hitID(hit); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func hitID(hit meili.Hit) (uuid.UUID, bool) {
	raw, ok := hit["id"]
	if !ok {
		return uuid.Nil, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Upsert indexes a document (fire-and-forget).
func (m *Meili) Upsert(kind Kind, doc Document) {
	if !m.healthy.Load() {
		return
	}
	go func() {
		if _, err := m.client.Index(indexUID(kind)).AddDocuments([]Document{doc}, nil); err != nil {
			m.logger.Warn("Search index upsert failed", zap.String("index", indexUID(kind)), zap.String("id", doc.ID), zap.Error(err))
		}
	}()
}

// Remove deletes a document from the index (fire-and-forget).
func (m *Meili) Remove(kind Kind, id uuid.UUID) {
	if !m.healthy.Load() {
		return
	}
	go func() {
		if _, err := m.client.Index(indexUID(kind)).DeleteDocument(id.String(), nil); err != nil {
			m.logger.Warn("Search index delete failed", zap.String("index", indexUID(kind)), zap.String("id", id.String()), zap.Error(err))
		}
	}()
}
