package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// EventIndex keeps event documents in Elasticsearch for full-text search.
type EventIndex struct {
	ES     *elasticsearch.Client
	Index  string
	Logger *logrus.Logger
}

func NewEventIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *EventIndex {
	return &EventIndex{ES: es, Index: index, Logger: logger}
}

// eventMapping keeps date fields typed and club/type filterable.
const eventMapping = `{
  "mappings": {
    "properties": {
      "id":             {"type": "keyword"},
      "title":          {"type": "text"},
      "description":    {"type": "text"},
      "venue":          {"type": "text"},
      "club":           {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "type":           {"type": "keyword"},
      "organizer_name": {"type": "text"},
      "date":           {"type": "date"},
      "created_at":     {"type": "date"}
    }
  }
}`

// EnsureIndex creates the events index with its mapping unless it exists.
func (x *EventIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.ES.Indices.Exists([]string{x.Index}, x.ES.Indices.Exists.WithContext(c))
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = x.ES.Indices.Create(x.Index,
		x.ES.Indices.Create.WithContext(c),
		x.ES.Indices.Create.WithBody(strings.NewReader(eventMapping)),
	)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", x.Index, res.Status())
	}
	return nil
}

type eventDoc struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Venue         string `json:"venue"`
	Club          string `json:"club,omitempty"`
	Type          string `json:"type"`
	OrganizerName string `json:"organizer_name"`
	Date          string `json:"date"`
	CreatedAt     string `json:"created_at"`
}

func (x *EventIndex) IndexEvent(ctx context.Context, e *entity.Event) error {
	doc := eventDoc{
		ID:            e.ID,
		Title:         e.Title,
		Description:   e.Description,
		Venue:         e.Venue,
		Club:          e.Club,
		Type:          string(e.Type),
		OrganizerName: e.OrganizerName,
		Date:          e.Date.UTC().Format(time.RFC3339),
		CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.Index, DocumentID: e.ID, Body: bytes.NewReader(b), Refresh: "false"}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index event %s: %s", e.ID, res.Status())
	}
	return nil
}

// SearchEvents runs a multi_match over the text fields and returns ids by score.
func (x *EventIndex) SearchEvents(ctx context.Context, q string, size int) ([]string, error) {
	if size <= 0 || size > 50 {
		size = 20
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^3", "club^2", "description", "venue", "organizer_name"},
				"fuzziness": "AUTO",
			},
		},
		"size":    size,
		"_source": []string{"id"},
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.ES.Search(
		x.ES.Search.WithContext(c),
		x.ES.Search.WithIndex(x.Index),
		x.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search events: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// Backfill indexes every event; used at startup so search covers seeded data.
func (x *EventIndex) Backfill(ctx context.Context, events []*entity.EventWithCounts) int {
	n := 0
	for _, ec := range events {
		if err := x.IndexEvent(ctx, &ec.Event); err != nil {
			if x.Logger != nil {
				x.Logger.WithError(err).WithField("event_id", ec.ID).Warn("event backfill failed")
			}
			continue
		}
		n++
	}
	return n
}
