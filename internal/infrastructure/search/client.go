package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

const maxSearchSize = 100

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":           {"type": "keyword"},
      "user_id":      {"type": "keyword"},
      "source_id":    {"type": "keyword"},
      "source_type":  {"type": "keyword"},
      "title":        {"type": "text"},
      "text":         {"type": "text"},
      "url":          {"type": "keyword"},
      "published_at": {"type": "date"},
      "fetched_at":   {"type": "date"},
      "views":        {"type": "long"},
      "likes":        {"type": "long"},
      "shares":       {"type": "long"},
      "comments":     {"type": "long"},
      "metadata":     {"type": "object", "enabled": false}
    }
  }
}`

// Client wraps go-elasticsearch for the content index.
// implements application.ContentSearcher.
type Client struct {
	es     *elasticsearch.Client
	index  string
	logger *logging.Logger
}

// New instantiates the Elasticsearch client.
func New(addresses []string, index string, logger *logging.Logger) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	return &Client{
		es:     es,
		index:  index,
		logger: logger.WithComponent("search"),
	}, nil
}

// HealthCheck pings the cluster.
func (c *Client) HealthCheck(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the content index with its mapping when missing.
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("check index failed: %s", res.Status())
	}

	res, err = c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("create index failed: %s", strings.TrimSpace(string(body)))
	}

	c.logger.Info("search index created", "index", c.index)
	return nil
}

// Index writes a document, replacing any previous version with the same id.
func (c *Client) Index(ctx context.Context, doc Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal doc: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("index doc: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index doc failed: %s", strings.TrimSpace(string(body)))
	}
	return nil
}

// Search runs a full text query over the content of one user, best match first.
func (c *Client) Search(ctx context.Context, userID domain.UserID, query string, limit int) ([]domain.ContentHit, error) {
	if limit <= 0 || limit > maxSearchSize {
		limit = 20
	}

	body := map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"must": []map[string]any{{
					"multi_match": map[string]any{
						"query":  query,
						"fields": []string{"title^2", "text"},
					},
				}},
				"filter": []map[string]any{{
					"term": map[string]any{"user_id": userID.String()},
				}},
			},
		},
		"sort": []any{
			"_score",
			map[string]any{"published_at": map[string]any{"order": "desc"}},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  *float64 `json:"_score"`
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]domain.ContentHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		var score float64
		if h.Score != nil {
			score = *h.Score
		}
		hits = append(hits, h.Source.Hit(score))
	}
	return hits, nil
}
