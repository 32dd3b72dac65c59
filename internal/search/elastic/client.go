// Package elastic implements the search index collaborator on top of an
// Elasticsearch cluster. Products live in the "product" index, variants in
// "variants" under composite "{productId}-{variantId}" ids.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/dtroode/shopkeeper-server/internal/model"
)

var _ model.SearchIndex = (*Client)(nil)

type Client struct {
	es *elasticsearch.Client
}

// New wraps an elasticsearch client. The caller owns its configuration;
// tests inject one with a stub transport.
func New(es *elasticsearch.Client) *Client {
	return &Client{es: es}
}

// NewFromConfig dials the cluster described by the addresses/credentials.
func NewFromConfig(addresses []string, username, password string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return New(es), nil
}

func (c *Client) Upsert(ctx context.Context, index, id string, document any) error {
	body, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := c.es.Index(index, bytes.NewReader(body),
		c.es.Index.WithDocumentID(id),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index document %s/%s: %w", index, id, err)
	}
	return closeAndCheck(res, index, id)
}

func (c *Client) PartialUpdate(ctx context.Context, index, id string, fields any) error {
	body, err := json.Marshal(map[string]any{"doc": fields})
	if err != nil {
		return fmt.Errorf("failed to marshal partial update: %w", err)
	}

	res, err := c.es.Update(index, id, bytes.NewReader(body),
		c.es.Update.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to update document %s/%s: %w", index, id, err)
	}
	return closeAndCheck(res, index, id)
}

func (c *Client) BulkUpsert(ctx context.Context, index string, operations []model.IndexOperation) error {
	if len(operations) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, op := range operations {
		action, err := json.Marshal(map[string]any{
			"index": map[string]any{"_index": index, "_id": op.ID},
		})
		if err != nil {
			return fmt.Errorf("failed to marshal bulk action: %w", err)
		}
		doc, err := json.Marshal(op.Document)
		if err != nil {
			return fmt.Errorf("failed to marshal bulk document %s: %w", op.ID, err)
		}
		buf.Write(action)
		buf.WriteByte('\n')
		buf.Write(doc)
		buf.WriteByte('\n')
	}

	res, err := c.es.Bulk(bytes.NewReader(buf.Bytes()),
		c.es.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to execute bulk request: %w", err)
	}
	return closeAndCheck(res, index, "")
}

func (c *Client) UpdateByQuery(ctx context.Context, index string, query map[string]any, fields map[string]any) error {
	body, err := json.Marshal(map[string]any{
		"query": query,
		"script": map[string]any{
			"source": scriptedFieldSource(fields),
			"lang":   "painless",
			"params": fields,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal update-by-query: %w", err)
	}

	res, err := c.es.UpdateByQuery([]string{index},
		c.es.UpdateByQuery.WithBody(bytes.NewReader(body)),
		c.es.UpdateByQuery.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to execute update-by-query on %s: %w", index, err)
	}
	return closeAndCheck(res, index, "")
}

func (c *Client) Search(ctx context.Context, index string, req model.SearchRequest) (model.SearchResult, error) {
	body, err := json.Marshal(map[string]any{
		"query": req.Query,
		"sort":  req.Sort,
		"from":  req.From,
		"size":  req.Size,
	})
	if err != nil {
		return model.SearchResult{}, fmt.Errorf("failed to marshal search request: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithContext(ctx),
	)
	if err != nil {
		return model.SearchResult{}, fmt.Errorf("failed to execute search on %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return model.SearchResult{}, fmt.Errorf("search on %s failed: %s", index, res.String())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return model.SearchResult{}, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := model.SearchResult{
		Hits:  make([]json.RawMessage, 0, len(parsed.Hits.Hits)),
		Total: parsed.Hits.Total.Value,
	}
	for _, hit := range parsed.Hits.Hits {
		result.Hits = append(result.Hits, hit.Source)
	}
	return result, nil
}

// scriptedFieldSource builds the painless assignment for each field of a
// scripted update, e.g. "ctx._source.status = params.status".
func scriptedFieldSource(fields map[string]any) string {
	parts := make([]string, 0, len(fields))
	for key := range fields {
		parts = append(parts, fmt.Sprintf("ctx._source.%s = params.%s", key, key))
	}
	// Deterministic order keeps request bodies reproducible.
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// closeAndCheck drains the response and maps its status. A 404 means the
// targeted document does not exist, which callers may tolerate.
func closeAndCheck(res *esapi.Response, index, id string) error {
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode == 404 {
		return fmt.Errorf("%s/%s: %w", index, id, model.ErrDocumentMissing)
	}
	if res.IsError() {
		return fmt.Errorf("index request %s/%s failed with status %d", index, id, res.StatusCode)
	}
	return nil
}
