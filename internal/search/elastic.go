package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"agent-gateway/internal/common/config"
	gwerrors "agent-gateway/internal/common/errors"
	"agent-gateway/internal/common/logger"
)

// ElasticClient is the Elasticsearch document-search provider, for
// deployments that index contracts in an ES cluster instead of the managed
// search service. The semantic flag maps to a match query against the
// content field; the default is a query_string search.
type ElasticClient struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

// NewElasticClient builds the Elasticsearch provider from configuration.
func NewElasticClient(cfg config.SearchConfig, log logger.Logger) (*ElasticClient, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticClient{
		es:     es,
		index:  cfg.Index,
		logger: log.With(map[string]interface{}{"component": "search"}),
	}, nil
}

var _ MetadataSearcher = (*ElasticClient)(nil)

// Search returns passage texts for query.
func (c *ElasticClient) Search(ctx context.Context, query string, top int, semantic bool) ([]string, error) {
	passages, err := c.SearchWithMetadata(ctx, query, top, semantic)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, p.Content)
	}
	return texts, nil
}

// SearchWithMetadata returns passages with file/page/clause metadata when
// the documents carry those fields.
func (c *ElasticClient) SearchWithMetadata(ctx context.Context, query string, top int, semantic bool) ([]Passage, error) {
	var match map[string]interface{}
	if semantic {
		match = map[string]interface{}{
			"match": map[string]interface{}{"content": query},
		}
	} else {
		match = map[string]interface{}{
			"query_string": map[string]interface{}{"query": query},
		}
	}

	queryBody := map[string]interface{}{
		"query": match,
		"size":  top,
	}

	body, _ := json.Marshal(queryBody)
	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return nil, gwerrors.NewSearchBackendUnavailableError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, gwerrors.NewSearchBackendUnavailableError(fmt.Errorf("search failed: %s", res.Status()))
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Score  float64 `json:"_score"`
				Source struct {
					Content  string `json:"content"`
					Text     string `json:"text"`
					File     string `json:"file"`
					Page     int    `json:"page"`
					ClauseID string `json:"clauseId"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, gwerrors.NewSearchBackendUnavailableError(fmt.Errorf("decode search response: %w", err))
	}

	passages := make([]Passage, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		content := hit.Source.Content
		if content == "" {
			content = hit.Source.Text
		}
		passages = append(passages, Passage{
			Content:  content,
			File:     hit.Source.File,
			Page:     hit.Source.Page,
			ClauseID: hit.Source.ClauseID,
			Score:    hit.Score,
		})
	}
	return passages, nil
}
