package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"agent-gateway/internal/common/config"
	gwerrors "agent-gateway/internal/common/errors"
	"agent-gateway/internal/common/logger"
	"agent-gateway/internal/httpclient"
)

// RESTClient queries an Azure-AI-Search-style docs endpoint.
type RESTClient struct {
	endpoint   string
	index      string
	apiKey     string
	apiVersion string
	hybrid     bool
	http       *httpclient.Client
	logger     logger.Logger
}

// NewRESTClient builds the REST provider from configuration.
func NewRESTClient(cfg config.SearchConfig, log logger.Logger) *RESTClient {
	return &RESTClient{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		index:      cfg.Index,
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		hybrid:     cfg.Hybrid,
		http:       httpclient.New(cfg.GetTimeout(), log, "search"),
		logger:     log.With(map[string]interface{}{"component": "search"}),
	}
}

var _ MetadataSearcher = (*RESTClient)(nil)

// Search returns passage texts for query.
func (c *RESTClient) Search(ctx context.Context, query string, top int, semantic bool) ([]string, error) {
	docs, err := c.search(ctx, query, top, semantic)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		texts = append(texts, d.text())
	}
	return texts, nil
}

// SearchWithMetadata returns passages with whatever source metadata the
// index carries.
func (c *RESTClient) SearchWithMetadata(ctx context.Context, query string, top int, semantic bool) ([]Passage, error) {
	docs, err := c.search(ctx, query, top, semantic)
	if err != nil {
		return nil, err
	}

	passages := make([]Passage, 0, len(docs))
	for _, d := range docs {
		passages = append(passages, Passage{
			Content:  d.text(),
			File:     d.File,
			Page:     d.Page,
			ClauseID: d.ClauseID,
			Score:    d.Score,
		})
	}
	return passages, nil
}

type searchDoc struct {
	Content  string  `json:"content"`
	Text     string  `json:"text"`
	File     string  `json:"file"`
	Page     int     `json:"page"`
	ClauseID string  `json:"clauseId"`
	Score    float64 `json:"@search.score"`
}

func (d searchDoc) text() string {
	if d.Content != "" {
		return d.Content
	}
	return d.Text
}

func (c *RESTClient) search(ctx context.Context, query string, top int, semantic bool) ([]searchDoc, error) {
	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.endpoint, c.index, c.apiVersion)

	payload := map[string]interface{}{
		"search": query,
		"top":    top,
	}
	if semantic {
		payload["queryType"] = "semantic"
		payload["semanticConfiguration"] = "default"
	}
	if c.hybrid {
		payload["searchMode"] = "all"
	}

	headers := map[string]string{
		"api-key": c.apiKey,
	}

	resp, err := c.http.PostJSON(ctx, url, headers, payload)
	if err != nil {
		return nil, gwerrors.NewSearchBackendUnavailableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, gwerrors.NewSearchBackendUnavailableError(fmt.Errorf("search returned status %d", resp.StatusCode))
	}

	var body struct {
		Value []searchDoc `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, gwerrors.NewSearchBackendUnavailableError(fmt.Errorf("decode search response: %w", err))
	}
	return body.Value, nil
}
