package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-gateway/internal/common/config"
	"agent-gateway/internal/common/logger"
)

func newElasticServer(t *testing.T, capture *map[string]interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		if capture != nil && r.Body != nil {
			json.NewDecoder(r.Body).Decode(capture)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"hits": map[string]interface{}{
				"hits": []map[string]interface{}{
					{
						"_score": 2.5,
						"_source": map[string]interface{}{
							"content":  "Detention is billed after two hours.",
							"file":     "acme-msa.pdf",
							"page":     9,
							"clauseId": "5.2",
						},
					},
					{
						"_score": 1.1,
						"_source": map[string]interface{}{
							"text": "Fallback text field only.",
						},
					},
				},
			},
		})
	}))
}

func TestElasticSearchWithMetadata(t *testing.T) {
	var body map[string]interface{}
	srv := newElasticServer(t, &body)
	defer srv.Close()

	c, err := NewElasticClient(config.SearchConfig{
		Provider:  "elasticsearch",
		Addresses: []string{srv.URL},
		Index:     "contracts",
	}, logger.NewTestLogger(t))
	require.NoError(t, err)

	passages, err := c.SearchWithMetadata(context.Background(), "detention billing", 5, false)
	require.NoError(t, err)

	require.Len(t, passages, 2)
	assert.Equal(t, "Detention is billed after two hours.", passages[0].Content)
	assert.Equal(t, "acme-msa.pdf", passages[0].File)
	assert.Equal(t, 9, passages[0].Page)
	assert.Equal(t, "5.2", passages[0].ClauseID)
	assert.InDelta(t, 2.5, passages[0].Score, 0.001)
	assert.Equal(t, "Fallback text field only.", passages[1].Content)

	query := body["query"].(map[string]interface{})
	assert.Contains(t, query, "query_string")
}

func TestElasticSemanticUsesMatchQuery(t *testing.T) {
	var body map[string]interface{}
	srv := newElasticServer(t, &body)
	defer srv.Close()

	c, err := NewElasticClient(config.SearchConfig{
		Provider:  "elasticsearch",
		Addresses: []string{srv.URL},
		Index:     "contracts",
	}, logger.NewTestLogger(t))
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "detention billing", 3, true)
	require.NoError(t, err)

	query := body["query"].(map[string]interface{})
	assert.Contains(t, query, "match")
	assert.Equal(t, float64(3), body["size"])
}
