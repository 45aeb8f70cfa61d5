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
	gwerrors "agent-gateway/internal/common/errors"
	"agent-gateway/internal/common/logger"
)

func newRESTServer(t *testing.T, capture *map[string]interface{}, docs []map[string]interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"value": docs})
	}))
}

func TestRESTSearchReturnsTexts(t *testing.T) {
	var payload map[string]interface{}
	srv := newRESTServer(t, &payload, []map[string]interface{}{
		{"content": "Clause 7.4 caps fuel surcharges at 12%."},
		{"text": "Fallback text field."},
	})
	defer srv.Close()

	c := NewRESTClient(config.SearchConfig{
		Endpoint:   srv.URL,
		Index:      "contracts",
		APIKey:     "key",
		APIVersion: "2021-04-30-Preview",
	}, logger.NewTestLogger(t))

	texts, err := c.Search(context.Background(), "fuel surcharge cap", 5, false)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Clause 7.4 caps fuel surcharges at 12%.",
		"Fallback text field.",
	}, texts)
	assert.Equal(t, "fuel surcharge cap", payload["search"])
	assert.Equal(t, float64(5), payload["top"])
	assert.NotContains(t, payload, "queryType")
}

func TestRESTSearchSemanticFlag(t *testing.T) {
	var payload map[string]interface{}
	srv := newRESTServer(t, &payload, nil)
	defer srv.Close()

	c := NewRESTClient(config.SearchConfig{Endpoint: srv.URL, Index: "contracts"}, logger.NewTestLogger(t))

	_, err := c.Search(context.Background(), "q", 3, true)
	require.NoError(t, err)

	assert.Equal(t, "semantic", payload["queryType"])
	assert.Equal(t, "default", payload["semanticConfiguration"])
}

func TestRESTSearchWithMetadata(t *testing.T) {
	srv := newRESTServer(t, nil, []map[string]interface{}{
		{"content": "Clause 7.4 text", "file": "acme-msa.pdf", "page": 12, "clauseId": "7.4", "@search.score": 3.2},
	})
	defer srv.Close()

	c := NewRESTClient(config.SearchConfig{Endpoint: srv.URL, Index: "contracts"}, logger.NewTestLogger(t))

	passages, err := c.SearchWithMetadata(context.Background(), "clause 7.4", 5, false)
	require.NoError(t, err)

	require.Len(t, passages, 1)
	assert.Equal(t, "Clause 7.4 text", passages[0].Content)
	assert.Equal(t, "acme-msa.pdf", passages[0].File)
	assert.Equal(t, 12, passages[0].Page)
	assert.Equal(t, "7.4", passages[0].ClauseID)
	assert.InDelta(t, 3.2, passages[0].Score, 0.001)
}

func TestRESTSearchBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewRESTClient(config.SearchConfig{Endpoint: srv.URL, Index: "contracts"}, logger.NewTestLogger(t))

	_, err := c.Search(context.Background(), "q", 5, false)
	require.Error(t, err)

	std, ok := gwerrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, gwerrors.ErrCodeSearchBackendUnavailable, std.Code)
}

func TestAsMetadataSearcherAdapter(t *testing.T) {
	plain := plainSearcher{texts: []string{"alpha", "beta"}}

	meta := AsMetadataSearcher(plain)
	passages, err := meta.SearchWithMetadata(context.Background(), "q", 5, false)
	require.NoError(t, err)

	require.Len(t, passages, 2)
	assert.Equal(t, "alpha", passages[0].Content)
	assert.Empty(t, passages[0].File)
}

type plainSearcher struct {
	texts []string
}

func (p plainSearcher) Search(context.Context, string, int, bool) ([]string, error) {
	return p.texts, nil
}
