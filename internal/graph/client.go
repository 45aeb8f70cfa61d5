// Package graph looks up directory, mail and file resources matching a
// query. Graph results are supplementary evidence: the client absorbs every
// failure into an empty result so an outage here can never fail a request.
package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"agent-gateway/internal/common/config"
	"agent-gateway/internal/common/logger"
	"agent-gateway/internal/common/metrics"
	"agent-gateway/internal/httpclient"
)

const defaultPageSize = 5

// TokenSource supplies the delegated credential for a lookup. The gateway
// treats the token as an opaque string; exchanging a caller token for a
// downstream one (on-behalf-of) lives behind this interface.
type TokenSource interface {
	Token(ctx context.Context) string
}

// StaticToken is a TokenSource over a fixed credential.
type StaticToken string

func (s StaticToken) Token(context.Context) string { return string(s) }

type delegatedTokenKey struct{}

// WithDelegatedToken attaches a caller-supplied credential to ctx, so a
// request arriving with its own directory token is looked up as that caller.
func WithDelegatedToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, delegatedTokenKey{}, token)
}

// ContextToken prefers the delegated credential on the context and falls back
// to a fixed one.
type ContextToken struct {
	Fallback string
}

func (c ContextToken) Token(ctx context.Context) string {
	if tok, ok := ctx.Value(delegatedTokenKey{}).(string); ok && tok != "" {
		return tok
	}
	return c.Fallback
}

// Client searches the directory service.
type Client struct {
	endpoint string
	tokens   TokenSource
	http     *httpclient.Client
	logger   logger.Logger
}

// New builds a client from configuration. A nil tokens falls back to the
// configured static token.
func New(cfg config.GraphConfig, tokens TokenSource, log logger.Logger) *Client {
	if tokens == nil {
		tokens = StaticToken(cfg.Token)
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		tokens:   tokens,
		http:     httpclient.New(cfg.GetTimeout(), log, "graph"),
		logger:   log.With(map[string]interface{}{"component": "graph"}),
	}
}

// Lookup returns display names of messages, events and files matching query.
// It never returns an error: exhausted retries, bad statuses and decode
// failures all collapse to an empty slice.
func (c *Client) Lookup(ctx context.Context, query string) []string {
	payload := map[string]interface{}{
		"requests": []map[string]interface{}{
			{
				"entityTypes": []string{"message", "event", "driveItem"},
				"query":       map[string]string{"queryString": query},
				"from":        0,
				"size":        defaultPageSize,
			},
		},
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.tokens.Token(ctx),
	}

	resp, err := c.http.PostJSON(ctx, c.endpoint+"/search/query", headers, payload)
	if err != nil {
		return c.absorb(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.absorb(&httpclient.StatusError{Status: resp.StatusCode})
	}

	var body struct {
		Value []struct {
			HitsContainers []struct {
				Hits []struct {
					Source struct {
						Subject     string `json:"subject"`
						Name        string `json:"name"`
						DisplayName string `json:"displayName"`
					} `json:"_source"`
				} `json:"hits"`
			} `json:"hitsContainers"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return c.absorb(err)
	}

	results := []string{}
	for _, req := range body.Value {
		for _, container := range req.HitsContainers {
			for _, hit := range container.Hits {
				name := hit.Source.Subject
				if name == "" {
					name = hit.Source.Name
				}
				if name == "" {
					name = hit.Source.DisplayName
				}
				if name != "" {
					results = append(results, name)
				}
			}
		}
	}
	return results
}

func (c *Client) absorb(err error) []string {
	metrics.GraphLookupsAbsorbed.Inc()
	c.logger.Warn("directory lookup failed, returning empty result", map[string]interface{}{
		"error": err.Error(),
	})
	return []string{}
}
