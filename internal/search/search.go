// Package search queries the contract document index. Two providers exist:
// a REST client for an Azure-AI-Search-style endpoint and an Elasticsearch
// client. Both satisfy Searcher; providers that can return passage metadata
// additionally satisfy MetadataSearcher, which the orchestrator checks for
// explicitly.
package search

import "context"

// Passage is one scored excerpt of a source document. File, Page and
// ClauseID are empty when the index does not carry that metadata.
type Passage struct {
	Content  string  `json:"content"`
	File     string  `json:"file,omitempty"`
	Page     int     `json:"page,omitempty"`
	ClauseID string  `json:"clauseId,omitempty"`
	Score    float64 `json:"score,omitempty"`
}

// Searcher is the minimal document search contract.
type Searcher interface {
	Search(ctx context.Context, query string, top int, semantic bool) ([]string, error)
}

// MetadataSearcher is the optional capability of returning passages with
// source metadata. Callers type-assert for it and fall back to Searcher.
type MetadataSearcher interface {
	Searcher
	SearchWithMetadata(ctx context.Context, query string, top int, semantic bool) ([]Passage, error)
}

// AsMetadataSearcher returns s as a MetadataSearcher, wrapping plain
// searchers in an adapter that degrades passages to bare content. This is
// the documented fallback for providers without metadata support.
func AsMetadataSearcher(s Searcher) MetadataSearcher {
	if ms, ok := s.(MetadataSearcher); ok {
		return ms
	}
	return &contentOnlyAdapter{inner: s}
}

type contentOnlyAdapter struct {
	inner Searcher
}

func (a *contentOnlyAdapter) Search(ctx context.Context, query string, top int, semantic bool) ([]string, error) {
	return a.inner.Search(ctx, query, top, semantic)
}

func (a *contentOnlyAdapter) SearchWithMetadata(ctx context.Context, query string, top int, semantic bool) ([]Passage, error) {
	texts, err := a.inner.Search(ctx, query, top, semantic)
	if err != nil {
		return nil, err
	}
	passages := make([]Passage, 0, len(texts))
	for _, t := range texts {
		passages = append(passages, Passage{Content: t})
	}
	return passages, nil
}
