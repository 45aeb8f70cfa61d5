// Package orchestrator runs the query pipeline: classify, extract, bind,
// execute, cap, cite. Each request touches exactly one backend and always
// yields a uniform evidence envelope.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"agent-gateway/internal/cache"
	gwerrors "agent-gateway/internal/common/errors"
	"agent-gateway/internal/common/logger"
	"agent-gateway/internal/common/metrics"
	"agent-gateway/internal/extract"
	"agent-gateway/internal/router"
	"agent-gateway/internal/search"
	"agent-gateway/internal/templates"
)

const (
	// ragTop is the passage count requested from document search; anything
	// beyond it is discarded before row capping.
	ragTop = 5

	// maxPassageCitations and maxSampleRows bound citation payload size.
	maxPassageCitations = 5
	maxSampleRows       = 3
	maxExcerptLen       = 200

	// defaultWindowDays backs the trailing window used when a numeric query
	// names no calendar range at all.
	defaultWindowDays = 90
)

// Options tunes pipeline behavior independent of backend wiring.
type Options struct {
	// MaxRows caps every result list in the envelope.
	MaxRows int

	// Semantic toggles semantic ranking on document search.
	Semantic bool

	// DateColumn is the "Table/Column" the report deep link ranges over.
	DateColumn string
}

// Orchestrator owns the per-request pipeline. All backends are interfaces;
// nil deeplink and nil cache simply disable those steps.
type Orchestrator struct {
	registry TemplateBinder
	sql      SQLExecutor
	docs     search.Searcher
	dir      DirectoryLookup
	deeplink DeepLinker
	cache    *cache.ResultCache
	opts     Options
	logger   logger.Logger
	now      func() time.Time
}

// New wires the pipeline. registry, sqlExec, docs and dir must be non-nil.
func New(registry TemplateBinder, sqlExec SQLExecutor, docs search.Searcher, dir DirectoryLookup, deeplink DeepLinker, resultCache *cache.ResultCache, opts Options, log logger.Logger) *Orchestrator {
	if opts.MaxRows <= 0 {
		opts.MaxRows = 50
	}
	return &Orchestrator{
		registry: registry,
		sql:      sqlExec,
		docs:     docs,
		dir:      dir,
		deeplink: deeplink,
		cache:    resultCache,
		opts:     opts,
		logger:   log.With(map[string]interface{}{"component": "orchestrator"}),
		now:      time.Now,
	}
}

// Handle answers one request. Guardrail and configuration failures surface
// as *gwerrors.StandardError before any backend is contacted; transient
// backend failures propagate after retries are exhausted.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (*EvidenceEnvelope, error) {
	start := time.Now()

	env, err := o.dispatch(ctx, req)
	if err != nil {
		code := "INTERNAL"
		if std, ok := gwerrors.AsStandard(err); ok {
			code = string(std.Code)
		}
		metrics.GatewayQueriesRejected.WithLabelValues(code).Inc()
		return nil, err
	}

	metrics.GatewayQueriesTotal.WithLabelValues(env.Tool).Inc()
	metrics.GatewayQueryDuration.WithLabelValues(env.Tool).Observe(time.Since(start).Seconds())
	return env, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, req Request) (*EvidenceEnvelope, error) {
	switch r := req.(type) {
	case StructuredQuery:
		// Named template, caller-supplied parameters, no inference.
		return o.handleSQL(ctx, "", r.Template, r.Params, false)
	case FreeTextQuery:
		decision := router.Classify(r.Text)
		o.logger.Info("classified query", map[string]interface{}{
			"tool":     string(decision.Tool),
			"template": decision.Name,
		})
		switch decision.Tool {
		case router.ToolSQL:
			return o.handleSQL(ctx, r.Text, decision.Name, decision.Params, true)
		case router.ToolGraph:
			return o.handleGraph(ctx, r.Text)
		default:
			return o.handleRAG(ctx, r.Text)
		}
	default:
		return nil, gwerrors.NewInvalidRequestError(fmt.Sprintf("unsupported request type %T", req))
	}
}

// handleSQL binds and runs one template. infer controls parameter inference
// from text; the structured path passes false so caller parameters survive
// untouched apart from the registry's presence filter.
func (o *Orchestrator) handleSQL(ctx context.Context, text, name string, params map[string]interface{}, infer bool) (*EvidenceEnvelope, error) {
	merged := make(map[string]interface{}, len(params)+4)
	for k, v := range params {
		merged[k] = v
	}
	if infer {
		o.inferParams(text, merged)
	}

	sqlText, bound, err := o.registry.Bind(name, merged)
	if err != nil {
		return nil, err
	}

	key := cache.Key(name, bound)
	rows, hit := o.cache.Get(ctx, key)
	if !hit {
		rows, err = o.sql.RunParameterized(ctx, sqlText, bound)
		if err != nil {
			return nil, err
		}
		o.cache.Set(ctx, key, rows)
	}

	capped, total, returned, truncated := capRows(rows, o.opts.MaxRows)
	if truncated {
		metrics.ResultsTruncated.WithLabelValues(ToolNameSQL).Inc()
	}

	env := &EvidenceEnvelope{
		Tool:   ToolNameSQL,
		Result: capped,
		Citations: []Citation{TableCitation{
			Source:     "fabric",
			Template:   name,
			Parameters: bound,
			Views:      templates.ReferencedViews(sqlText),
		}},
		SampleRows:     sampleRows(capped),
		Truncated:      truncated,
		ResultTotal:    total,
		ResultReturned: returned,
	}

	if o.deeplink != nil {
		env.PowerBILink = o.deeplink.Deeplink(o.linkFilters(bound), o.linkExpressions(bound))
	}
	return env, nil
}

func (o *Orchestrator) handleRAG(ctx context.Context, text string) (*EvidenceEnvelope, error) {
	meta := search.AsMetadataSearcher(o.docs)
	passages, err := meta.SearchWithMetadata(ctx, text, ragTop, o.opts.Semantic)
	if err != nil {
		return nil, err
	}
	if len(passages) > ragTop {
		passages = passages[:ragTop]
	}

	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, p.Content)
	}

	capped, total, returned, truncated := capStrings(texts, o.opts.MaxRows)
	if truncated {
		metrics.ResultsTruncated.WithLabelValues(ToolNameSearch).Inc()
	}

	citations := make([]Citation, 0, maxPassageCitations)
	for i, p := range passages {
		if i == maxPassageCitations {
			break
		}
		citations = append(citations, PassageCitation{
			Rank:     i + 1,
			Excerpt:  excerpt(p.Content),
			File:     p.File,
			Page:     p.Page,
			ClauseID: p.ClauseID,
		})
	}

	return &EvidenceEnvelope{
		Tool:           ToolNameSearch,
		Result:         capped,
		Citations:      citations,
		Truncated:      truncated,
		ResultTotal:    total,
		ResultReturned: returned,
	}, nil
}

func (o *Orchestrator) handleGraph(ctx context.Context, text string) (*EvidenceEnvelope, error) {
	results := o.dir.Lookup(ctx, text)

	capped, total, returned, truncated := capStrings(results, o.opts.MaxRows)
	if truncated {
		metrics.ResultsTruncated.WithLabelValues(ToolNameGraph).Inc()
	}

	return &EvidenceEnvelope{
		Tool:           ToolNameGraph,
		Result:         capped,
		Citations:      []Citation{GraphCitation{Query: text, Count: total}},
		Truncated:      truncated,
		ResultTotal:    total,
		ResultReturned: returned,
	}, nil
}

// inferParams fills @from/@to from calendar phrasing, falling back to the
// trailing default window, and pulls carrier, sku and service-level filters
// out of the text. Existing keys are never overwritten.
func (o *Orchestrator) inferParams(text string, params map[string]interface{}) {
	_, hasFrom := params["@from"]
	_, hasTo := params["@to"]
	if !hasFrom || !hasTo {
		r, ok := extract.TimeRange(text, o.now())
		if !ok {
			now := o.now()
			r = extract.DateRange{
				From: now.AddDate(0, 0, -defaultWindowDays).Format("2006-01-02"),
				To:   now.Format("2006-01-02"),
			}
		}
		if !hasFrom {
			params["@from"] = r.From
		}
		if !hasTo {
			params["@to"] = r.To
		}
	}

	// "service level" must be tried before the bare "service" so the level
	// token itself is not mistaken for the value. Both service keys require
	// an explicit separator: grouping phrases like "by service level last
	// quarter" contain the key without naming a value, and the bare-word form
	// would bind whatever word follows.
	for _, f := range []struct {
		key, param string
		assigned   bool
	}{
		{"carrier", "@carrier", false},
		{"sku", "@sku", false},
		{"service level", "@service", true},
		{"service", "@service", true},
	} {
		if _, ok := params[f.param]; ok {
			continue
		}
		var v string
		if f.assigned {
			v = extract.AssignedValue(text, f.key)
		} else {
			v = extract.Value(text, f.key)
		}
		if v != "" {
			params[f.param] = v
		}
	}
}

// linkFilters maps bound equality parameters onto report columns.
func (o *Orchestrator) linkFilters(bound map[string]interface{}) map[string]string {
	filters := make(map[string]string)
	for param, col := range map[string]string{
		"@carrier": "vw_Variance/Carrier",
		"@service": "vw_Variance/ServiceLevel",
		"@sku":     "vw_Variance/SKU",
	} {
		if v, ok := bound[param]; ok {
			filters[col] = fmt.Sprintf("%v", v)
		}
	}
	return filters
}

// linkExpressions turns the bound date window into range clauses over the
// configured date column.
func (o *Orchestrator) linkExpressions(bound map[string]interface{}) []string {
	if o.opts.DateColumn == "" {
		return nil
	}
	var exprs []string
	if v, ok := bound["@from"]; ok {
		exprs = append(exprs, fmt.Sprintf("%s ge '%v'", o.opts.DateColumn, v))
	}
	if v, ok := bound["@to"]; ok {
		exprs = append(exprs, fmt.Sprintf("%s le '%v'", o.opts.DateColumn, v))
	}
	return exprs
}

func capRows(rows []map[string]interface{}, max int) ([]map[string]interface{}, int, int, bool) {
	total := len(rows)
	if total <= max {
		return rows, total, total, false
	}
	return rows[:max], total, max, true
}

func capStrings(items []string, max int) ([]string, int, int, bool) {
	total := len(items)
	if total <= max {
		return items, total, total, false
	}
	return items[:max], total, max, true
}

func sampleRows(rows []map[string]interface{}) []map[string]interface{} {
	if len(rows) <= maxSampleRows {
		return rows
	}
	return rows[:maxSampleRows]
}

// excerpt truncates on rune boundaries so multi-byte contract text is never
// cut mid-character.
func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= maxExcerptLen {
		return s
	}
	return string(runes[:maxExcerptLen])
}
