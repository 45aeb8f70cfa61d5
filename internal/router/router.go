// Package router decides which backend answers a natural-language question.
// Classification is a deterministic walk over an ordered keyword rule table;
// the table itself is part of the contract and is asserted by tests. No
// scoring, no learning, so every routing decision is auditable.
package router

import "strings"

// Tool identifies a backend.
type Tool string

const (
	ToolSQL   Tool = "sql"
	ToolRAG   Tool = "rag"
	ToolGraph Tool = "graph"
)

// DefaultRAGIntent is the intent name used when no rule matches.
const DefaultRAGIntent = "contract_lookup"

// ToolDecision is the classifier output: which backend plus, for SQL, which
// registered template. Produced fresh per request and never persisted.
type ToolDecision struct {
	Tool   Tool
	Name   string
	Params map[string]interface{}
}

// Rule pairs a predicate with the decision it produces. Rules are evaluated
// in slice order; the first match wins.
type Rule struct {
	Name   string
	Match  func(q string) bool
	Decide func(q string) ToolDecision
}

var numericKeywords = []string{
	"variance", "overbill", "sum ", "count ", "rate ", "how much", "total",
}

var graphKeywords = []string{
	"email from", "calendar on", "file named", "in sharepoint", "from user ",
}

// Rules is the ordered classification table. Order matters: numeric intent
// outranks directory intent, which outranks the document-search default.
var Rules = []Rule{
	{
		Name:   "numeric-sql",
		Match:  func(q string) bool { return containsAny(q, numericKeywords) },
		Decide: decideSQL,
	},
	{
		Name:  "directory-graph",
		Match: func(q string) bool { return containsAny(q, graphKeywords) },
		Decide: func(q string) ToolDecision {
			return ToolDecision{Tool: ToolGraph, Name: "lookup", Params: map[string]interface{}{}}
		},
	},
	{
		Name:  "default-rag",
		Match: func(q string) bool { return true },
		Decide: func(q string) ToolDecision {
			return ToolDecision{Tool: ToolRAG, Name: DefaultRAGIntent, Params: map[string]interface{}{}}
		},
	},
}

// Classify maps free text to a ToolDecision. Empty or whitespace-only input
// falls through to the document-search default rather than erroring.
func Classify(query string) ToolDecision {
	q := strings.ToLower(query)
	for _, rule := range Rules {
		if rule.Match(q) {
			return rule.Decide(q)
		}
	}
	// Unreachable while the last rule is a catch-all.
	return ToolDecision{Tool: ToolRAG, Name: DefaultRAGIntent, Params: map[string]interface{}{}}
}

// decideSQL picks the template from secondary wording. The general summary is
// the fallback when nothing more specific is named.
func decideSQL(q string) ToolDecision {
	name := templateFor(q)
	return ToolDecision{Tool: ToolSQL, Name: name, Params: map[string]interface{}{}}
}

func templateFor(q string) string {
	switch {
	case containsAny(q, []string{"service level", "by service", "per service"}):
		return "variance_by_service"
	case containsAny(q, []string{"on-time", "on time", "sla"}):
		return "on_time_rate"
	case containsAny(q, []string{"trend", "over time"}) && containsAny(q, []string{"fuel", "surcharge"}):
		return "fuel_surcharge_series"
	case containsAny(q, []string{"trend", "over time"}) && strings.Contains(q, "sku"):
		return "sku_variance_trend"
	default:
		return "variance_summary"
	}
}

func containsAny(q string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}
