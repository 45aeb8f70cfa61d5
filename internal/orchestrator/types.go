package orchestrator

import "context"

// Tool name strings reported in the evidence envelope.
const (
	ToolNameSQL    = "fabric_sql"
	ToolNameSearch = "ai_search"
	ToolNameGraph  = "graph"
)

// Request is the tagged union of the two accepted request shapes. Dispatch
// happens in a type switch, never by runtime field sniffing.
type Request interface {
	isRequest()
}

// FreeTextQuery carries a natural-language question through classification.
type FreeTextQuery struct {
	Text string
}

func (FreeTextQuery) isRequest() {}

// StructuredQuery names a template and its parameters directly, bypassing
// classification and parameter inference. Parameters are forwarded as given
// (subject to the registry's textual-presence filter).
type StructuredQuery struct {
	Template string
	Params   map[string]interface{}
}

func (StructuredQuery) isRequest() {}

// Citation is the discriminated evidence variant. Exactly one concrete type
// exists per backend.
type Citation interface {
	isCitation()
}

// TableCitation cites the SQL template an answer came from.
type TableCitation struct {
	Source     string                 `json:"source"`
	Template   string                 `json:"template"`
	Parameters map[string]interface{} `json:"parameters"`
	Views      []string               `json:"views,omitempty"`
}

func (TableCitation) isCitation() {}

// PassageCitation cites one ranked document passage.
type PassageCitation struct {
	Rank     int    `json:"rank"`
	Excerpt  string `json:"excerpt"`
	File     string `json:"file,omitempty"`
	Page     int    `json:"page,omitempty"`
	ClauseID string `json:"clauseId,omitempty"`
}

func (PassageCitation) isCitation() {}

// GraphCitation cites a directory lookup.
type GraphCitation struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

func (GraphCitation) isCitation() {}

// EvidenceEnvelope is the only externally observable output of the core:
// one backend's answer plus its provenance, built once per request.
type EvidenceEnvelope struct {
	Tool           string                   `json:"tool"`
	Result         interface{}              `json:"result"`
	Citations      []Citation               `json:"citations"`
	SampleRows     []map[string]interface{} `json:"sampleRows,omitempty"`
	PowerBILink    string                   `json:"powerBiLink,omitempty"`
	Truncated      bool                     `json:"truncated"`
	ResultTotal    int                      `json:"resultTotal"`
	ResultReturned int                      `json:"resultReturned"`
}

// TemplateBinder resolves a named template and applies the statement
// guardrails, returning the statement text and the surviving parameters.
// *templates.Registry is the production implementation.
type TemplateBinder interface {
	Bind(name string, rawParams map[string]interface{}) (string, map[string]interface{}, error)
}

// SQLExecutor runs a bound, guardrail-approved statement.
type SQLExecutor interface {
	RunParameterized(ctx context.Context, sqlText string, params map[string]interface{}) ([]map[string]interface{}, error)
}

// DirectoryLookup searches the directory service. Implementations never
// return an error; failures are an empty slice.
type DirectoryLookup interface {
	Lookup(ctx context.Context, query string) []string
}

// DeepLinker builds a BI report link for the filters of an answered SQL
// query, or "" when links are not configured.
type DeepLinker interface {
	Deeplink(filters map[string]string, expressions []string) string
}
