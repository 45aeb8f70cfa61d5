// Package powerbi builds report deep links carrying the filters of an
// answered SQL query. Pure string construction; no network calls.
package powerbi

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"agent-gateway/internal/common/config"
)

// Builder constructs report links for one workspace/report pair.
type Builder struct {
	workspaceID string
	reportID    string
}

// NewBuilder returns nil when the deep-link settings are absent; a nil
// Builder produces no links.
func NewBuilder(cfg config.PowerBIConfig) *Builder {
	if cfg.WorkspaceID == "" || cfg.ReportID == "" {
		return nil
	}
	return &Builder{workspaceID: cfg.WorkspaceID, reportID: cfg.ReportID}
}

// Deeplink builds a report URL filtered to the given values. Filters map
// "Table/Column" to an equality value; expressions are raw filter clauses
// (date ranges) placed ahead of the equality filters. Returns "" when the
// builder is nil.
func (b *Builder) Deeplink(filters map[string]string, expressions []string) string {
	if b == nil {
		return ""
	}

	base := fmt.Sprintf("https://app.powerbi.com/groups/%s/reports/%s/ReportSection", b.workspaceID, b.reportID)

	var exprs []string
	for _, e := range expressions {
		if e != "" {
			exprs = append(exprs, e)
		}
	}

	cols := make([]string, 0, len(filters))
	for col := range filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		exprs = append(exprs, fmt.Sprintf("%s eq '%s'", col, filters[col]))
	}

	if len(exprs) == 0 {
		return base
	}

	q := url.Values{}
	q.Set("filter", strings.Join(exprs, " and "))
	return base + "?" + q.Encode()
}
