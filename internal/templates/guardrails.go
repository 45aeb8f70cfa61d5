package templates

import (
	"regexp"
	"strings"

	gwerrors "agent-gateway/internal/common/errors"
)

// deniedPrefixes are named in rejection details; the policy itself is strict
// allow-only, so anything that is not a vw_ view is refused either way.
var deniedPrefixes = []string{"dbo.", "sys.", "information_schema."}

var (
	firstKeywordRe = regexp.MustCompile(`^([A-Za-z]+)`)
	paramTokenRe   = regexp.MustCompile(`@\w+`)

	// The keyword must not be preceded by @ or a word character, so the
	// placeholder @from is never read as a FROM clause. Go's regexp has no
	// lookbehind; the one-character prefix alternative stands in for it.
	fromJoinRe = regexp.MustCompile(`(?i)(?:^|[^@\w])(?:FROM|JOIN)\s+([A-Za-z_][\w.]*)`)
)

// Bind resolves a template and filters its parameters. It returns the
// statement text verbatim together with only those rawParams whose keys
// appear textually in the statement. Guardrails run on every bind, before
// any network call.
func (r *Registry) Bind(name string, rawParams map[string]interface{}) (string, map[string]interface{}, error) {
	text, ok := r.statements[name]
	if !ok {
		return "", nil, gwerrors.NewUnknownTemplateError(name)
	}

	if err := EnsureReadOnly(text); err != nil {
		return "", nil, err
	}
	if err := EnsureViewOnly(text); err != nil {
		return "", nil, err
	}

	return text, FilterParams(text, rawParams), nil
}

// EnsureReadOnly rejects any statement whose first non-comment keyword is not
// SELECT or WITH.
func EnsureReadOnly(text string) error {
	s := stripLeadingComments(text)
	m := firstKeywordRe.FindString(s)
	kw := strings.ToLower(m)
	if kw != "select" && kw != "with" {
		return gwerrors.NewReadOnlyViolationError(firstLine(s))
	}
	return nil
}

// EnsureViewOnly rejects any FROM/JOIN identifier outside the curated vw_
// surface. Identifiers may be schema-qualified; the final segment must carry
// the vw_ prefix.
func EnsureViewOnly(text string) error {
	for _, m := range fromJoinRe.FindAllStringSubmatch(text, -1) {
		ident := m[1]
		if isCuratedView(ident) {
			continue
		}
		return gwerrors.NewTableAccessDeniedError(ident)
	}
	return nil
}

// FilterParams keeps only parameters whose placeholder token occurs in the
// statement. Filters extracted for one template never leak into another.
func FilterParams(text string, rawParams map[string]interface{}) map[string]interface{} {
	present := make(map[string]bool)
	for _, tok := range paramTokenRe.FindAllString(text, -1) {
		present[tok] = true
	}

	bound := make(map[string]interface{})
	for key, val := range rawParams {
		if present[key] {
			bound[key] = val
		}
	}
	return bound
}

// ReferencedViews returns the view names in FROM/JOIN clauses, in order of
// first appearance. Best effort, used for citations only.
func ReferencedViews(text string) []string {
	seen := make(map[string]bool)
	var views []string
	for _, m := range fromJoinRe.FindAllStringSubmatch(text, -1) {
		ident := m[1]
		if seen[ident] {
			continue
		}
		seen[ident] = true
		views = append(views, ident)
	}
	return views
}

func isCuratedView(ident string) bool {
	lower := strings.ToLower(ident)
	for _, p := range deniedPrefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	last := lower
	if i := strings.LastIndex(lower, "."); i >= 0 {
		last = lower[i+1:]
	}
	return strings.HasPrefix(last, "vw_")
}

func stripLeadingComments(text string) string {
	s := strings.TrimSpace(text)
	for {
		switch {
		case strings.HasPrefix(s, "/*"):
			end := strings.Index(s, "*/")
			if end == -1 {
				return ""
			}
			s = strings.TrimSpace(s[end+2:])
		case strings.HasPrefix(s, "--"):
			nl := strings.Index(s, "\n")
			if nl == -1 {
				return ""
			}
			s = strings.TrimSpace(s[nl+1:])
		default:
			return s
		}
	}
}

func firstLine(s string) string {
	if i := strings.Index(s, "\n"); i >= 0 {
		return s[:i]
	}
	return s
}
