// Package templates holds the approved, parameterized SQL statements the
// gateway may execute, plus the guardrails applied before any of them reach
// the warehouse. The registry is built once at startup and never mutated;
// changing the query surface requires a redeploy.
package templates

import (
	"fmt"
	"sort"
)

// Template names routable by the classifier.
const (
	VarianceSummary     = "variance_summary"
	VarianceByService   = "variance_by_service"
	OnTimeRate          = "on_time_rate"
	FuelSurchargeSeries = "fuel_surcharge_series"
	SKUVarianceTrend    = "sku_variance_trend"
)

var builtins = map[string]string{
	VarianceSummary: `
SELECT
  Carrier AS carrier,
  SUM(Variance) AS variance
FROM vw_Variance
WHERE ShipDate BETWEEN @from AND @to
GROUP BY Carrier
ORDER BY variance DESC
`,
	VarianceByService: `
SELECT
  ServiceLevel,
  SUM(Variance) AS variance
FROM vw_Variance
WHERE ShipDate BETWEEN @from AND @to
  AND (@carrier IS NULL OR Carrier = @carrier)
  AND (@service IS NULL OR ServiceLevel = @service)
GROUP BY ServiceLevel
ORDER BY variance DESC
`,
	OnTimeRate: `
SELECT
  CASE WHEN COUNT(*) = 0 THEN 0.0 ELSE
    CAST(SUM(CASE WHEN OnTime = 1 THEN 1 ELSE 0 END) AS FLOAT) / CAST(COUNT(*) AS FLOAT)
  END AS on_time_rate
FROM vw_FactShipment
WHERE ShipDate BETWEEN @from AND @to
  AND (@carrier IS NULL OR Carrier = @carrier)
`,
	FuelSurchargeSeries: `
SELECT
  EffectiveDate,
  Percent
FROM vw_FuelSurcharge
WHERE EffectiveDate BETWEEN @from AND @to
  AND (@carrier IS NULL OR Carrier = @carrier)
ORDER BY EffectiveDate
`,
	SKUVarianceTrend: `
SELECT
  ShipDate,
  SUM(Variance) AS variance
FROM vw_Variance
WHERE ShipDate BETWEEN @from AND @to
  AND (@sku IS NULL OR SKU = @sku)
GROUP BY ShipDate
ORDER BY ShipDate
`,
}

// Registry is an immutable name -> statement mapping. Construct it once at
// process start and inject it; concurrent reads need no synchronization.
type Registry struct {
	statements map[string]string
}

// NewRegistry returns a registry over the built-in template table. Every
// statement is vetted by the guardrails at construction so a bad template
// fails the process at startup rather than the first request.
func NewRegistry() (*Registry, error) {
	return newRegistry(builtins)
}

// NewRegistryWith merges extra statements over the built-ins, for deployments
// that ship site-specific curated views.
func NewRegistryWith(extra map[string]string) (*Registry, error) {
	merged := make(map[string]string, len(builtins)+len(extra))
	for name, text := range builtins {
		merged[name] = text
	}
	for name, text := range extra {
		merged[name] = text
	}
	return newRegistry(merged)
}

func newRegistry(statements map[string]string) (*Registry, error) {
	copied := make(map[string]string, len(statements))
	for name, text := range statements {
		if err := EnsureReadOnly(text); err != nil {
			return nil, fmt.Errorf("template %q: %w", name, err)
		}
		if err := EnsureViewOnly(text); err != nil {
			return nil, fmt.Errorf("template %q: %w", name, err)
		}
		copied[name] = text
	}
	return &Registry{statements: copied}, nil
}

// Names returns the registered template names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.statements))
	for name := range r.statements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Text returns the raw statement for a template.
func (r *Registry) Text(name string) (string, bool) {
	text, ok := r.statements[name]
	return text, ok
}
