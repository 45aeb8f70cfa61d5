package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyScenarios(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantTool Tool
		wantName string
	}{
		{"variance goes to sql", "Which carriers overbilled us last quarter?", ToolSQL, "variance_summary"},
		{"total goes to sql", "What is the total variance by carrier?", ToolSQL, "variance_summary"},
		{"service level template", "Show variance by service level for Acme", ToolSQL, "variance_by_service"},
		{"on-time template", "What was our on-time rate last month?", ToolSQL, "on_time_rate"},
		{"sla wording", "What is the delivery rate against SLA?", ToolSQL, "on_time_rate"},
		{"fuel trend template", "What is the total fuel surcharge trend this year?", ToolSQL, "fuel_surcharge_series"},
		{"fuel wording without numbers is rag", "Show the fuel surcharge clause", ToolRAG, DefaultRAGIntent},
		{"sku trend template", "How much did variance for sku 812 change over time?", ToolSQL, "sku_variance_trend"},
		{"email goes to graph", "Find the email from the Acme rep about detention fees", ToolGraph, "lookup"},
		{"sharepoint goes to graph", "Is the signed addendum in sharepoint?", ToolGraph, "lookup"},
		{"clause lookup defaults to rag", "What does clause 7.4 say about fuel surcharges?", ToolRAG, DefaultRAGIntent},
		{"empty query defaults to rag", "", ToolRAG, DefaultRAGIntent},
		{"mixed case still matches", "TOTAL Overbill THIS QUARTER", ToolSQL, "variance_summary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Classify(tt.query)
			assert.Equal(t, tt.wantTool, d.Tool)
			assert.Equal(t, tt.wantName, d.Name)
			assert.NotNil(t, d.Params)
		})
	}
}

// Numeric wording outranks directory wording; a query naming both an amount
// and a mailbox is still answered from the warehouse.
func TestClassifyRuleOrder(t *testing.T) {
	d := Classify("How much did we pay according to the email from Acme?")
	assert.Equal(t, ToolSQL, d.Tool)

	assert.Equal(t, "numeric-sql", Rules[0].Name)
	assert.Equal(t, "directory-graph", Rules[1].Name)
	assert.Equal(t, "default-rag", Rules[2].Name)
}

func TestClassifyIsDeterministic(t *testing.T) {
	q := "variance by service level last quarter"
	first := Classify(q)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(q))
	}
}
