package powerbi

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-gateway/internal/common/config"
)

func testBuilder(t *testing.T) *Builder {
	b := NewBuilder(config.PowerBIConfig{WorkspaceID: "ws-1", ReportID: "rep-1"})
	require.NotNil(t, b)
	return b
}

func TestNewBuilderRequiresBothIDs(t *testing.T) {
	assert.Nil(t, NewBuilder(config.PowerBIConfig{}))
	assert.Nil(t, NewBuilder(config.PowerBIConfig{WorkspaceID: "ws-1"}))
	assert.Nil(t, NewBuilder(config.PowerBIConfig{ReportID: "rep-1"}))
}

func TestNilBuilderProducesNoLink(t *testing.T) {
	var b *Builder
	assert.Equal(t, "", b.Deeplink(map[string]string{"vw_Variance/Carrier": "Acme"}, nil))
}

func TestDeeplinkBaseOnly(t *testing.T) {
	b := testBuilder(t)
	assert.Equal(t,
		"https://app.powerbi.com/groups/ws-1/reports/rep-1/ReportSection",
		b.Deeplink(nil, nil))
}

func TestDeeplinkFilters(t *testing.T) {
	b := testBuilder(t)

	link := b.Deeplink(
		map[string]string{
			"vw_Variance/Carrier":      "Acme",
			"vw_Variance/ServiceLevel": "2Day",
		},
		[]string{
			"vw_Variance/ShipDate ge '2025-01-01'",
			"vw_Variance/ShipDate le '2025-03-31'",
		},
	)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://app.powerbi.com/groups/ws-1/reports/rep-1/ReportSection?"))

	filter := u.Query().Get("filter")
	assert.Equal(t,
		"vw_Variance/ShipDate ge '2025-01-01' and vw_Variance/ShipDate le '2025-03-31' and vw_Variance/Carrier eq 'Acme' and vw_Variance/ServiceLevel eq '2Day'",
		filter)
}

func TestDeeplinkSkipsEmptyExpressions(t *testing.T) {
	b := testBuilder(t)

	link := b.Deeplink(map[string]string{"vw_Variance/Carrier": "Acme"}, []string{""})
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "vw_Variance/Carrier eq 'Acme'", u.Query().Get("filter"))
}
