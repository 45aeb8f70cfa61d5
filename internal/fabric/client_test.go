package fabric

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-gateway/internal/common/config"
	gwerrors "agent-gateway/internal/common/errors"
	"agent-gateway/internal/common/logger"
)

func TestRunParameterizedHTTP(t *testing.T) {
	var gotPath string
	var gotAuth string
	var gotPayload struct {
		Query      string `json:"query"`
		Parameters []struct {
			Name  string      `json:"name"`
			Value interface{} `json:"value"`
		} `json:"parameters"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"rows": []map[string]interface{}{
				{"carrier": "Acme", "variance": 120.5},
			},
		})
	}))
	defer srv.Close()

	c, err := New(config.FabricConfig{
		Endpoint: srv.URL,
		Token:    "tok",
		SQLMode:  ModeHTTP,
	}, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer c.Close()

	rows, err := c.RunParameterized(context.Background(),
		"SELECT * FROM vw_Variance WHERE ShipDate BETWEEN @from AND @to",
		map[string]interface{}{"@from": "2025-01-01", "@to": "2025-03-31"})
	require.NoError(t, err)

	assert.Equal(t, "/sql", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0]["carrier"])

	// parameters follow textual order, not map order
	require.Len(t, gotPayload.Parameters, 2)
	assert.Equal(t, "@from", gotPayload.Parameters[0].Name)
	assert.Equal(t, "@to", gotPayload.Parameters[1].Name)
}

func TestRunParameterizedHTTPBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := New(config.FabricConfig{Endpoint: srv.URL, SQLMode: ModeHTTP}, logger.NewTestLogger(t))
	require.NoError(t, err)

	_, err = c.RunParameterized(context.Background(), "SELECT 1 FROM vw_Variance", nil)
	require.Error(t, err)

	std, ok := gwerrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, gwerrors.ErrCodeSQLBackendUnavailable, std.Code)
	assert.True(t, std.Retryable)
}

func TestRunParameterizedDirect(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT \* FROM vw_Variance WHERE ShipDate BETWEEN \$1 AND \$2`).
		WithArgs("2025-01-01", "2025-03-31").
		WillReturnRows(sqlmock.NewRows([]string{"carrier", "variance"}).
			AddRow("Acme", 120.5).
			AddRow("Zephyr", 88.0))

	c := NewWithDB(db, logger.NewTestLogger(t))

	rows, err := c.RunParameterized(context.Background(),
		"SELECT * FROM vw_Variance WHERE ShipDate BETWEEN @from AND @to",
		map[string]interface{}{"@from": "2025-01-01", "@to": "2025-03-31"})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Acme", rows[0]["carrier"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRewritePlaceholders(t *testing.T) {
	stmt, args := rewritePlaceholders(
		"SELECT * FROM vw_Variance WHERE (@carrier IS NULL OR Carrier = @carrier) AND ShipDate >= @from",
		map[string]interface{}{"@carrier": "Acme", "@from": "2025-01-01"})

	assert.Equal(t, "SELECT * FROM vw_Variance WHERE ($1 IS NULL OR Carrier = $2) AND ShipDate >= $3", stmt)
	assert.Equal(t, []interface{}{"Acme", "Acme", "2025-01-01"}, args)
}

func TestOrderedParamNames(t *testing.T) {
	names := orderedParamNames("WHERE a = @to AND b = @from AND c = @to")
	assert.Equal(t, []string{"@to", "@from"}, names)
}
