// Package fabric executes read-only SQL against the warehouse endpoint.
//
// Two modes are supported:
//   - http (default): posts to an API facade at {endpoint}/sql, which keeps
//     tests simple and lets deployments proxy the warehouse.
//   - direct: executes against the SQL endpoint through database/sql with
//     parameter binding.
package fabric

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	_ "github.com/lib/pq"

	"agent-gateway/internal/common/config"
	gwerrors "agent-gateway/internal/common/errors"
	"agent-gateway/internal/common/logger"
	"agent-gateway/internal/httpclient"
)

const (
	ModeHTTP   = "http"
	ModeDirect = "direct"
)

var paramTokenRe = regexp.MustCompile(`@\w+`)

// Client runs parameterized statements against the warehouse.
type Client struct {
	endpoint string
	token    string
	mode     string
	db       *sql.DB
	http     *httpclient.Client
	logger   logger.Logger
}

// New builds a client from configuration. Direct mode opens the database
// handle eagerly so a bad DSN fails at startup.
func New(cfg config.FabricConfig, log logger.Logger) (*Client, error) {
	c := &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		token:    cfg.Token,
		mode:     cfg.SQLMode,
		http:     httpclient.New(cfg.GetTimeout(), log, "fabric"),
		logger:   log.With(map[string]interface{}{"component": "fabric"}),
	}

	if cfg.SQLMode == ModeDirect {
		db, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open warehouse connection: %w", err)
		}
		c.db = db
	}

	return c, nil
}

// NewWithDB builds a direct-mode client over an existing handle. Used by
// tests and by callers that manage pooling themselves.
func NewWithDB(db *sql.DB, log logger.Logger) *Client {
	return &Client{
		mode:   ModeDirect,
		db:     db,
		logger: log.With(map[string]interface{}{"component": "fabric"}),
	}
}

// Close releases the direct-mode database handle.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// RunParameterized executes a parameterized statement and returns rows as
// maps. Parameters use @name placeholders; the statement text is never
// interpolated.
func (c *Client) RunParameterized(ctx context.Context, sqlText string, params map[string]interface{}) ([]map[string]interface{}, error) {
	if c.mode == ModeDirect && c.db != nil {
		rows, err := c.runDirect(ctx, sqlText, params)
		if err != nil {
			return nil, gwerrors.NewSQLBackendUnavailableError(err)
		}
		return rows, nil
	}
	rows, err := c.runHTTP(ctx, sqlText, params)
	if err != nil {
		return nil, gwerrors.NewSQLBackendUnavailableError(err)
	}
	return rows, nil
}

func (c *Client) runHTTP(ctx context.Context, sqlText string, params map[string]interface{}) ([]map[string]interface{}, error) {
	type namedParam struct {
		Name  string      `json:"name"`
		Value interface{} `json:"value"`
	}

	payload := map[string]interface{}{"query": sqlText}
	if len(params) > 0 {
		named := make([]namedParam, 0, len(params))
		for _, tok := range orderedParamNames(sqlText) {
			if val, ok := params[tok]; ok {
				named = append(named, namedParam{Name: tok, Value: val})
			}
		}
		payload["parameters"] = named
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.token,
	}

	resp, err := c.http.PostJSON(ctx, c.endpoint+"/sql", headers, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("warehouse returned status %d", resp.StatusCode)
	}

	var body struct {
		Rows []map[string]interface{} `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode warehouse response: %w", err)
	}
	return body.Rows, nil
}

// runDirect rewrites @name placeholders to positional arguments in textual
// order and scans the result set generically.
func (c *Client) runDirect(ctx context.Context, sqlText string, params map[string]interface{}) ([]map[string]interface{}, error) {
	stmt, args := rewritePlaceholders(sqlText, params)

	rows, err := c.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// orderedParamNames lists @name tokens by first textual appearance.
func orderedParamNames(sqlText string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, tok := range paramTokenRe.FindAllString(sqlText, -1) {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		names = append(names, tok)
	}
	return names
}

// rewritePlaceholders replaces every @name occurrence with $n, repeating the
// bound value for repeated tokens so binding order always follows the text.
func rewritePlaceholders(sqlText string, params map[string]interface{}) (string, []interface{}) {
	var args []interface{}
	stmt := paramTokenRe.ReplaceAllStringFunc(sqlText, func(tok string) string {
		args = append(args, params[tok])
		return fmt.Sprintf("$%d", len(args))
	})
	return stmt, args
}
