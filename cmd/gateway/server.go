// cmd/gateway/server.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agent-gateway/internal/common/config"
	gwerrors "agent-gateway/internal/common/errors"
	"agent-gateway/internal/common/logger"
	"agent-gateway/internal/common/observability"
	"agent-gateway/internal/common/validation"
	"agent-gateway/internal/graph"
	"agent-gateway/internal/httpclient"
	"agent-gateway/internal/orchestrator"
)

const delegatedTokenHeader = "X-MS-Token-AAD-Access-Token"

// knownAgents are the persona routes the gateway answers for. The persona
// only scopes the URL today; all of them share one pipeline.
var knownAgents = map[string]bool{
	"domain":   true,
	"carrier":  true,
	"customer": true,
	"claims":   true,
}

type server struct {
	orch   *orchestrator.Orchestrator
	obs    *observability.Observability
	cfg    config.GatewayConfig
	logger logger.Logger
}

func newServer(orch *orchestrator.Orchestrator, obs *observability.Observability, cfg config.GatewayConfig, log logger.Logger) *server {
	return &server{
		orch:   orch,
		obs:    obs,
		cfg:    cfg,
		logger: log.With(map[string]interface{}{"component": "server"}),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/agents/{agent}/ask", func(w http.ResponseWriter, r *http.Request) {
		s.handleAsk(w, r, r.PathValue("agent"))
	})
	// persona-less alias served by the configured default agent
	mux.HandleFunc("POST /api/ask", func(w http.ResponseWriter, r *http.Request) {
		s.handleAsk(w, r, s.cfg.DefaultAgent)
	})
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

type askResponse struct {
	Agent         string `json:"agent"`
	CorrelationID string `json:"correlationId"`
	*orchestrator.EvidenceEnvelope
}

type errorResponse struct {
	Error *gwerrors.StandardError `json:"error"`
}

func (s *server) handleAsk(w http.ResponseWriter, r *http.Request, agent string) {
	start := time.Now()

	if !knownAgents[agent] {
		s.writeError(w, http.StatusNotFound, gwerrors.NewInvalidRequestError("unknown agent: "+agent))
		return
	}

	correlationID := r.Header.Get(httpclient.CorrelationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	w.Header().Set(httpclient.CorrelationHeader, correlationID)

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, gwerrors.NewInvalidRequestError("malformed JSON body"))
		return
	}
	if err := validation.ValidateAskRequest(body); err != nil {
		s.writeError(w, http.StatusBadRequest, gwerrors.NewInvalidRequestError(err.Error()))
		return
	}

	req := buildRequest(body)

	ctx, cancel := timeoutContext(r, s.cfg)
	defer cancel()
	ctx = httpclient.WithCorrelationID(ctx, correlationID)
	if tok := r.Header.Get(delegatedTokenHeader); tok != "" {
		ctx = graph.WithDelegatedToken(ctx, tok)
	}

	env, err := s.orch.Handle(ctx, req)
	if err != nil {
		s.obs.RecordQueryHandled(ctx, "", "error")
		std, ok := gwerrors.AsStandard(err)
		if !ok {
			std = gwerrors.NewInvalidRequestError(err.Error())
		}
		s.logger.Error("query failed", map[string]interface{}{
			"agent":         agent,
			"correlationId": correlationID,
			"code":          string(std.Code),
			"error":         std.Message,
		})
		s.writeError(w, gwerrors.HTTPStatus(err), std)
		return
	}

	s.obs.RecordQueryHandled(ctx, env.Tool, "ok")
	s.obs.RecordQueryDuration(ctx, time.Since(start), env.Tool)
	s.logger.Info("query answered", map[string]interface{}{
		"agent":         agent,
		"correlationId": correlationID,
		"tool":          env.Tool,
		"returned":      env.ResultReturned,
	})

	s.writeJSON(w, http.StatusOK, askResponse{
		Agent:            agent,
		CorrelationID:    correlationID,
		EvidenceEnvelope: env,
	})
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// buildRequest maps a validated body onto the request union. A template name
// wins over free text when both are present.
func buildRequest(body map[string]interface{}) orchestrator.Request {
	if tmpl, ok := body["template"].(string); ok && tmpl != "" {
		params, _ := body["parameters"].(map[string]interface{})
		return orchestrator.StructuredQuery{Template: tmpl, Params: params}
	}
	query, _ := body["query"].(string)
	return orchestrator.FreeTextQuery{Text: query}
}

func timeoutContext(r *http.Request, cfg config.GatewayConfig) (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(r.Context(), cfg.GetRequestTimeout())
}

func (s *server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encode failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, std *gwerrors.StandardError) {
	s.writeJSON(w, status, errorResponse{Error: std})
}
