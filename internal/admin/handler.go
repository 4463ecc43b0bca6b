package admin

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bvandewe/tools-provider-sub014/internal/circuitbreaker"
)

const fallbackActor = "admin-api"

// Handler exposes the circuit breaker admin surface: state listing, a
// token-exchange health summary and manual resets.
type Handler struct {
	logger     *slog.Logger
	registry   *circuitbreaker.Registry
	authSecret []byte // empty disables bearer-token identity extraction
}

func NewHandler(logger *slog.Logger, registry *circuitbreaker.Registry, authSecret string) *Handler {
	return &Handler{
		logger:     logger,
		registry:   registry,
		authSecret: []byte(authSecret),
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/circuit-breakers", h.listBreakers)
	mux.HandleFunc("GET /api/admin/health/token-exchange", h.tokenExchangeHealth)
	mux.HandleFunc("POST /api/admin/circuit-breakers/reset", h.resetBreakers)
}

type breakerStatus struct {
	State           circuitbreaker.State `json:"state"`
	FailureCount    int                  `json:"failure_count"`
	LastFailureTime *time.Time           `json:"last_failure_time"`
}

func statusOf(snap circuitbreaker.Snapshot) breakerStatus {
	return breakerStatus{
		State:           snap.State,
		FailureCount:    snap.FailureCount,
		LastFailureTime: snap.LastFailureTime,
	}
}

type listResponse struct {
	TokenExchange *breakerStatus           `json:"token_exchange"`
	ToolExecution map[string]breakerStatus `json:"tool_execution"`
}

func (h *Handler) listBreakers(w http.ResponseWriter, r *http.Request) {
	resp := listResponse{ToolExecution: make(map[string]breakerStatus)}

	for _, entry := range h.registry.ListAll() {
		switch entry.Identity.Type {
		case circuitbreaker.TypeTokenExchange:
			status := statusOf(entry.Snapshot)
			resp.TokenExchange = &status
		case circuitbreaker.TypeToolExecution:
			resp.ToolExecution[entry.Identity.SourceID] = statusOf(entry.Snapshot)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status          string               `json:"status"`
	State           circuitbreaker.State `json:"state"`
	FailureCount    int                  `json:"failure_count"`
	LastFailureTime *time.Time           `json:"last_failure_time"`
}

func (h *Handler) tokenExchangeHealth(w http.ResponseWriter, r *http.Request) {
	// A breaker that was never created has seen no traffic and therefore
	// no failures: report it as a healthy closed circuit.
	snap := h.registry.Get(circuitbreaker.TokenExchange()).GetState()

	resp := healthResponse{
		Status:          "healthy",
		State:           snap.State,
		FailureCount:    snap.FailureCount,
		LastFailureTime: snap.LastFailureTime,
	}

	code := http.StatusOK
	switch snap.State {
	case circuitbreaker.StateOpen:
		resp.Status = "unavailable"
		code = http.StatusServiceUnavailable
	case circuitbreaker.StateHalfOpen:
		resp.Status = "degraded"
	}

	writeJSON(w, code, resp)
}

type resetRequest struct {
	Type string `json:"type"`
	Key  string `json:"key,omitempty"`
}

type resetResponse struct {
	Success bool     `json:"success"`
	Reset   []string `json:"reset"`
}

func (h *Handler) resetBreakers(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := h.actingIdentity(r)

	var reset []string
	switch req.Type {
	case string(circuitbreaker.TypeTokenExchange):
		key := circuitbreaker.TokenExchange().Key()
		if err := h.registry.Reset(key, actor); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		reset = append(reset, key)

	case string(circuitbreaker.TypeToolExecution):
		if req.Key == "" {
			writeError(w, http.StatusBadRequest, "key is required for tool_execution resets")
			return
		}
		if req.Key == "all" {
			reset = h.registry.ResetType(circuitbreaker.TypeToolExecution, actor)
			break
		}
		key := circuitbreaker.ToolExecution(req.Key).Key()
		if err := h.registry.Reset(key, actor); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		reset = append(reset, key)

	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown circuit type %q", req.Type))
		return
	}

	h.logger.Info("circuit breakers reset",
		slog.String("closed_by", actor),
		slog.Any("reset", reset))

	if reset == nil {
		reset = []string{}
	}
	writeJSON(w, http.StatusOK, resetResponse{Success: true, Reset: reset})
}

// actingIdentity resolves who triggered a manual reset, for the closed_by
// audit field. A valid bearer token's subject wins; the X-Admin-User
// header is the fallback for deployments without admin tokens.
func (h *Handler) actingIdentity(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); len(h.authSecret) > 0 && strings.HasPrefix(auth, "Bearer ") {
		raw := strings.TrimPrefix(auth, "Bearer ")
		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return h.authSecret, nil
		})
		if err == nil && token.Valid && claims.Subject != "" {
			return claims.Subject
		}
		h.logger.Warn("ignoring invalid admin bearer token", slog.Any("err", err))
	}

	if user := r.Header.Get("X-Admin-User"); user != "" {
		return user
	}
	return fallbackActor
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"success": false, "error": msg})
}
