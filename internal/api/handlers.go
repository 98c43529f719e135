package api

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/LeventeLantos/sms-faas/internal/gql"
	"github.com/LeventeLantos/sms-faas/internal/metrics"
)

const maxBodyBytes = 1 << 20

//go:embed graphiql.html
var graphiqlPage []byte

type Handler struct {
	schema      graphql.Schema
	serviceName string
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewHandler serves schema over HTTP. m may be nil.
func NewHandler(schema graphql.Schema, serviceName string, m *metrics.Metrics) *Handler {
	return &Handler{
		schema:      schema,
		serviceName: serviceName,
		metrics:     m,
		now:         time.Now,
	}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"service": h.serviceName, "status": "ok"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   h.serviceName,
		"timestamp": h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (h *Handler) GraphiQL(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(graphiqlPage)
}

func (h *Handler) Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error": fmt.Sprintf("Not found: %s %s", r.Method, r.URL.Path),
	})
}

func (h *Handler) GraphQL(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusInternalServerError

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("graphql request panicked", "panic", rec)
			status = http.StatusInternalServerError
			writeJSON(w, status, gql.ErrorResult(fmt.Sprint(rec)))
		}
		h.observe(status, time.Since(start))
	}()

	var req gql.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(&req)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
		writeJSON(w, status, gql.ErrorResult("request entity too large"))
		return
	}
	if err != nil || req.Query == "" {
		status = http.StatusBadRequest
		writeJSON(w, status, gql.ErrorResult("Body must be JSON with {query, variables?}"))
		return
	}

	var res *graphql.Result
	status, res = gql.Execute(r.Context(), h.schema, req)
	if status != http.StatusOK {
		slog.Debug("graphql request failed", "status", status, "errors", len(res.Errors))
	}
	writeJSON(w, status, res)
}

func (h *Handler) observe(status int, d time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.GraphQLRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	h.metrics.GraphQLDuration.Observe(d.Seconds())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
