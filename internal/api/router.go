package api

import (
	"net/http"

	"github.com/rs/cors"
)

// Router wires the HTTP surface. allowOrigin configures CORS; "" means "*".
func Router(h *Handler, allowOrigin string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /graphiql", h.GraphiQL)

	mux.HandleFunc("OPTIONS /graphql", h.Preflight)
	mux.HandleFunc("POST /graphql", h.GraphQL)

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}

	mux.HandleFunc("/", h.NotFound)

	if allowOrigin == "" {
		allowOrigin = "*"
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{allowOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	})

	return RequestLogger(c.Handler(mux))
}
