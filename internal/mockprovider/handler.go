// Package mockprovider is a stand-in SMS relay for local development.
package mockprovider

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const maxBodyBytes = 1 << 20

type response struct {
	OK       bool   `json:"ok"`
	Provider string `json:"provider"`
	Received any    `json:"received"`
	TS       string `json:"ts"`
}

// Handler accepts any POST and echoes the payload back.
func Handler() http.Handler {
	return handler{now: time.Now}
}

type handler struct {
	now func() time.Time
}

func (h handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "Use POST"})
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		slog.Warn("mock provider: read body", "error", err)
	}

	var received any = string(raw)
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		received = parsed
	}

	slog.Info("mock provider: message received", "bytes", len(raw))
	writeJSON(w, http.StatusOK, response{
		OK:       true,
		Provider: "firebase-mock",
		Received: received,
		TS:       h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
