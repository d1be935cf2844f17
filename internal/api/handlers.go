/*
Package api
File: handlers.go
Description:

	Contains the HTTP handlers for the REST API and the router that mounts
	them next to the WebSocket endpoint.

	Key Responsibilities:
	- Serving the store catalog and the loadouts from the live rules.
	- Reporting lobby state, read through the hub loop rather than a lock.
	- Liveness.
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/everforgeworks/domefall/internal/game"
)

// Response DTOs.

type CatalogResponse struct {
	Offensive []game.Item `json:"offensive"`
	Defensive []game.Item `json:"defensive"`
}

type DomeTypeResponse struct {
	game.DomeType
	Stats   game.LoadoutStats `json:"stats"`
	Default bool              `json:"default"`
}

// Handlers serves the REST surface.
type Handlers struct {
	hub *Hub
	log zerolog.Logger
}

func NewHandlers(hub *Hub, log zerolog.Logger) *Handlers {
	return &Handlers{hub: hub, log: log.With().Str("component", "http").Logger()}
}

// Router mounts every endpoint behind the CORS middleware.
func (h *Handlers) Router() http.Handler {
	mux := http.NewServeMux()

	// Information endpoints
	mux.HandleFunc("GET /api/catalog", h.HandleGetCatalog)
	mux.HandleFunc("GET /api/domes", h.HandleGetDomes)
	mux.HandleFunc("GET /api/lobby", h.HandleGetLobby)
	mux.HandleFunc("GET /healthz", h.HandleHealth)

	// Real-time endpoint
	mux.HandleFunc("/ws", h.hub.ServeWs)

	return corsMiddleware(mux)
}

// HandleGetCatalog returns the store items grouped by slot.
func (h *Handlers) HandleGetCatalog(w http.ResponseWriter, r *http.Request) {
	rules := h.hub.Coordinator().Rules()
	h.writeJSON(w, http.StatusOK, CatalogResponse{
		Offensive: nonNil(rules.ItemsByCategory(game.Offensive)),
		Defensive: nonNil(rules.ItemsByCategory(game.Defensive)),
	})
}

// HandleGetDomes returns the loadouts with their effective stats.
func (h *Handlers) HandleGetDomes(w http.ResponseWriter, r *http.Request) {
	rules := h.hub.Coordinator().Rules()
	out := make([]DomeTypeResponse, 0, len(rules.DomeTypes))
	for _, dt := range rules.DomeTypes {
		out = append(out, DomeTypeResponse{
			DomeType: dt,
			Stats:    rules.Stats(dt),
			Default:  dt.ID == rules.DefaultDome,
		})
	}
	h.writeJSON(w, http.StatusOK, out)
}

// HandleGetLobby returns queue sizes and the live room count.
func (h *Handlers) HandleGetLobby(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	st, err := h.hub.Status(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("lobby status")
		http.Error(w, "Lobby Unavailable", http.StatusServiceUnavailable)
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Debug().Err(err).Msg("write response")
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// corsMiddleware lets browser clients on other origins reach the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
