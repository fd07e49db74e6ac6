// Package dashboard serves the monitor's presentation surface: a JSON API
// over the latest classified snapshot plus a small embedded web UI. It is a
// consumer of the refresh loop's output, not part of the core cycle.
package dashboard

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ndz_monitor/internal/classify"
	"ndz_monitor/internal/geofence"
	"ndz_monitor/internal/querycache"
)

//go:embed static/*
var staticFiles embed.FS

// Server holds the latest snapshot published by the monitor and serves it
// over HTTP.
type Server struct {
	zone  geofence.Zone
	cache *querycache.Cache // for demand refresh
	port  int

	mu   sync.RWMutex
	snap *classify.Snapshot
}

// NewServer creates a dashboard server. cache may be nil, in which case the
// refresh endpoint is a no-op.
func NewServer(zone geofence.Zone, cache *querycache.Cache, port int) *Server {
	return &Server{zone: zone, cache: cache, port: port}
}

// Publish stores the latest snapshot. Implements monitor.Sink.
func (s *Server) Publish(snap classify.Snapshot) error {
	s.mu.Lock()
	s.snap = &snap
	s.mu.Unlock()
	return nil
}

// Run starts the HTTP server and blocks.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Dashboard starting at http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Router())
}

// Router returns the configured chi router, split out for tests.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/pilots", s.handlePilots)
		r.Get("/drones", s.handleDrones)
		r.Get("/positions", s.handlePositions)
		r.Post("/refresh", s.handleRefresh)
	})

	staticFS, err := fs.Sub(staticFiles, "static")
	if err == nil {
		r.Handle("/*", http.FileServer(http.FS(staticFS)))
	}

	return r
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// latest returns the current snapshot, or nil before the first cycle.
func (s *Server) latest() *classify.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap := s.latest()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePilots(w http.ResponseWriter, _ *http.Request) {
	snap := s.latest()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"generated_at": snap.GeneratedAt,
		"pilots":       snap.Pilots,
	})
}

func (s *Server) handleDrones(w http.ResponseWriter, _ *http.Request) {
	snap := s.latest()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"generated_at": snap.GeneratedAt,
		"counts":       snap.Counts,
		"drones":       snap.Drones,
	})
}

func (s *Server) handlePositions(w http.ResponseWriter, _ *http.Request) {
	snap := s.latest()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"generated_at": snap.GeneratedAt,
		"zone": map[string]float64{
			"center_x": s.zone.CenterX,
			"center_y": s.zone.CenterY,
			"radius":   s.zone.Radius,
		},
		"positions": snap.Positions,
	})
}

// handleRefresh invalidates the query cache so the next cycle refetches
// from the store. The snapshot itself still updates on the loop's schedule.
func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	if s.cache != nil {
		s.cache.Invalidate()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cache invalidated"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
