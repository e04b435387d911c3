// Package http serves the agent's health and stats endpoints.
package http

import (
	"encoding/json"
	"fmt"
	"log"
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/solrelay/internal/config"
	"github.com/example/solrelay/internal/ports/primary"
)

// Server exposes the agent over HTTP for liveness probes and
// operational inspection. It never mutates state.
type Server struct {
	agent  primary.AgentService
	cfg    *config.Config
	router chi.Router
}

// NewServer creates a new health server.
func NewServer(agent primary.AgentService, cfg *config.Config) *Server {
	s := &Server{agent: agent, cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	s.router = r

	return s
}

// Start listens on the configured port. Blocks until the listener
// fails; run it in its own goroutine.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.HealthPort)
	log.Printf("health server listening on %s", addr)
	return nethttp.ListenAndServe(addr, s.router)
}

// Handler returns the underlying router, for tests.
func (s *Server) Handler() nethttp.Handler {
	return s.router
}

type healthResponse struct {
	Status     string     `json:"status"`
	Agent      string     `json:"agent"`
	LoopCount  int        `json:"loop_count"`
	LastLoopAt *time.Time `json:"last_loop_at,omitempty"`
	IsRunning  bool       `json:"is_running"`
	Config     struct {
		PollIntervalMS int64 `json:"poll_interval_ms"`
		DryRun         bool  `json:"dry_run"`
		ReclaimEnabled bool  `json:"reclaim_enabled"`
	} `json:"config"`
}

func (s *Server) handleHealth(w nethttp.ResponseWriter, r *nethttp.Request) {
	status, err := s.agent.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := healthResponse{
		Status:    "ok",
		Agent:     "autonomous",
		LoopCount: status.LoopCount,
		IsRunning: status.Running,
	}
	if !status.LastLoopAt.IsZero() {
		t := status.LastLoopAt
		resp.LastLoopAt = &t
	}
	resp.Config.PollIntervalMS = s.cfg.PollInterval.Milliseconds()
	resp.Config.DryRun = s.cfg.DryRun
	resp.Config.ReclaimEnabled = s.cfg.ReclaimEnabled

	writeJSON(w, resp)
}

type statsResponse struct {
	LoopCount  int        `json:"loop_count"`
	LastLoopAt *time.Time `json:"last_loop_at,omitempty"`
	IsRunning  bool       `json:"is_running"`
	Queue      struct {
		PendingMissions  int `json:"pending_missions"`
		RunningMissions  int `json:"running_missions"`
		PendingEmails    int `json:"pending_emails"`
		PendingTransfers int `json:"pending_transfers"`
	} `json:"queue"`
	Today struct {
		Reminders int `json:"reminders"`
	} `json:"today"`
	LastTick *primary.TickResult `json:"last_tick,omitempty"`
}

func (s *Server) handleStats(w nethttp.ResponseWriter, r *nethttp.Request) {
	status, err := s.agent.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := statsResponse{
		LoopCount: status.LoopCount,
		IsRunning: status.Running,
		LastTick:  status.LastTick,
	}
	if !status.LastLoopAt.IsZero() {
		t := status.LastLoopAt
		resp.LastLoopAt = &t
	}
	resp.Queue.PendingMissions = status.PendingMissions
	resp.Queue.RunningMissions = status.RunningMissions
	resp.Queue.PendingEmails = status.PendingEmails
	resp.Queue.PendingTransfers = status.PendingTransfers
	resp.Today.Reminders = status.RemindersToday

	writeJSON(w, resp)
}

func writeJSON(w nethttp.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w nethttp.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(nethttp.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
