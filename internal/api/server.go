// Package api provides the HTTP API over the dream director.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/engine"
	"github.com/talgya/dreamsim/internal/journal"
)

const (
	maxSSEConns    = 8
	sseBuffer      = 256
	heartbeatEvery = 15 * time.Second
	maxBodyBytes   = 64 << 10
)

// SessionStore reads finished session snapshots. persistence.DB satisfies it.
type SessionStore interface {
	LoadSession(ctx context.Context, id string) (*dream.Session, error)
	SessionEvents(ctx context.Context, id string) ([]dream.Event, error)
}

// Server serves the director over HTTP.
type Server struct {
	Director    *engine.Director
	Sessions    SessionStore // optional; enables /sessions/{id}
	Port        int
	AdminKey    string // Bearer token for POST endpoints. Empty = POST disabled.
	CORSOrigins []string

	// Active SSE connection count (atomic).
	sseConns int32
	log      *slog.Logger
}

// Handler builds the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	if s.log == nil {
		s.log = slog.Default().With(slog.String("component", "api"))
	}
	sessionLimiter := NewRateLimiter(30, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/session", s.handleSession)
	mux.HandleFunc("GET /api/v1/report", s.handleReport)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)
	mux.HandleFunc("GET /api/v1/journal", s.handleJournal)
	mux.HandleFunc("GET /api/v1/patterns", s.handlePatterns)
	mux.HandleFunc("GET /api/v1/symbol/{term}", s.handleSymbol)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleStoredSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}/events", s.handleStoredEvents)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("POST /api/v1/session", s.adminOnly(RateLimitMiddleware(sessionLimiter, s.handleConfigure)))
	mux.HandleFunc("POST /api/v1/session/{action}", s.adminOnly(s.handleLifecycle))

	return corsMiddleware(s.CORSOrigins, mux)
}

// Start begins serving the HTTP API in a goroutine. The returned server
// can be shut down by the caller.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Last-Event-ID")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no DREAMSIM_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Director.Status()
	writeJSON(w, map[string]any{
		"name":   "dreamsim",
		"clock":  engine.Clock(st.Elapsed) + " / " + engine.Clock(st.Duration),
		"status": st,
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.Director.Snapshot()
	if !ok {
		http.Error(w, "no session configured", http.StatusNotFound)
		return
	}
	writeJSON(w, sess)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.Director.Report()
	if !ok {
		http.Error(w, "no completed session", http.StatusNotFound)
		return
	}
	writeJSON(w, rep)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	since, err := parseSeq(r.URL.Query().Get("since"))
	if err != nil {
		http.Error(w, "since must be a non-negative integer", http.StatusBadRequest)
		return
	}
	events := s.Director.EventsSince(since)
	if events == nil {
		events = []dream.Event{}
	}
	writeJSON(w, events)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit := journal.DefaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	entries, err := s.Director.JournalEntries(r.Context(), limit)
	if err != nil {
		s.log.Error("journal read failed", "error", err)
		http.Error(w, "journal unavailable", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []dream.JournalEntry{}
	}
	writeJSON(w, entries)
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	profile, err := s.Director.DreamPatterns(r.Context())
	if err != nil {
		s.log.Error("pattern tracking failed", "error", err)
		http.Error(w, "patterns unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, profile)
}

func (s *Server) handleSymbol(w http.ResponseWriter, r *http.Request) {
	term := r.PathValue("term")
	meaning, ok := s.Director.SymbolMeaning(term)
	if !ok {
		http.Error(w, "unknown symbol", http.StatusNotFound)
		return
	}
	resp := map[string]any{"term": term, "meaning": meaning}
	if in, ok := s.Director.Interpretation(term); ok {
		resp["interpretation"] = in
	}
	writeJSON(w, resp)
}

func (s *Server) handleStoredSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if sess, ok := s.Director.Snapshot(); ok && sess.ID == id {
		writeJSON(w, sess)
		return
	}
	if s.Sessions == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	sess, err := s.Sessions.LoadSession(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("session load failed", "session", id, "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, sess)
}

func (s *Server) handleStoredEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if sess, ok := s.Director.Snapshot(); ok && sess.ID == id {
		writeJSON(w, sess.Events())
		return
	}
	if s.Sessions == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	if _, err := s.Sessions.LoadSession(r.Context(), id); err != nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	events, err := s.Sessions.SessionEvents(r.Context(), id)
	if err != nil {
		s.log.Error("session events failed", "session", id, "error", err)
		http.Error(w, "events unavailable", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []dream.Event{}
	}
	writeJSON(w, events)
}

// sessionRequest is a dream configuration plus an optional autostart.
type sessionRequest struct {
	dream.Config
	Start bool `json:"start"`
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	req := sessionRequest{Config: dream.DefaultConfig()}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	sess, err := s.Director.Configure(req.Config)
	switch {
	case errors.Is(err, engine.ErrSessionActive):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, dream.ErrInvalidConfig):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		s.log.Error("configure failed", "error", err)
		http.Error(w, "configure failed", http.StatusInternalServerError)
		return
	}
	if req.Start {
		s.Director.Start()
		if snap, ok := s.Director.Snapshot(); ok {
			sess = snap
		}
	}

	writeJSONStatus(w, http.StatusCreated, sess)
}

func (s *Server) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	var call func() bool
	action := r.PathValue("action")
	switch action {
	case "start":
		call = s.Director.Start
	case "pause":
		call = s.Director.Pause
	case "resume":
		call = s.Director.Resume
	case "stop":
		call = s.Director.Stop
	default:
		http.Error(w, "unknown action (use: start, pause, resume, stop)", http.StatusNotFound)
		return
	}

	ok := call()
	code := http.StatusOK
	if !ok {
		code = http.StatusConflict
	}
	writeJSONStatus(w, code, map[string]any{"action": action, "ok": ok, "state": s.Director.Status().State})
}

// handleStream provides an SSE endpoint for real-time event streaming.
// Clients resume with ?since=N or Last-Event-ID. The stream ends after the
// current session finishes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	since := r.URL.Query().Get("since")
	if since == "" {
		since = r.Header.Get("Last-Event-ID")
	}
	last, err := parseSeq(since)
	if err != nil {
		http.Error(w, "since must be a non-negative integer", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Connection limit.
	current := atomic.AddInt32(&s.sseConns, 1)
	if current > maxSSEConns {
		atomic.AddInt32(&s.sseConns, -1)
		http.Error(w, "too many SSE connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.sseConns, -1)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Subscribe before catch-up so nothing falls between the two.
	ch := make(chan dream.Event, sseBuffer)
	unsubscribe := s.Director.Subscribe(func(e dream.Event) {
		select {
		case ch <- e:
		default:
		}
	})
	defer unsubscribe()

	send := func(e dream.Event) {
		if e.Seq <= last {
			return
		}
		writeSSEEvent(w, e)
		last = e.Seq
	}
	catchUp := func() {
		for _, e := range s.Director.EventsSince(last) {
			send(e)
		}
		flusher.Flush()
	}
	catchUp()

	done := s.Director.Done()
	heartbeat := time.NewTicker(heartbeatEvery)
	defer heartbeat.Stop()

	for {
		select {
		case e := <-ch:
			if e.Seq > last+1 {
				// dropped on a full buffer
				catchUp()
				continue
			}
			send(e)
			flusher.Flush()
		case <-done:
			catchUp()
			st := s.Director.Status()
			fmt.Fprintf(w, "event: end\ndata: {\"session_id\":%q,\"state\":%q}\n\n", st.SessionID, st.State)
			flusher.Flush()
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// writeSSEEvent writes a single event in SSE format.
func writeSSEEvent(w http.ResponseWriter, e dream.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.Seq, e.Type, data)
}

func parseSeq(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
