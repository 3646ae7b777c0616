package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"agendapro/internal/alerts"
	"agendapro/internal/assist"
	"agendapro/internal/config"
	appLog "agendapro/internal/log"
	"agendapro/internal/store"
)

// Server provides the HTTP JSON API: event CRUD, agenda range queries,
// alert listing/dismissal, the assistant conversation, and the iCalendar
// feed.
type Server struct {
	cfg    *config.Config
	store  *store.Store
	alerts *alerts.Store
	loc    *time.Location
	now    func() time.Time
	mux    *http.ServeMux

	// One assistant conversation per party, created lazily. sessionMu
	// guards only the map; each Session synchronizes its own state.
	sessionMu sync.Mutex
	sessions  map[string]*assist.Session
}

// Option configures a Server.
type Option func(*Server)

// WithClock replaces the wall clock, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, st *store.Store, al *alerts.Store, loc *time.Location, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		alerts:   al,
		loc:      loc,
		now:      time.Now,
		mux:      http.NewServeMux(),
		sessions: make(map[string]*assist.Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	s.mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	s.mux.HandleFunc("PATCH /api/events/{id}", s.handlePatchEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)

	s.mux.HandleFunc("GET /api/agenda", s.handleAgenda)

	s.mux.HandleFunc("GET /api/alerts", s.handleListAlerts)
	s.mux.HandleFunc("DELETE /api/alerts/{id}", s.handleDismissAlert)

	s.mux.HandleFunc("POST /api/assistant/{party}", s.handleAssistantMessage)
	s.mux.HandleFunc("POST /api/assistant/{party}/confirm", s.handleAssistantConfirm)
	s.mux.HandleFunc("POST /api/assistant/{party}/cancel", s.handleAssistantCancel)

	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendarFeed)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// session returns the assistant conversation for a party, creating it on
// first contact.
func (s *Server) session(party string) *assist.Session {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	sess, ok := s.sessions[party]
	if !ok {
		sess = assist.NewSession(s.cfg.DefaultHour)
		s.sessions[party] = sess
	}
	return sess
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password is treated as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health is always exposed unauthenticated.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="AgendaPro", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
