package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/history"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/renamer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// StatsSource provides the watch-mode counters.
type StatsSource interface {
	Stats() renamer.WatchStats
}

// HistorySource lists recorded rename sessions.
type HistorySource interface {
	RecentSessions(limit int) ([]history.Session, error)
}

type Server struct {
	httpServer *http.Server
	stats      StatsSource
	history    HistorySource
	watching   func() []string
	startTime  time.Time
	mu         sync.RWMutex
	healthy    bool
	logger     *logging.Logger
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
	Watching  []string  `json:"watching,omitempty"`
}

type StatsResponse struct {
	renamer.WatchStats
	UptimeSeconds float64 `json:"uptime_seconds"`
}

type SessionResponse struct {
	ID           int64      `json:"id"`
	BaseDir      string     `json:"base_dir"`
	SeriesName   string     `json:"series_name"`
	OutputFormat string     `json:"output_format"`
	StartedAt    time.Time  `json:"started_at"`
	UndoneAt     *time.Time `json:"undone_at,omitempty"`
	Renames      int        `json:"renames"`
}

// NewServer builds the status server. hist may be nil when history is
// disabled; watching may be nil.
func NewServer(stats StatsSource, hist HistorySource, watching func() []string, addr string, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		stats:     stats,
		history:   hist,
		watching:  watching,
		startTime: time.Now(),
		healthy:   true,
		logger:    logger,
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// read-only endpoints, open to dashboards on any origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))
		r.Get("/stats", s.handleStats)
		r.Get("/history", s.handleHistory)
	})

	return r
}

func (s *Server) Start() error {
	s.logger.Info("server", "Health server starting", logging.F("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("health server error: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = healthy
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	healthy := s.healthy
	s.mu.RUnlock()

	response := HealthResponse{
		Status:    "healthy",
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
	}
	if s.watching != nil {
		response.Watching = s.watching()
	}

	status := http.StatusOK
	if !healthy {
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, status, response)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	response := StatsResponse{UptimeSeconds: time.Since(s.startTime).Seconds()}
	if s.stats != nil {
		response.WatchStats = s.stats.Stats()
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history_disabled", "rename history is disabled")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	sessions, err := s.history.RecentSessions(limit)
	if err != nil {
		s.logger.Error("server", "history query failed", err)
		writeError(w, http.StatusInternalServerError, "history_error", err.Error())
		return
	}

	response := make([]SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		response = append(response, SessionResponse{
			ID:           sess.ID,
			BaseDir:      sess.BaseDir,
			SeriesName:   sess.SeriesName,
			OutputFormat: sess.OutputFormat,
			StartedAt:    sess.StartedAt,
			UndoneAt:     sess.UndoneAt,
			Renames:      sess.RenameCount,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}
