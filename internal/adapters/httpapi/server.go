// Package httpapi expone el sync por HTTP: un disparador, una vista previa
// del scrape y un health check.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/application/reconcile"
	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Syncer es lo que el servidor necesita del engine.
type Syncer interface {
	Run(ctx context.Context) (domain.RunSummary, error)
	Preview(ctx context.Context) (reconcile.Preview, error)
}

// Server sirve el disparador del sync. Solo hay una ejecución en curso a la vez.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	syncer  Syncer
	journal ports.Journal
	log     *slog.Logger

	running sync.Mutex
}

// New crea el servidor. journal puede ser nil.
func New(addr string, syncer Syncer, journal ports.Journal, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		router:  chi.NewRouter(),
		syncer:  syncer,
		journal: journal,
		log:     log.With("component", "httpapi"),
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(s.loggingMiddleware)
	s.routes()

	// un sync completo tarda minutos: sin WriteTimeout
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/update-eic-data", s.handleUpdate)
		r.Get("/scrape-preview", s.handlePreview)
		r.Get("/runs", s.handleRuns)
	})
}

// Handler devuelve el router (tests).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start bloquea hasta que el servidor se cierra.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown espera a las peticiones en curso.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.running.TryLock() {
		writeError(w, http.StatusConflict, "a sync is already running")
		return
	}
	defer s.running.Unlock()

	// si el cliente se desconecta, el sync termina igualmente
	summary, err := s.syncer.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		s.log.Error("sync failed", "run_id", summary.RunID, "err", err)
		writeJSON(w, http.StatusInternalServerError, newRunResponse(summary))
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(summary))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	p, err := s.syncer.Preview(r.Context())
	if err != nil {
		s.log.Error("scrape preview failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newPreviewResponse(p))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "run journal is disabled")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.journal.Runs(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]runRecordResponse, 0, len(runs))
	for _, rec := range runs {
		out = append(out, runRecordResponse{
			RunID:      rec.RunID,
			StartedAt:  rec.StartedAt,
			FinishedAt: rec.FinishedAt,
			Status:     string(rec.Status),
			Error:      rec.Error,
			Writes:     rec.Writes,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
