package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gmgolfo/sales-analyst/internal/model"
	"github.com/gmgolfo/sales-analyst/internal/report"
	"github.com/gmgolfo/sales-analyst/internal/scoring"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve enriched leads and scores as JSON",
	Long: `Runs the enrichment pipeline and serves the result over HTTP for
dashboard consumers. POST /api/refresh re-runs the pipeline against the
API; until then responses come from the in-memory result of the last
run.`,
	RunE: runServe,
}

func init() {
	addDataFlags(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resultSet is the immutable product of one pipeline run. Refresh swaps
// the whole value; handlers only ever read a consistent set.
type resultSet struct {
	Leads       []model.EnrichedLead
	Scores      []scoring.LeadScore
	Summary     report.Summary
	RefreshedAt time.Time
}

type server struct {
	mu      sync.RWMutex
	current resultSet
	engine  *scoring.Engine
	refresh func() ([]model.EnrichedLead, time.Time, error)
}

func (s *server) load() resultSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *server) doRefresh() error {
	leads, now, err := s.refresh()
	if err != nil {
		return err
	}
	rs := resultSet{
		Leads:       leads,
		Scores:      s.engine.Score(leads),
		Summary:     report.Summarize(leads),
		RefreshedAt: now,
	}
	s.mu.Lock()
	s.current = rs
	s.mu.Unlock()
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &server{
		engine: scoring.NewEngine(cfg.Scoring),
		refresh: func() ([]model.EnrichedLead, time.Time, error) {
			return runEnrichment(ctx, cmd)
		},
	}
	if err := srv.doRefresh(); err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/leads", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, srv.load().Leads)
	})
	r.Get("/api/leads/scores", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, srv.load().Scores)
	})
	r.Get("/api/summary", func(w http.ResponseWriter, _ *http.Request) {
		rs := srv.load()
		writeJSON(w, http.StatusOK, map[string]any{
			"refreshed_at": rs.RefreshedAt,
			"summary":      rs.Summary,
		})
	})
	r.Post("/api/refresh", func(w http.ResponseWriter, _ *http.Request) {
		if err := srv.doRefresh(); err != nil {
			zap.L().Error("serve: refresh failed", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "refresh failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"leads": len(srv.load().Leads)})
	})

	port := servePort
	if port == 0 {
		port = cfg.Server.Port
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("serve: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("serve: listening", zap.Int("port", port), zap.Int("leads", len(srv.load().Leads)))
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "serve: listen")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
