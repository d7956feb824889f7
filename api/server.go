// Package api provides the HTTP server for NewsPulse.
//
// It exposes the company report endpoints, the aggregation endpoints over
// raw article records, a WebSocket progress stream and the embedded
// dashboard.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/seenimoa/newspulse/internal/analysis/aggregate"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/logger"
	"github.com/seenimoa/newspulse/internal/report"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
	"github.com/seenimoa/newspulse/web"
)

// ReportBuilder produces a report for a company.
type ReportBuilder interface {
	Build(ctx context.Context, company string) (*models.Report, error)
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	builder  ReportBuilder
	hub      *WSHub
	audioDir string
	version  string
	log      logrus.FieldLogger
}

// Option configures a Server.
type Option func(*Server)

// WithHub shares a hub with the report builder's observer.
func WithHub(h *WSHub) Option {
	return func(s *Server) { s.hub = h }
}

// WithLogger sets the server logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) { s.log = log }
}

// WithVersion is reported by the health endpoints.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, builder ReportBuilder, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		builder:  builder,
		audioDir: cfg.Audio.OutputDir,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrDiscard(s.log)
	if s.hub == nil {
		s.hub = NewWSHub(s.log)
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.hub
}

// ListenAndServe runs the HTTP server and the hub until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.cfg.API.RequestTimeout() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// Reports
	r.Route("/report/{company_name}", func(r chi.Router) {
		r.Get("/", s.handleReport)
		r.Get("/html", s.handleReportHTML)
		r.Get("/pdf", s.handleReportPDF)
	})

	r.Get("/audio/{file}", s.handleAudio)
	r.Get("/ws", s.handleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/sentiment/distribution", s.handleDistribution)
		r.Post("/topics/overlap", s.handleOverlap)
		r.Get("/config/keys", s.handleConfigKeys)
	})

	if s.cfg.API.ServeUI {
		mountSPA(r, web.StaticFS())
	}

	return r
}

// requestLogger logs one line per request with logrus.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).Round(time.Millisecond).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("request")
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the JSON envelope of the /api/v1 endpoints.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorDetail is the body of a failed report request.
type ErrorDetail struct {
	Detail string `json:"detail"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	WSClients int    `json:"ws_clients"`
	Time      string `json:"time"`
}

// ReportComplete is broadcast after a report is built.
type ReportComplete struct {
	Company                string              `json:"company"`
	Articles               int                 `json:"articles"`
	SentimentScore         models.Distribution `json:"sentiment_score"`
	FinalSentimentAnalysis string              `json:"final_sentiment_analysis"`
	Degraded               bool                `json:"degraded"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   s.version,
		WSClients: s.hub.ClientCount(),
		Time:      time.Now().UTC().Format(time.RFC3339),
	})
}

// buildReport runs the pipeline bounded by the request timeout and writes
// the error response itself when it fails.
func (s *Server) buildReport(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	company := chi.URLParam(r, "company_name")

	ctx := r.Context()
	if d := s.cfg.API.RequestTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	rep, err := s.builder.Build(ctx, company)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, report.ErrEmptyCompany) {
			status = http.StatusBadRequest
		}
		s.log.WithError(err).WithField("company", company).Error("report failed")
		writeJSON(w, status, ErrorDetail{Detail: err.Error()})
		return nil, false
	}

	s.hub.Broadcast(WSMessage{Type: EventReportComplete, Data: ReportComplete{
		Company:                rep.Company,
		Articles:               len(rep.Articles),
		SentimentScore:         rep.SentimentScore,
		FinalSentimentAnalysis: rep.FinalSentimentAnalysis,
		Degraded:               len(rep.Diagnostics) > 0,
	}})
	return rep, true
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if rep, ok := s.buildReport(w, r); ok {
		writeJSON(w, http.StatusOK, rep)
	}
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.buildReport(w, r)
	if !ok {
		return
	}
	html, err := report.RenderHTML(rep)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorDetail{Detail: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.buildReport(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.RenderPDF(rep, &buf); err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorDetail{Detail: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-report.pdf"`, reportSlug(rep.Company)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleAudio serves one MP3 from the audio directory. Only base names are
// accepted.
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".mp3") {
		writeJSON(w, http.StatusNotFound, ErrorDetail{Detail: "audio file not found"})
		return
	}
	path := filepath.Join(s.audioDir, name)
	if _, err := os.Stat(path); err != nil {
		writeJSON(w, http.StatusNotFound, ErrorDetail{Detail: "audio file not found"})
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	records, ok := decodeRecords(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    aggregate.DistributionFromRecords(records, s.log),
	})
}

func (s *Server) handleOverlap(w http.ResponseWriter, r *http.Request) {
	records, ok := decodeRecords(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    aggregate.OverlapFromRecords(records, s.log),
	})
}

func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}

// ============================================================
// Helpers
// ============================================================

// maxRecordsBody bounds the aggregation request bodies.
const maxRecordsBody = 4 << 20

// decodeRecords reads a JSON array of loosely typed article records.
func decodeRecords(w http.ResponseWriter, r *http.Request) ([]any, bool) {
	var records []any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecordsBody))
	if err := dec.Decode(&records); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON array of records: "+err.Error())
		return nil, false
	}
	if records == nil {
		records = []any{}
	}
	return records, true
}

func reportSlug(company string) string {
	if slug := utils.Slugify(company); slug != "" {
		return slug
	}
	return "company"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// mountSPA serves the embedded dashboard, falling back to index.html for
// unknown paths.
func mountSPA(r chi.Router, static fs.FS) {
	fileServer := http.FileServerFS(static)
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		name := strings.TrimPrefix(req.URL.Path, "/")
		if name == "" {
			serveIndexHTML(w, static)
			return
		}
		if f, err := static.Open(name); err == nil {
			f.Close()
			fileServer.ServeHTTP(w, req)
			return
		}
		serveIndexHTML(w, static)
	})
}

func serveIndexHTML(w http.ResponseWriter, static fs.FS) {
	data, err := fs.ReadFile(static, "index.html")
	if err != nil {
		http.Error(w, "dashboard not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}
