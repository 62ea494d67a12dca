package main

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/unklstewy/plane-tracker/internal/metrics"
	"github.com/unklstewy/plane-tracker/internal/session"
	"github.com/unklstewy/plane-tracker/pkg/config"
	"github.com/unklstewy/plane-tracker/pkg/display"
	"github.com/unklstewy/plane-tracker/pkg/tracker"
)

//go:embed static
var staticFiles embed.FS

// Server holds the HTTP router and its dependencies.
type Server struct {
	router  *chi.Mux
	source  tracker.StateSource
	cfg     *config.Config
	metrics *metrics.Metrics
	logger  *slog.Logger
	started time.Time
}

// NewServer creates a server querying source and registers all routes.
func NewServer(cfg *config.Config, source tracker.StateSource, m *metrics.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		source:  source,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		started: time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(middleware.Compress(5))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/aircraft", s.handleGetAircraft)
		r.Get("/config", s.handleGetConfig)
		r.Get("/system/status", s.handleGetSystemStatus)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics.Handler())

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/*", http.FileServer(http.FS(static)))
}

// requestLogger logs each request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)))
	})
}

// aircraftResponse is the body of GET /api/v1/aircraft.
type aircraftResponse struct {
	Query     session.Input    `json:"query"`
	Heading   string           `json:"heading,omitempty"`
	Message   string           `json:"message,omitempty"`
	Warning   string           `json:"warning,omitempty"`
	Columns   []string         `json:"columns"`
	Rows      [][]string       `json:"rows"`
	Records   []tracker.Record `json:"records"`
	Deck      *display.Deck    `json:"deck,omitempty"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// handleGetAircraft runs one query for ?lat=&lon=&radius=. Omitted parameters
// take the configured defaults.
func (s *Server) handleGetAircraft(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in, err := session.ParseInput(q.Get("lat"), q.Get("lon"), q.Get("radius"),
		session.DefaultInput(s.cfg.Query), s.cfg.Query)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Each request gets its own session; the provider client is shared.
	res := session.New(s.source, s.logger, s.metrics).Run(r.Context(), in)
	if res.Err != nil {
		respondError(w, http.StatusBadGateway, res.Err.Error())
		return
	}

	resp := aircraftResponse{
		Query:     in,
		Warning:   res.Warning,
		Columns:   display.Columns,
		Rows:      display.Rows(res.Records),
		Records:   res.Records,
		FetchedAt: res.FetchedAt,
	}
	if len(res.Records) == 0 {
		resp.Message = display.NoDataMessage
	} else {
		resp.Heading = display.TableHeading
		deck := display.NewDeck(in.Latitude, in.Longitude, res.Records, s.cfg.Display)
		resp.Deck = &deck
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleGetConfig returns the settings the map page needs for its inputs.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"title":      display.Title,
		"tagline":    display.Tagline,
		"defaults":   session.DefaultInput(s.cfg.Query),
		"min_radius": s.cfg.Query.MinRadiusMiles,
		"max_radius": s.cfg.Query.MaxRadiusMiles,
		"map_style":  s.cfg.Display.MapStyle,
		"map_token":  s.cfg.Display.MapboxToken,
	})
}

// handleGetSystemStatus returns build and uptime information.
func (s *Server) handleGetSystemStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"version":  version,
		"commit":   commit,
		"uptime":   time.Since(s.started).Round(time.Second).String(),
		"provider": s.cfg.Provider.BaseURL,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
