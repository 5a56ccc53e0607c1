package server

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cleverdash/internal/logging"
	"cleverdash/internal/pipeline"
	"cleverdash/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

// Snapshotter computes a fresh set of dashboard metrics.
type Snapshotter interface {
	Snapshot(ctx context.Context) *pipeline.Snapshot
}

// Options configure the HTTP surface.
type Options struct {
	ListenAddr      string
	Title           string
	RefreshInterval time.Duration
	// MetricsHandler is mounted at MetricsPath when non-nil.
	MetricsHandler http.Handler
	MetricsPath    string
}

// Server renders snapshots as an HTML dashboard and as JSON.
type Server struct {
	snapshots Snapshotter
	opts      Options
	router    *chi.Mux
	logger    logging.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

func New(snapshots Snapshotter, opts Options, logger logging.Logger) *Server {
	if opts.ListenAddr == "" {
		opts.ListenAddr = ":8501"
	}
	if opts.Title == "" {
		opts.Title = "CLever CVX Dashboard"
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	s := &Server{snapshots: snapshots, opts: opts, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleDashboard)
	r.Get("/api/metrics", s.handleMetricsJSON)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.opts.MetricsHandler != nil {
		r.Method(http.MethodGet, s.opts.MetricsPath, s.opts.MetricsHandler)
	}
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return fmt.Errorf("server already started")
	}

	ln, err := net.Listen("tcp", s.opts.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.ListenAddr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func(srv *http.Server) {
		s.logger.Infof("Dashboard HTTP service starting on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("Dashboard HTTP service error: %v", err)
		}
	}(s.httpServer)
	return nil
}

// Addr is the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard http shutdown: %w", err)
	}
	return nil
}

type dashboardView struct {
	Title          string
	RefreshSeconds int
	Snapshot       *pipeline.Snapshot
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.Snapshot(r.Context())
	view := dashboardView{
		Title:          s.opts.Title,
		RefreshSeconds: int(s.opts.RefreshInterval / time.Second),
		Snapshot:       snap,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, view); err != nil {
		s.logger.Errorf("render dashboard: %v", err)
	}
}

type metricJSON struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Value   string `json:"value,omitempty"`
	Display string `json:"display"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

type sectionJSON struct {
	Title   string       `json:"title"`
	Metrics []metricJSON `json:"metrics"`
}

type snapshotJSON struct {
	Block     uint64        `json:"block"`
	Pinned    bool          `json:"pinned"`
	NativeUSD float64       `json:"native_usd"`
	TakenAt   time.Time     `json:"taken_at"`
	Sections  []sectionJSON `json:"sections"`
}

func toJSON(snap *pipeline.Snapshot) snapshotJSON {
	out := snapshotJSON{
		Block:     snap.Block,
		Pinned:    snap.Pinned,
		NativeUSD: snap.NativeUSD,
		TakenAt:   snap.TakenAt,
		Sections:  make([]sectionJSON, 0, len(snap.Sections)),
	}
	for _, sec := range snap.Sections {
		sj := sectionJSON{Title: sec.Title, Metrics: make([]metricJSON, 0, len(sec.Metrics))}
		for _, m := range sec.Metrics {
			mj := metricJSON{Key: m.Key, Label: m.Label, Display: m.Display}
			if m.Err != nil {
				mj.Error = m.Err.Error()
				mj.Kind = types.Kind(m.Err)
			} else {
				mj.Value = m.Value.String()
			}
			sj.Metrics = append(sj.Metrics, mj)
		}
		out.Sections = append(out.Sections, sj)
	}
	return out
}

func (s *Server) handleMetricsJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.Snapshot(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(toJSON(snap)); err != nil {
		s.logger.Errorf("encode metrics: %v", err)
	}
}
