// Package collector receives records posted by scanners and hands them out
// to pollers.
package collector

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/trambelus/Blueview/internal/logging"
	"github.com/trambelus/Blueview/internal/metrics"
)

var logger = logging.New("collector")

//go:embed templates/index.html
var defaultIndex []byte

type Config struct {
	QueueSize   int
	IndexFile   string // served instead of the embedded page when set
	CORSOrigins []string
}

type Server struct {
	cfg     Config
	queue   *Queue
	metrics *metrics.Collector
	router  chi.Router
	server  *http.Server
}

// NewServer registers the collector metrics on reg and builds the routes.
// gather serves /metrics; nil disables the endpoint.
func NewServer(cfg Config, reg prometheus.Registerer, gather prometheus.Gatherer) *Server {
	s := &Server{
		cfg:     cfg,
		queue:   NewQueue(cfg.QueueSize),
		metrics: metrics.NewCollector(reg),
		router:  chi.NewRouter(),
	}
	s.setupRoutes(gather)
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes(gather prometheus.Gatherer) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Get("/blueview", s.handleIndex)
	s.router.Post("/blueview/data", s.handlePost)
	s.router.Get("/blueview/data", s.handleDrain)
	if gather != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(gather, promhttp.HandlerOpts{}))
	}
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Queue returns the entry queue.
func (s *Server) Queue() *Queue { return s.queue }

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.server.Addr = addr
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", "err", err)
		}
	}()
	logger.Info("collector listening", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrapf(err, "collector listen %s", addr)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := defaultIndex
	if s.cfg.IndexFile != "" {
		b, err := os.ReadFile(s.cfg.IndexFile)
		if err != nil {
			logger.Error("read index", "file", s.cfg.IndexFile, "err", err)
			http.Error(w, "index unavailable", http.StatusInternalServerError)
			return
		}
		page = b
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.reject(w, "malformed form")
		return
	}
	e := Entry{
		UUID:         r.PostForm.Get("uuid"),
		MAC:          r.PostForm.Get("mac"),
		Packet:       r.PostForm.Get("packet"),
		Manufacturer: r.PostForm.Get("manufacturer"),
	}
	switch {
	case e.MAC == "":
		s.reject(w, "missing field mac")
		return
	case e.Packet == "":
		s.reject(w, "missing field packet")
		return
	case e.UUID == "" && e.Manufacturer == "":
		s.reject(w, "missing field uuid")
		return
	}
	if n := s.queue.Push(e); n > 0 {
		s.metrics.Dropped.Add(float64(n))
	}
	s.metrics.Received.Inc()
	s.metrics.QueueDepth.Set(float64(s.queue.Len()))
	w.Write([]byte("OK"))
}

func (s *Server) reject(w http.ResponseWriter, msg string) {
	s.metrics.Rejected.Inc()
	http.Error(w, msg, http.StatusBadRequest)
}

func (s *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	entries := s.queue.Drain()
	s.metrics.Drained.Add(float64(len(entries)))
	s.metrics.QueueDepth.Set(float64(s.queue.Len()))
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		logger.Warn("write drain response", "err", err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"id", middleware.GetReqID(r.Context()),
			"took", time.Since(start))
	})
}
