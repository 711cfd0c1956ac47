// Package server exposes single-image augmentation over HTTP.
//
// Routes:
//
//	POST /v1/augment  augment one image with the server's configuration
//	GET  /healthz     liveness probe
//	GET  /version     build information
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/boxaug/pkg/cache"
	"github.com/matzehuels/boxaug/pkg/config"
	"github.com/matzehuels/boxaug/pkg/observability"
	"github.com/matzehuels/boxaug/pkg/pipeline"
)

const (
	// DefaultAddr is the listen address used when none is given.
	DefaultAddr = ":8080"

	// DefaultMaxBody limits request bodies to 32 MiB.
	DefaultMaxBody = 32 << 20

	// KeyScope prefixes cache keys written by the server.
	KeyScope = "api:"

	shutdownTimeout = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	Config  config.Config
	MaxBody int64
	Logger  *log.Logger
}

// Server serves the augmentation API.
type Server struct {
	runner  *pipeline.Runner
	aug     *pipeline.Augmenter
	seed    uint64
	maxBody int64
	logger  *log.Logger
	router  chi.Router
}

// New builds a server around c. Cache keys are scoped with [KeyScope].
func New(c cache.Cache, opts Options) (*Server, error) {
	aug, err := pipeline.NewAugmenter(opts.Config)
	if err != nil {
		return nil, err
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Server{
		runner:  pipeline.NewRunner(c, cache.NewScopedKeyer(nil, KeyScope), opts.Logger),
		aug:     aug,
		seed:    opts.Config.Seed,
		maxBody: opts.MaxBody,
		logger:  opts.Logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealth)
	r.Get("/version", handleVersion)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/augment", s.handleAugment())
	})
	return r
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs one line per request and reports it to the HTTP hooks.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, elapsed)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed.Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
