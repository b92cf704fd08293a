package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hpungsan/tweetsched/internal/ops"
)

// NewServer creates the HTTP server for the scheduling API.
func NewServer(env *ops.Env, version, bind string, port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           NewRouter(env, version),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter wires the routes and middleware.
func NewRouter(env *ops.Env, version string) http.Handler {
	h := &Handlers{env: env, log: env.Log, version: version}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(requestLogger(env.Log))
	mux.Use(recovery(env.Log))
	mux.Use(env.Metrics.Middleware)
	mux.Use(securityHeaders)

	mux.Get("/health", h.HandleHealth)
	if env.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", env.Metrics.Handler())
	}

	mux.Route("/api", func(r chi.Router) {
		r.Post("/schedule", h.HandleSchedule)
		r.Post("/process-url", h.HandleProcessURL)
		r.Get("/scan", h.HandleScan)
		r.Post("/header", h.HandleHeader)
		r.Get("/next-day", h.HandleNextDay)
		r.Get("/hooks", h.HandleHooks)
		r.Get("/hooks/{category}", h.HandleHook)
	})

	return mux
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs each request with method, path, status, and duration.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// recovery turns a handler panic into a 500 JSON error.
func recovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().
						Str("request_id", middleware.GetReqID(r.Context())).
						Interface("panic", rec).
						Msg("panic recovered")
					renderError(w, log, fmt.Errorf("panic: %v", rec))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, log zerolog.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info().Str("addr", "http://"+srv.Addr).Msg("tweetsched API running")

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Warn().Msg("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
