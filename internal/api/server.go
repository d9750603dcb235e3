package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lost-pika/backend-ai-subtitler/internal/config"
	"github.com/lost-pika/backend-ai-subtitler/internal/metrics"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(cfg *config.Config, subtitles *SubtitleHandler, health *HealthHandler, log zerolog.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      newRouter(cfg, subtitles, health, log),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

// newRouter assembles the middleware stack and routes. Split from NewServer
// so handler tests can exercise the full stack without binding a listener.
func newRouter(cfg *config.Config, subtitles *SubtitleHandler, health *HealthHandler, log zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(CORSWithOrigins(cfg.CORSOriginList()))
	r.Use(metrics.InstrumentHandler)

	// Health and metrics — no auth
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Authenticated, rate-limited routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
		r.Use(BearerAuth(cfg.AuthToken))
		subtitles.Routes(r)
	})

	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
