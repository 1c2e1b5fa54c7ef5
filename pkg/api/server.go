// Package api is the controller's HTTP surface
//
// @title           drivelog controller API
// @version         1.0.0
// @description     Device message exchange, operator control and training frames.
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"
)

const (
	shutdownTimeout      = 5 * time.Second
	frameMetricsInterval = 30 * time.Second
)

// Server holds the API server state
type Server struct {
	ctrl    IController
	frames  IFrameStore // nil when the controller keeps no frames
	config  ServerConfig
	metrics *Metrics
	logger  zerolog.Logger
}

// NewServer creates a new API server
func NewServer(ctrl IController, frames IFrameStore, config ServerConfig, metrics *Metrics, logger zerolog.Logger) *Server {
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	return &Server{
		ctrl:    ctrl,
		frames:  frames,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// Router builds the handler tree
func (s *Server) Router() http.Handler {
	requestLogger := s.logger.With().Str("component", "http").Logger()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: &requestLogger, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Device exchange
		r.Post("/messages", s.metrics.InstrumentHandler("POST", "/api/v1/messages", s.handleMessage))

		// Operator control
		r.Get("/command", s.metrics.InstrumentHandler("GET", "/api/v1/command", s.handleGetCommand))
		r.Get("/mode", s.metrics.InstrumentHandler("GET", "/api/v1/mode", s.handleGetMode))
		r.Group(func(r chi.Router) {
			r.Use(apiKeyMiddleware(s.config.OperatorKey, s.metrics))
			r.Put("/command", s.metrics.InstrumentHandler("PUT", "/api/v1/command", s.handleSetCommand))
			r.Put("/mode", s.metrics.InstrumentHandler("PUT", "/api/v1/mode", s.handleSetMode))
		})

		// Training frames
		r.Get("/frames", s.metrics.InstrumentHandler("GET", "/api/v1/frames", s.handleListFrames))
		r.Get("/frames/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/frames/{id}", s.handleGetFrame))
		r.Get("/frames/{id}/image", s.metrics.InstrumentHandler("GET", "/api/v1/frames/{id}/image", s.handleFrameImage))
	})

	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			sendError(w, "Failed to generate Swagger documentation", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Bind, strconv.Itoa(s.config.Port))
	SwaggerInfo.Host = addr

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	go s.updateFrameMetrics(ctx)

	s.logger.Info().
		Str("addr", addr).
		Str("mode", string(s.ctrl.Mode())).
		Bool("operator_auth", s.config.OperatorKey != "").
		Msg("controller listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info().Msg("controller shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// updateFrameMetrics periodically refreshes the frame count gauge
func (s *Server) updateFrameMetrics(ctx context.Context) {
	if s.frames == nil {
		return
	}
	ticker := time.NewTicker(frameMetricsInterval)
	defer ticker.Stop()

	for {
		if n, err := s.frames.Count(); err == nil {
			s.metrics.UpdateFrameCount(n)
		} else {
			s.logger.Warn().Err(err).Msg("count frames")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
