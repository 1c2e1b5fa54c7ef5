// Package api provides factory implementations for dependency injection
package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct {
	Logger zerolog.Logger
}

// NewServerFactory creates a new server factory
func NewServerFactory(logger zerolog.Logger) ServerFactory {
	return &DefaultServerFactory{Logger: logger}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{logger: f.Logger}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct {
	logger zerolog.Logger
}

// StartServer starts the API server with a fresh metrics registry
func (s *DefaultServerStarter) StartServer(ctx context.Context, ctrl IController, frames IFrameStore, config ServerConfig) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	server := NewServer(ctrl, frames, config, NewMetrics(reg), s.logger)
	return server.ListenAndServe(ctx)
}
