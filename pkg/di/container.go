// Package di provides dependency injection container
package di

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ssargent/drivelog/pkg/api" //nolint:depguard
	"github.com/ssargent/drivelog/pkg/device"
	"github.com/ssargent/drivelog/pkg/storage"
	"github.com/ssargent/drivelog/pkg/store"
)

// FrameStoreOpener opens the controller's frame store
type FrameStoreOpener func(path string) (*storage.FrameStore, error)

// LogWriterOpener opens the device feedback log
type LogWriterOpener func(cfg store.LogWriterConfig) (*store.LogWriter, error)

// TransportFactory builds the device's transport to a controller
type TransportFactory func(baseURL string, timeout time.Duration) device.Transport

// Container holds all the dependencies for the application
type Container struct {
	serverFactory api.ServerFactory
	openFrames    FrameStoreOpener
	openLog       LogWriterOpener
	newTransport  TransportFactory
}

// NewContainer creates a new dependency injection container
func NewContainer(logger zerolog.Logger) *Container {
	return &Container{
		serverFactory: api.NewServerFactory(logger),
		openFrames:    storage.NewFrameStore,
		openLog:       store.NewLogWriter,
		newTransport: func(baseURL string, timeout time.Duration) device.Transport {
			return device.NewHTTPTransport(baseURL, timeout)
		},
	}
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// OpenFrameStore opens the frame store at path
func (c *Container) OpenFrameStore(path string) (*storage.FrameStore, error) {
	return c.openFrames(path)
}

// OpenLogWriter opens the feedback log described by cfg
func (c *Container) OpenLogWriter(cfg store.LogWriterConfig) (*store.LogWriter, error) {
	return c.openLog(cfg)
}

// NewTransport returns a transport to the controller at baseURL
func (c *Container) NewTransport(baseURL string, timeout time.Duration) device.Transport {
	return c.newTransport(baseURL, timeout)
}

// SetTransportFactory allows overriding how transports are built (for testing)
func (c *Container) SetTransportFactory(factory TransportFactory) {
	c.newTransport = factory
}
