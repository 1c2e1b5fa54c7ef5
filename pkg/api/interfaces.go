// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/drivelog/pkg/controller"
	"github.com/ssargent/drivelog/pkg/storage"
)

// IController is the controller surface the API drives
type IController interface {
	Handle(raw []byte) (*controller.Result, error)
	SetCommand(left, right int)
	Command() (left, right int)
	SetMode(mode controller.Mode) error
	Mode() controller.Mode
}

// IFrameStore is the read side of the training frame store
type IFrameStore interface {
	Get(id ksuid.KSUID) (*storage.Sample, error)
	List(after ksuid.KSUID, limit int) ([]*storage.Sample, error)
	Count() (int, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until ctx is cancelled
	StartServer(ctx context.Context, ctrl IController, frames IFrameStore, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
