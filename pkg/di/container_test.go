package di

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/drivelog/pkg/api"
	"github.com/ssargent/drivelog/pkg/device"
	"github.com/ssargent/drivelog/pkg/store"
)

type stubTransport struct{}

func (stubTransport) Exchange(context.Context, []byte) ([]byte, error) { return nil, nil }

type stubFactory struct{}

func (stubFactory) CreateServerStarter() api.ServerStarter { return nil }

func TestNewContainer_Defaults(t *testing.T) {
	c := NewContainer(zerolog.Nop())

	assert.NotNil(t, c.GetServerFactory())
	assert.IsType(t, &device.HTTPTransport{}, c.NewTransport("http://localhost:1", time.Second))

	dir := t.TempDir()
	frames, err := c.OpenFrameStore(filepath.Join(dir, "frames"))
	require.NoError(t, err)
	require.NoError(t, frames.Close())

	w, err := c.OpenLogWriter(store.LogWriterConfig{FilePath: filepath.Join(dir, "feedback.log")})
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestContainer_Overrides(t *testing.T) {
	c := NewContainer(zerolog.Nop())

	c.SetServerFactory(stubFactory{})
	assert.Equal(t, stubFactory{}, c.GetServerFactory())

	c.SetTransportFactory(func(string, time.Duration) device.Transport { return stubTransport{} })
	assert.Equal(t, stubTransport{}, c.NewTransport("ignored", 0))
}
